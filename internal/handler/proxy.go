package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"scene-proxy-go/internal/service"
)

// SceneHandler serves the generate-scene proxy endpoint.
type SceneHandler struct {
	service *service.SceneService
	logger  *slog.Logger
}

// NewSceneHandler creates a SceneHandler.
func NewSceneHandler(svc *service.SceneService, logger *slog.Logger) *SceneHandler {
	return &SceneHandler{
		service: svc,
		logger:  logger.With("component", "scene_handler"),
	}
}

// Generate reads the inbound body, runs the forwarding flow, and renders the
// outcome. The response table:
//
//	upstream success        200  upstream JSON verbatim, CORS origin header
//	undecodable body        400  {"error": "Invalid JSON in request"}
//	credential absent       500  {"error": "API key not found in .env file"}
//	upstream failure        upstream status (>=400) or 500, error + details, CORS origin header
//	anything else           500  {"error": "<description>"}
func (h *SceneHandler) Generate(c echo.Context) error {
	req := c.Request()

	body, err := io.ReadAll(req.Body)
	if err != nil {
		// A truncated body cannot be parsed; same client error as bad JSON.
		return h.renderError(c, service.ErrInvalidJSON)
	}

	result, err := h.service.Generate(req.Context(), body)
	if err != nil {
		return h.renderError(c, err)
	}

	c.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, "*")
	return writeBlob(c, h.logger, http.StatusOK, echo.MIMEApplicationJSON, result)
}

// renderError maps the service's outcome taxonomy onto wire responses.
func (h *SceneHandler) renderError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidJSON):
		return writeJSON(c, h.logger, http.StatusBadRequest, map[string]string{
			"error": "Invalid JSON in request",
		})

	case errors.Is(err, service.ErrCredentialMissing):
		h.logger.Error("generate-scene refused: no API key available")
		return writeJSON(c, h.logger, http.StatusInternalServerError, map[string]string{
			"error": "API key not found in .env file",
		})
	}

	var ue *service.UpstreamError
	if errors.As(err, &ue) {
		details := ue.Details()
		h.logger.Error("upstream call failed",
			"err", ue.Error(),
			"upstream_status", ue.StatusCode,
			"details", detailString(ue),
		)

		payload := map[string]any{
			"error": ue.Error(),
			"type":  "openai_api_error",
		}
		if details != nil {
			payload["details"] = details
		}
		c.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, "*")
		return writeJSON(c, h.logger, ue.Status(), payload)
	}

	h.logger.Error("generate-scene failed", "err", err)
	return writeJSON(c, h.logger, http.StatusInternalServerError, map[string]string{
		"error": err.Error(),
	})
}

func detailString(ue *service.UpstreamError) string {
	if len(ue.Body) == 0 {
		return ""
	}
	return string(ue.Body)
}
