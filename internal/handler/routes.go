package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// RegisterRoutes wires all route handlers onto the Echo instance. The static
// wildcard only claims GETs; every other unmatched path/method pair falls
// through to the server's bodyless 404 (see the error handler in main).
func RegisterRoutes(e *echo.Echo, scene *SceneHandler, static *StaticHandler, health *HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/proxy/status", health.Status)

	e.POST("/api/generate-scene", scene.Generate)

	e.GET("/", static.Serve)
	e.GET("/*", static.Serve)
}

// NewHTTPErrorHandler returns the central error handler: unmatched routes and
// method mismatches both answer a bodyless 404, everything else keeps Echo's
// default rendering.
func NewHTTPErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) && (he.Code == http.StatusNotFound || he.Code == http.StatusMethodNotAllowed) {
			_ = c.NoContent(http.StatusNotFound)
			return
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}
