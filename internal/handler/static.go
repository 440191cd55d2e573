package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/labstack/echo/v4"

	"scene-proxy-go/internal/config"
)

// contentTypes maps the servable file extensions to their content type.
// Anything else is answered 404 with no body.
var contentTypes = map[string]string{
	".html": "text/html",
	".js":   "application/javascript",
	".json": "application/json",
	".css":  "text/css",
	".env":  "text/plain",
}

// StaticHandler serves files from the static root. Query strings never reach
// it (the router matches on the path alone) and requests cannot escape the
// root: the path is cleaned as rooted before joining.
type StaticHandler struct {
	root   string
	index  string
	logger *slog.Logger
}

// NewStaticHandler creates a StaticHandler for the configured root directory.
func NewStaticHandler(cfg *config.Config, logger *slog.Logger) *StaticHandler {
	return &StaticHandler{
		root:   cfg.Static.Root,
		index:  cfg.Static.Index,
		logger: logger.With("component", "static_handler"),
	}
}

// Serve answers a GET for a static asset. "/" maps to the index document.
func (h *StaticHandler) Serve(c echo.Context) error {
	p := c.Request().URL.Path
	if p == "/" || p == "" {
		p = "/" + h.index
	}

	ct, ok := contentTypes[strings.ToLower(path.Ext(p))]
	if !ok {
		return writeBlob(c, h.logger, http.StatusNotFound, "", nil)
	}

	data, err := os.ReadFile(h.resolve(p))
	if err != nil {
		if errors404(err) {
			return writeJSON(c, h.logger, http.StatusNotFound, map[string]string{
				"error": "File not found",
			})
		}
		h.logger.Error("serve static file", "path", p, "err", err)
		return writeJSON(c, h.logger, http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}

	return writeBlob(c, h.logger, http.StatusOK, ct, data)
}

// resolve maps a request path to a filesystem path confined to the root.
// Cleaning the path as rooted collapses any ".." segments before the join.
func (h *StaticHandler) resolve(p string) string {
	clean := path.Clean("/" + p)
	return filepath.Join(h.root, filepath.FromSlash(clean))
}

// errors404 reports whether a read failure means "no such file". A path
// component that exists as a regular file (ENOTDIR) reads as missing too.
func errors404(err error) bool {
	return os.IsNotExist(err) || errors.Is(err, syscall.ENOTDIR)
}
