// Package handler contains the HTTP handlers: proxy, static files, health.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"strconv"
	"syscall"

	"github.com/labstack/echo/v4"
)

// writeBlob writes a response best-effort: peer-disconnect failures are
// swallowed at every write site, since by then there is nobody left to
// answer and the request must not be reported as a server fault.
// contentType may be empty for bodyless responses.
func writeBlob(c echo.Context, logger *slog.Logger, status int, contentType string, body []byte) error {
	h := c.Response().Header()
	if contentType != "" {
		h.Set(echo.HeaderContentType, contentType)
	}
	if len(body) > 0 {
		h.Set(echo.HeaderContentLength, strconv.Itoa(len(body)))
	}
	c.Response().WriteHeader(status)
	if len(body) == 0 {
		return nil
	}
	if _, err := c.Response().Write(body); err != nil && !isClientDisconnect(err) {
		logger.Debug("response write failed", "err", err, "path", c.Request().URL.Path)
	}
	return nil
}

// writeJSON marshals v and writes it best-effort with a JSON content type.
func writeJSON(c echo.Context, logger *slog.Logger, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		// Only reachable with an unmarshalable value, which the callers
		// never construct.
		body = []byte(`{"error":"internal error"}`)
	}
	return writeBlob(c, logger, status, echo.MIMEApplicationJSON, body)
}

// isClientDisconnect reports whether a write failed because the peer went
// away (reset, broken pipe, closed connection).
func isClientDisconnect(err error) bool {
	return errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, net.ErrClosed)
}
