package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Header values sent on preflight responses. The wildcard origin is the
// point of the proxy: browser pages served from any local origin may call it.
const (
	corsAllowOrigin  = "*"
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization"
)

// CORS returns an Echo middleware that answers every OPTIONS request —
// whatever the path — with a 200, an empty body, and the allow headers
// browsers expect for a preflight. Echo's bundled CORS middleware answers
// preflights with 204 and only on registered routes, neither of which
// matches this server's contract. Non-OPTIONS requests pass through
// untouched; the proxy handler sets Access-Control-Allow-Origin on its own
// responses where required.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodOptions {
				return next(c)
			}

			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, corsAllowOrigin)
			h.Set(echo.HeaderAccessControlAllowMethods, corsAllowMethods)
			h.Set(echo.HeaderAccessControlAllowHeaders, corsAllowHeaders)
			return c.NoContent(http.StatusOK)
		}
	}
}
