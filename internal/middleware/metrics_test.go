package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"scene-proxy-go/internal/metrics"
)

// counterValue digs the counter with the given label values out of the
// registry, returning -1 when absent.
func counterValue(t *testing.T, m *metrics.Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	metric:
		for _, mf := range f.GetMetric() {
			for _, lp := range mf.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metric
				}
			}
			return mf.GetCounter().GetValue()
		}
	}
	return -1
}

func TestMetricsMiddleware_RecordsRequests(t *testing.T) {
	m := metrics.New()
	e := echo.New()
	e.Use(MetricsMiddleware(m))
	e.POST("/api/generate-scene", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/generate-scene", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	got := counterValue(t, m, "scene_proxy_http_requests_total", map[string]string{
		"method": "POST", "status_code": "200", "route": "/api/generate-scene",
	})
	if got != 1 {
		t.Errorf("requests_total = %v, want 1", got)
	}
}

func TestMetricsMiddleware_ResolvesHTTPErrorStatus(t *testing.T) {
	m := metrics.New()
	e := echo.New()
	e.Use(MetricsMiddleware(m))
	e.GET("/boom.html", func(_ echo.Context) error {
		return echo.NewHTTPError(http.StatusBadGateway, "boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom.html", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	got := counterValue(t, m, "scene_proxy_http_requests_total", map[string]string{
		"method": "GET", "status_code": "502", "route": "static",
	})
	if got != 1 {
		t.Errorf("requests_total = %v, want 1 with the handler error's status", got)
	}
}

func TestMetricsMiddleware_NormalizesStaticRoutes(t *testing.T) {
	m := metrics.New()
	e := echo.New()
	e.Use(MetricsMiddleware(m))
	e.GET("/*", func(c echo.Context) error {
		return c.NoContent(http.StatusNotFound)
	})

	for _, path := range []string{"/a.html", "/deep/b.js", "/c.css"} {
		req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
	}

	got := counterValue(t, m, "scene_proxy_http_requests_total", map[string]string{
		"method": "GET", "status_code": "404", "route": "static",
	})
	if got != 3 {
		t.Errorf("requests_total = %v, want 3 aggregated under the static label", got)
	}
}
