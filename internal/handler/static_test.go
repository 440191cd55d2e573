package handler

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"

	"scene-proxy-go/internal/config"
)

func newTestStaticHandler(t *testing.T, files map[string]string) (*StaticHandler, string) {
	t.Helper()
	root := t.TempDir()
	for name, contents := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := &config.Config{}
	cfg.Static.Root = root
	cfg.Static.Index = "index.html"
	return NewStaticHandler(cfg, discardLogger()), root
}

func getStatic(t *testing.T, h *StaticHandler, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.Serve(c); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	return rec
}

func TestServe_ContentTypes(t *testing.T) {
	h, _ := newTestStaticHandler(t, map[string]string{
		"index.html": "<html></html>",
		"app.js":     "console.log(1)",
		"style.css":  "body{}",
		"data.json":  `{"k":1}`,
		"sample.env": "KEY=v",
	})

	tests := []struct {
		path     string
		wantType string
		wantBody string
	}{
		{"/index.html", "text/html", "<html></html>"},
		{"/app.js", "application/javascript", "console.log(1)"},
		{"/style.css", "text/css", "body{}"},
		{"/data.json", "application/json", `{"k":1}`},
		{"/sample.env", "text/plain", "KEY=v"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := getStatic(t, h, tt.path)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if got := rec.Header().Get(echo.HeaderContentType); got != tt.wantType {
				t.Errorf("Content-Type = %q, want %q", got, tt.wantType)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestServe_RootMapsToIndex(t *testing.T) {
	h, _ := newTestStaticHandler(t, map[string]string{"index.html": "<h1>home</h1>"})
	rec := getStatic(t, h, "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "<h1>home</h1>" {
		t.Errorf("body = %q, want the index document", rec.Body.String())
	}
}

func TestServe_QueryStringStripped(t *testing.T) {
	h, _ := newTestStaticHandler(t, map[string]string{"app.js": "x"})
	rec := getStatic(t, h, "/app.js?v=123&cache=no")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestServe_UnknownExtension(t *testing.T) {
	h, _ := newTestStaticHandler(t, map[string]string{"image.png": "binary"})
	rec := getStatic(t, h, "/image.png")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty for an unservable extension", rec.Body.String())
	}
}

func TestServe_MissingFile(t *testing.T) {
	h, _ := newTestStaticHandler(t, nil)
	rec := getStatic(t, h, "/missing.html")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if got := rec.Body.String(); got != `{"error":"File not found"}` {
		t.Errorf("body = %q, want the file-not-found message", got)
	}
}

func TestServe_TraversalConfinedToRoot(t *testing.T) {
	h, root := newTestStaticHandler(t, map[string]string{"index.html": "in-root"})

	// Plant a servable file just outside the root.
	outside := filepath.Join(filepath.Dir(root), "secret.html")
	if err := os.WriteFile(outside, []byte("outside"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := getStatic(t, h, "/../secret.html")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if rec.Body.String() == "outside" {
		t.Fatal("traversal escaped the static root")
	}
}

func TestServe_DirectoryReadFault(t *testing.T) {
	h, root := newTestStaticHandler(t, nil)
	if err := os.MkdirAll(filepath.Join(root, "docs.html"), 0o755); err != nil {
		t.Fatal(err)
	}

	rec := getStatic(t, h, "/docs.html")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d for a non-missing read fault", rec.Code, http.StatusInternalServerError)
	}
}
