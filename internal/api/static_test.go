package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newStaticHandler(t *testing.T) (*Handler, string) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"research.html": "<html>research</html>",
		"login.html":    "<html>login</html>",
		"app.js":        "console.log('hi');",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return NewHandler(&mockStore{}, &mockIdentity{}, &mockCompleter{}, &mockNews{}, dir), dir
}

func TestStatic_RootServesResearchPage(t *testing.T) {
	h, _ := newStaticHandler(t)

	for _, target := range []string{"/", "/index.html", "/research.html"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		h.Static(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: status = %d, want 200", target, rec.Code)
			continue
		}
		if !strings.Contains(rec.Body.String(), "research") {
			t.Errorf("GET %s: body = %q", target, rec.Body.String())
		}
	}
}

func TestStatic_ServesNamedFile(t *testing.T) {
	h, _ := newStaticHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/app.js", nil)
	rec := httptest.NewRecorder()
	h.Static(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "javascript") {
		t.Errorf("Content-Type = %q, want javascript", ct)
	}
}

func TestStatic_MissingFile(t *testing.T) {
	h, _ := newStaticHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/nope.html", nil)
	rec := httptest.NewRecorder()
	h.Static(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "file not found") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestStatic_TraversalRejected(t *testing.T) {
	h, dir := newStaticHandler(t)

	// Plant a file just outside the asset dir.
	outside := filepath.Join(filepath.Dir(dir), "secret.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0o644); err != nil {
		t.Fatalf("write outside file: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/static", nil)
	req.URL.Path = "/../secret.txt"
	rec := httptest.NewRecorder()
	h.Static(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Error("traversal leaked file contents")
	}
}
