package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Static serves files from the configured asset directory. The root path
// serves the research page, matching the shipped frontend's entrypoint.
// Content type is derived from the file extension by net/http.
func (h *Handler) Static(w http.ResponseWriter, r *http.Request) {
	reqPath := path.Clean(r.URL.Path)
	if reqPath == "/" || reqPath == "/index.html" {
		reqPath = "/research.html"
	}

	filePath := filepath.Join(h.staticDir, filepath.FromSlash(strings.TrimPrefix(reqPath, "/")))

	// Reject anything that escapes the asset directory after cleaning.
	absDir, err := filepath.Abs(h.staticDir)
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	absPath, err := filepath.Abs(filePath)
	if err != nil || !strings.HasPrefix(absPath, absDir+string(os.PathSeparator)) {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	info, err := os.Stat(absPath)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	http.ServeFile(w, r, absPath)
}
