package handlers

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/agristat/internal/errors"
)

const indexFile = "index.html"

// StaticHandler serves the built single-page frontend. Unknown paths fall
// back to index.html so client-side routes resolve.
type StaticHandler struct {
	fsys fs.FS
}

// NewStaticHandler serves files from dir. Requests can never escape dir.
func NewStaticHandler(dir string) *StaticHandler {
	return &StaticHandler{fsys: os.DirFS(dir)}
}

// NoRoute handles every request no other route matched.
func (h *StaticHandler) NoRoute(c *gin.Context) {
	urlPath := c.Request.URL.Path
	if isAPIPath(urlPath) || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
		apierrors.NotFound(c, "Route not found")
		return
	}

	name := resolveStatic(h.fsys, urlPath)
	if name == "" {
		apierrors.NotFound(c, "Frontend is not available")
		return
	}

	http.ServeFileFS(c.Writer, c.Request, h.fsys, name)
}

// resolveStatic maps a URL path to a regular file in fsys, falling back to
// index.html. It returns "" when neither exists.
func resolveStatic(fsys fs.FS, urlPath string) string {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name != "" && fs.ValidPath(name) && isFile(fsys, name) {
		return name
	}
	if isFile(fsys, indexFile) {
		return indexFile
	}
	return ""
}

func isFile(fsys fs.FS, name string) bool {
	info, err := fs.Stat(fsys, name)
	return err == nil && info.Mode().IsRegular()
}

func isAPIPath(p string) bool {
	return p == "/api" || strings.HasPrefix(p, "/api/")
}
