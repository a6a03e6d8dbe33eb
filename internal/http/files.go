package http

import (
	nethttp "net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/arunprabus/health-api/internal/handler"
	"github.com/arunprabus/health-api/pkg/logger"
)

// FilesPrefix is where documents kept by the local store are served, below the API base path.
const FilesPrefix = "/files"

// registerFiles serves documents written by the local store. Callers only see their own
// directory, which is named after their user id.
func registerFiles(g *echo.Group, dir string) {
	if dir == "" {
		return
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		logger.Warn("upload dir not found", "module", "http", "action", "register", "resource", "files", "dir", dir)
		return
	}

	g.GET(FilesPrefix+"/*", func(c echo.Context) error {
		principal, ok := handler.PrincipalFrom(c)
		if !ok {
			return handler.Error(c, nethttp.StatusUnauthorized, "Authentication required")
		}

		cleanPath := strings.TrimPrefix(path.Clean("/"+c.Param("*")), "/")
		owner, rest, found := strings.Cut(cleanPath, "/")
		if !found || rest == "" || owner != principal.ID {
			return handler.Error(c, nethttp.StatusNotFound, "File not found")
		}

		candidate := filepath.Join(dir, filepath.FromSlash(cleanPath))
		fileInfo, err := os.Stat(candidate)
		if err != nil || fileInfo.IsDir() {
			return handler.Error(c, nethttp.StatusNotFound, "File not found")
		}
		c.Response().Header().Set("Cache-Control", "private, no-store")
		return c.File(candidate)
	})
}
