package http_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	gh "github.com/arunprabus/health-api/internal/http"
	"github.com/arunprabus/health-api/internal/model"
	"github.com/arunprabus/health-api/internal/service/mock"
)

func TestFiles_NotRegisteredWithoutDir(t *testing.T) {
	ctrl := gomock.NewController(t)
	e := gh.NewRouter(newDeps(t, ctrl))
	require.False(t, hasRoute(e, http.MethodGet, "/api"+gh.FilesPrefix+"/*"))
}

func TestFiles_MissingDir(t *testing.T) {
	ctrl := gomock.NewController(t)
	d := newDeps(t, ctrl)
	d.FilesDir = filepath.Join(t.TempDir(), "missing")

	e := gh.NewRouter(d)
	require.False(t, hasRoute(e, http.MethodGet, "/api"+gh.FilesPrefix+"/*"))
}

func TestFiles_ServesOwnDocumentsOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "u-1"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "u-2"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "u-1", "document.pdf"), []byte("MINE"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "u-2", "document.pdf"), []byte("THEIRS"), 0o600))

	ctrl := gomock.NewController(t)
	d := newDeps(t, ctrl)
	d.FilesDir = dir
	auth := mock.NewMockAuthenticator(ctrl)
	auth.EXPECT().Authenticate(gomock.Any(), "token-1").Return(&model.Principal{ID: "u-1"}, nil).AnyTimes()
	d.Authenticator = auth

	e := gh.NewRouter(d)
	require.True(t, hasRoute(e, http.MethodGet, "/api"+gh.FilesPrefix+"/*"))

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer token-1")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	rec := get("/api/files/u-1/document.pdf")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "MINE", rec.Body.String())
	require.Equal(t, "private, no-store", rec.Header().Get("Cache-Control"))

	require.Equal(t, http.StatusNotFound, get("/api/files/u-2/document.pdf").Code)
	require.Equal(t, http.StatusNotFound, get("/api/files/u-1/../u-2/document.pdf").Code)
	require.Equal(t, http.StatusNotFound, get("/api/files/u-1/missing.pdf").Code)
	require.Equal(t, http.StatusNotFound, get("/api/files/u-1").Code)

	req := httptest.NewRequest(http.MethodGet, "/api/files/u-1/document.pdf", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
