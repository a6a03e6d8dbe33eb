package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arunprabus/health-api/internal/storage"
)

func TestLocalStore_PutAndDelete(t *testing.T) {
	root := t.TempDir()
	store, err := storage.NewLocalStore(root, "")
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "u1/document.pdf", strings.NewReader("%PDF-1.7"), 8, "application/pdf")
	require.NoError(t, err)
	require.Equal(t, "local://uploads/u1/document.pdf", url)

	data, err := os.ReadFile(filepath.Join(root, "u1", "document.pdf"))
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.7", string(data))

	key, ok := store.KeyFromURL(url)
	require.True(t, ok)
	require.Equal(t, "u1/document.pdf", key)

	require.NoError(t, store.Delete(context.Background(), key))
	_, err = os.Stat(filepath.Join(root, "u1", "document.pdf"))
	require.True(t, os.IsNotExist(err))

	require.NoError(t, store.Delete(context.Background(), key), "deleting a missing object is not an error")
}

func TestLocalStore_Overwrite(t *testing.T) {
	root := t.TempDir()
	store, err := storage.NewLocalStore(root, "http://localhost:5000/files/")
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "u1/document.png", strings.NewReader("first"), 5, "image/png")
	require.NoError(t, err)
	url, err := store.Put(context.Background(), "u1/document.png", strings.NewReader("second"), 6, "image/png")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:5000/files/u1/document.png", url)

	data, err := os.ReadFile(filepath.Join(root, "u1", "document.png"))
	require.NoError(t, err)
	require.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Join(root, "u1"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../escape.pdf", strings.NewReader("x"), 1, "application/pdf")
	require.ErrorIs(t, err, storage.ErrInvalidKey)
}

func TestLocalStore_Put_CancelledContext(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Put(ctx, "u1/document.pdf", strings.NewReader("x"), 1, "application/pdf")
	require.ErrorIs(t, err, context.Canceled)
}

func TestLocalStore_KeyFromURL_Foreign(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)

	_, ok := store.KeyFromURL("https://bucket.s3.ap-south-1.amazonaws.com/u1/document.pdf")
	require.False(t, ok)
	require.Equal(t, "local", store.Info().Backend)
}
