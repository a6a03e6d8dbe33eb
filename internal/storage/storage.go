//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock
package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrInvalidKey     = errors.New("invalid object key")
	ErrBucketNotFound = errors.New("bucket not found")
	ErrAccessDenied   = errors.New("storage access denied")
)

// Info describes where objects end up. It is safe to show to authenticated users.
type Info struct {
	Backend string
	Bucket  string
	Region  string
}

// ObjectStore keeps user documents. Put returns the public URL of the stored object.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
	KeyFromURL(url string) (string, bool)
	Info() Info
}
