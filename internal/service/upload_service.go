//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/arunprabus/health-api/internal/hashutil"
	"github.com/arunprabus/health-api/internal/model"
	"github.com/arunprabus/health-api/internal/repository"
	"github.com/arunprabus/health-api/internal/storage"
	"github.com/arunprabus/health-api/pkg/logger"
)

const DefaultMaxUploadBytes int64 = 10 << 20

// documentTypes maps accepted MIME types to the key extension.
var documentTypes = map[string]string{
	"application/pdf": "pdf",
	"image/jpeg":      "jpg",
	"image/png":       "png",
}

// UploadInput is one file from a multipart request.
type UploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type UploadResult struct {
	FileURL  string
	FileName string
	FileSize int64
	MimeType string
	Upload   *model.Upload
	Profile  *model.Profile
}

type UploadService interface {
	Upload(ctx context.Context, userID string, input UploadInput) (*UploadResult, error)
	List(ctx context.Context, userID string) ([]model.Upload, error)
	DeleteDocument(ctx context.Context, userID string) error
	Info() storage.Info
	MaxBytes() int64
}

type uploadService struct {
	profiles repository.ProfileRepository
	uploads  repository.UploadRepository
	store    storage.ObjectStore
	maxBytes int64
}

func NewUploadService(profiles repository.ProfileRepository, uploads repository.UploadRepository, store storage.ObjectStore, maxBytes int64) UploadService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &uploadService{profiles: profiles, uploads: uploads, store: store, maxBytes: maxBytes}
}

func (s *uploadService) Upload(ctx context.Context, userID string, input UploadInput) (*UploadResult, error) {
	if input.Body == nil {
		return nil, ErrNoFile
	}
	if input.Size > s.maxBytes {
		return nil, FileTooLarge(s.maxBytes)
	}
	if _, ok := documentTypes[normalizeMIME(input.ContentType)]; !ok {
		return nil, ErrUnsupportedType
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileRequired
	}

	data, err := io.ReadAll(io.LimitReader(input.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, FileTooLarge(s.maxBytes)
	}
	if len(data) == 0 {
		return nil, ErrNoFile
	}
	mimeType := normalizeMIME(http.DetectContentType(data))
	ext, ok := documentTypes[mimeType]
	if !ok {
		return nil, ErrUnsupportedType
	}

	key := userID + "/document." + ext
	if profile.PDFURL != nil {
		s.deleteObject(ctx, userID, *profile.PDFURL, key)
	}

	fileURL, err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), mimeType)
	if err != nil {
		return nil, storageFailure(userID, err)
	}
	if err := s.profiles.UpdatePDFURL(ctx, userID, &fileURL); err != nil {
		return nil, fmt.Errorf("update profile document: %w", err)
	}
	profile.PDFURL = &fileURL

	result := &UploadResult{
		FileURL:  fileURL,
		FileName: input.Filename,
		FileSize: int64(len(data)),
		MimeType: mimeType,
		Profile:  profile,
	}

	if _, err := s.uploads.CloseActive(ctx, userID, model.UploadStatusReplaced); err != nil {
		logger.Warn("close previous uploads", "module", "service", "action", "update", "resource", "upload", "result", "failed", "user_id", userID, "error", err)
	}
	record, err := s.uploads.Create(ctx, model.Upload{
		UserID:           userID,
		OriginalFilename: input.Filename,
		ObjectKey:        key,
		URL:              fileURL,
		Size:             int64(len(data)),
		MimeType:         mimeType,
		Checksum:         hashutil.SHA256Bytes(data),
	})
	if err != nil {
		logger.Warn("record upload", "module", "service", "action", "create", "resource", "upload", "result", "failed", "user_id", userID, "error", err)
	} else {
		result.Upload = record
	}

	logger.Info("document uploaded", "module", "service", "action", "upload", "resource", "document", "result", "ok",
		"user_id", userID, "key", key, "size", len(data), "mime", mimeType)
	return result, nil
}

func (s *uploadService) List(ctx context.Context, userID string) ([]model.Upload, error) {
	uploads, err := s.uploads.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return uploads, nil
}

func (s *uploadService) DeleteDocument(ctx context.Context, userID string) error {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}
	if profile == nil {
		return ErrProfileNotFound
	}
	if profile.PDFURL == nil {
		return ErrNoDocument
	}

	if key, ok := ownedKey(s.store, userID, *profile.PDFURL); ok {
		if err := s.store.Delete(ctx, key); err != nil {
			return storageFailure(userID, err)
		}
	} else {
		logger.Warn("document not owned by user, object kept", "module", "service", "action", "delete", "resource", "document", "result", "skipped", "user_id", userID)
	}
	if err := s.profiles.UpdatePDFURL(ctx, userID, nil); err != nil {
		return fmt.Errorf("clear profile document: %w", err)
	}
	if _, err := s.uploads.CloseActive(ctx, userID, model.UploadStatusDeleted); err != nil {
		logger.Warn("close uploads", "module", "service", "action", "delete", "resource", "upload", "result", "failed", "user_id", userID, "error", err)
	}

	logger.Info("document deleted", "module", "service", "action", "delete", "resource", "document", "result", "ok", "user_id", userID)
	return nil
}

func (s *uploadService) Info() storage.Info {
	return s.store.Info()
}

func (s *uploadService) MaxBytes() int64 {
	return s.maxBytes
}

// deleteObject removes the previous document unless the new one overwrites it.
func (s *uploadService) deleteObject(ctx context.Context, userID, previousURL, nextKey string) {
	key, ok := ownedKey(s.store, userID, previousURL)
	if !ok || key == nextKey {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		logger.Warn("delete previous document", "module", "service", "action", "delete", "resource", "document", "result", "failed",
			"user_id", userID, "key", key, "error", err)
	}
}

// ownedKey maps a document URL to its object key when the key lives under userID.
func ownedKey(store storage.ObjectStore, userID, docURL string) (string, bool) {
	key, ok := store.KeyFromURL(docURL)
	if !ok || userID == "" || !strings.HasPrefix(key, userID+"/") || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}

func storageFailure(userID string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, storage.ErrBucketNotFound):
		logger.Error("object store", "module", "service", "action", "put", "resource", "document", "result", "failed", "user_id", userID, "error", err)
		return fmt.Errorf("%w: %w", ErrBucketNotFound, err)
	case errors.Is(err, storage.ErrAccessDenied):
		logger.Error("object store", "module", "service", "action", "put", "resource", "document", "result", "failed", "user_id", userID, "error", err)
		return fmt.Errorf("%w: %w", ErrStorageAccessDenied, err)
	}
	logger.Error("object store", "module", "service", "action", "put", "resource", "document", "result", "failed", "user_id", userID, "error", err)
	return fmt.Errorf("%w: %w", ErrUploadFailed, err)
}

func normalizeMIME(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if i := strings.IndexByte(value, ';'); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}
	if value == "image/jpg" {
		return "image/jpeg"
	}
	return value
}
