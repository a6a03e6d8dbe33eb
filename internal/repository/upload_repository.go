//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/arunprabus/health-api/internal/model"
	"github.com/arunprabus/health-api/pkg/snowflake"
)

type UploadRepository interface {
	Create(ctx context.Context, upload model.Upload) (*model.Upload, error)
	ListByUser(ctx context.Context, userID string) ([]model.Upload, error)
	// CloseActive moves the user's active uploads to status and stamps deleted_at.
	CloseActive(ctx context.Context, userID, status string) (int64, error)
}

type uploadRepository struct {
	db *sql.DB
}

func NewUploadRepository(db *sql.DB) UploadRepository {
	return &uploadRepository{db: db}
}

func (r *uploadRepository) Create(ctx context.Context, upload model.Upload) (*model.Upload, error) {
	upload.ID = snowflake.NextID()
	now := time.Now().UTC()
	upload.CreatedAt = now
	upload.UpdatedAt = now
	if upload.Status == "" {
		upload.Status = model.UploadStatusActive
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO uploads (id, user_id, original_filename, object_key, url, size, mime_type, checksum, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, upload.ID, upload.UserID, upload.OriginalFilename, upload.ObjectKey, upload.URL, upload.Size,
		upload.MimeType, upload.Checksum, upload.Status, formatTime(now), formatTime(now))
	if err != nil {
		return nil, translateError(err)
	}
	return &upload, nil
}

// ListByUser returns the user's uploads, newest first.
func (r *uploadRepository) ListByUser(ctx context.Context, userID string) ([]model.Upload, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, original_filename, object_key, url, size, mime_type, checksum, status, created_at, updated_at, deleted_at
		FROM uploads WHERE user_id = ? ORDER BY id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	uploads := make([]model.Upload, 0)
	for rows.Next() {
		var u model.Upload
		var createdAt, updatedAt string
		var deletedAt sql.NullString
		if err := rows.Scan(&u.ID, &u.UserID, &u.OriginalFilename, &u.ObjectKey, &u.URL, &u.Size,
			&u.MimeType, &u.Checksum, &u.Status, &createdAt, &updatedAt, &deletedAt); err != nil {
			return nil, err
		}
		u.CreatedAt, _ = parseTime(createdAt)
		u.UpdatedAt, _ = parseTime(updatedAt)
		if deletedAt.Valid {
			if t, err := parseTime(deletedAt.String); err == nil {
				u.DeletedAt = &t
			}
		}
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

func (r *uploadRepository) CloseActive(ctx context.Context, userID, status string) (int64, error) {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
		UPDATE uploads SET status = ?, updated_at = ?, deleted_at = ?
		WHERE user_id = ? AND status = ?
	`, status, formatTime(now), nullableTime(&now), userID, model.UploadStatusActive)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
