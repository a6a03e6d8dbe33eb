//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/arunprabus/health-api/internal/model"
)

type UserRepository interface {
	// CreateWithProfile inserts the user and its initial profile in one transaction.
	CreateWithProfile(ctx context.Context, user model.User, profile model.Profile) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// Upsert inserts or refreshes a user mirrored from the identity provider.
	Upsert(ctx context.Context, user model.User) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, username, password_hash, provider, created_at, updated_at`

func (r *userRepository) CreateWithProfile(ctx context.Context, user model.User, profile model.Profile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertUser(ctx, tx, user); err != nil {
		return err
	}
	if err := insertProfile(ctx, tx, profile); err != nil {
		return err
	}
	return tx.Commit()
}

func insertUser(ctx context.Context, q dbtx, user model.User) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO users (id, email, username, password_hash, provider, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.Email, nullableString(user.Username), nullableString(user.PasswordHash),
		user.Provider, formatTime(user.CreatedAt), formatTime(user.UpdatedAt))
	return translateError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email)
	return scanUser(row)
}

func (r *userRepository) Upsert(ctx context.Context, user model.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, username, password_hash, provider, created_at, updated_at)
		VALUES (?, ?, ?, NULL, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			username = COALESCE(excluded.username, users.username),
			provider = excluded.provider,
			updated_at = excluded.updated_at
	`, user.ID, user.Email, nullableString(user.Username), user.Provider,
		formatTime(user.CreatedAt), formatTime(user.UpdatedAt))
	return translateError(err)
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	var username, passwordHash sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(&u.ID, &u.Email, &username, &passwordHash, &u.Provider, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Username = stringPtr(username)
	u.PasswordHash = stringPtr(passwordHash)
	u.CreatedAt, _ = parseTime(createdAt)
	u.UpdatedAt, _ = parseTime(updatedAt)
	return &u, nil
}
