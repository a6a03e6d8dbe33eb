//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock
package repository

import (
	"context"
	"database/sql"
)

type HealthRepository interface {
	// DatabaseTime asks the database for its current time, proving a round trip works.
	DatabaseTime(ctx context.Context) (string, error)
}

type healthRepository struct {
	db *sql.DB
}

func NewHealthRepository(db *sql.DB) HealthRepository {
	return &healthRepository{db: db}
}

func (r *healthRepository) DatabaseTime(ctx context.Context) (string, error) {
	var now string
	err := r.db.QueryRowContext(ctx, `SELECT strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`).Scan(&now)
	return now, err
}
