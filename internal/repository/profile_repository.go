//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/arunprabus/health-api/internal/model"
)

type ProfileRepository interface {
	Create(ctx context.Context, profile model.Profile) error
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	Update(ctx context.Context, profile model.Profile) error
	UpdatePDFURL(ctx context.Context, id string, url *string) error
	Delete(ctx context.Context, id string) error
}

type profileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) ProfileRepository {
	return &profileRepository{db: db}
}

const profileColumns = `id, name, blood_group, insurance_provider, insurance_number, pdf_url, notes, created_at, updated_at`

// Create returns ErrDuplicate when the profile exists and ErrMissingParent when the user does not.
func (r *profileRepository) Create(ctx context.Context, profile model.Profile) error {
	return insertProfile(ctx, r.db, profile)
}

func insertProfile(ctx context.Context, q dbtx, p model.Profile) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.BloodGroup, nullableString(p.InsuranceProvider), nullableString(p.InsuranceNumber),
		nullableString(p.PDFURL), nullableString(p.Notes), formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	return translateError(err)
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)

	var p model.Profile
	var insuranceProvider, insuranceNumber, pdfURL, notes sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(&p.ID, &p.Name, &p.BloodGroup, &insuranceProvider, &insuranceNumber, &pdfURL, &notes, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.InsuranceProvider = stringPtr(insuranceProvider)
	p.InsuranceNumber = stringPtr(insuranceNumber)
	p.PDFURL = stringPtr(pdfURL)
	p.Notes = stringPtr(notes)
	p.CreatedAt, _ = parseTime(createdAt)
	p.UpdatedAt, _ = parseTime(updatedAt)
	return &p, nil
}

// Update overwrites every mutable column and returns sql.ErrNoRows if the profile does not exist.
func (r *profileRepository) Update(ctx context.Context, p model.Profile) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET name = ?, blood_group = ?, insurance_provider = ?, insurance_number = ?, pdf_url = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, p.BloodGroup, nullableString(p.InsuranceProvider), nullableString(p.InsuranceNumber),
		nullableString(p.PDFURL), nullableString(p.Notes), formatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *profileRepository) UpdatePDFURL(ctx context.Context, id string, url *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE profiles SET pdf_url = ?, updated_at = ? WHERE id = ?`,
		nullableString(url), formatTime(time.Now()), id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *profileRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}
