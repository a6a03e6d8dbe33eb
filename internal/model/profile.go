package model

import "time"

// Profile is keyed by the owning user's ID.
type Profile struct {
	ID                string
	Name              string
	BloodGroup        string
	InsuranceProvider *string
	InsuranceNumber   *string
	PDFURL            *string
	Notes             *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
