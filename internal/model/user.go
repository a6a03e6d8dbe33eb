package model

import "time"

const (
	ProviderLocal   = "local"
	ProviderCognito = "cognito"
)

// User is an account known to the API, either registered locally or mirrored
// from the identity provider after a successful signup or login.
type User struct {
	ID           string
	Email        string
	Username     *string
	PasswordHash *string
	Provider     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	ID       string
	Email    string
	Username string
	Provider string
}
