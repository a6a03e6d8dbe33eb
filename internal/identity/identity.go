//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock

// Package identity talks to the managed identity provider (Amazon Cognito):
// signup, confirmation and password login, plus verification of the access
// tokens it issues.
package identity

import (
	"context"
	"errors"
)

var (
	// ErrRejected marks errors where the provider refused the request; the message is user-facing.
	ErrRejected = errors.New("identity provider rejected request")
	// ErrUnavailable marks transport or throttling failures talking to the provider.
	ErrUnavailable    = errors.New("identity provider unavailable")
	ErrChallenge      = errors.New("additional authentication challenge required")
	ErrInvalidToken   = errors.New("invalid token")
	ErrUnknownKey     = errors.New("unknown signing key")
	ErrKeySetFetch    = errors.New("fetch signing keys")
	ErrMalformedToken = errors.New("malformed id token")
)

// UserInfo is what the provider tells us about a user after login.
type UserInfo struct {
	Sub      string
	Email    string
	Username string
}

type Session struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	ExpiresIn    int32
	User         UserInfo
}

// Provider is the managed identity provider as the service layer sees it.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (string, error)
	ConfirmSignUp(ctx context.Context, email, code string) error
	Login(ctx context.Context, email, password string) (*Session, error)
}

// TokenVerifier validates provider-issued access tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*AccessClaims, error)
}

// ProviderError carries the provider's own error code and message.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func (e *ProviderError) Unwrap() error {
	return ErrRejected
}
