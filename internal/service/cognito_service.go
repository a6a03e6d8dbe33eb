//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arunprabus/health-api/internal/identity"
	"github.com/arunprabus/health-api/internal/model"
	"github.com/arunprabus/health-api/internal/repository"
	"github.com/arunprabus/health-api/pkg/logger"
)

// CognitoAuthService fronts the managed identity provider and mirrors its users locally.
type CognitoAuthService interface {
	Authenticator
	Signup(ctx context.Context, email, password string) (string, error)
	Confirm(ctx context.Context, email, code string) error
	Login(ctx context.Context, email, password string) (*identity.Session, error)
}

type cognitoAuthService struct {
	provider identity.Provider
	verifier identity.TokenVerifier
	users    repository.UserRepository
}

func NewCognitoAuthService(provider identity.Provider, verifier identity.TokenVerifier, users repository.UserRepository) CognitoAuthService {
	return &cognitoAuthService{provider: provider, verifier: verifier, users: users}
}

func (s *cognitoAuthService) Signup(ctx context.Context, email, password string) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", err
	}
	if err := validatePassword(password); err != nil {
		return "", err
	}

	sub, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return "", providerFailure(ErrInvalid, err)
	}
	s.mirror(ctx, identity.UserInfo{Sub: sub, Email: email})
	return sub, nil
}

func (s *cognitoAuthService) Confirm(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)
	if email == "" {
		return fieldRequired("email")
	}
	if code == "" {
		return fieldRequired("code")
	}
	if err := s.provider.ConfirmSignUp(ctx, email, code); err != nil {
		return providerFailure(ErrInvalid, err)
	}
	return nil
}

func (s *cognitoAuthService) Login(ctx context.Context, email, password string) (*identity.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	session, err := s.provider.Login(ctx, email, password)
	if err != nil {
		return nil, providerFailure(ErrUnauthorized, err)
	}
	if session.User.Email == "" {
		session.User.Email = email
	}
	s.mirror(ctx, session.User)
	return session, nil
}

func (s *cognitoAuthService) Authenticate(ctx context.Context, token string) (*model.Principal, error) {
	claims, err := s.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, identity.ErrKeySetFetch) {
			logger.Error("verify access token", "module", "service", "action", "verify", "resource", "token", "result", "failed", "error", err)
			return nil, fmt.Errorf("%w: %w", ErrIdentityUnavailable, err)
		}
		return nil, ErrInvalidToken
	}

	principal := &model.Principal{ID: claims.Subject, Username: claims.Username, Provider: model.ProviderCognito}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		logger.Warn("load mirrored user", "module", "service", "action", "get", "resource", "user", "result", "failed", "user_id", claims.Subject, "error", err)
	} else if user != nil {
		principal.Email = user.Email
	}
	return principal, nil
}

// mirror keeps a local users row for provider accounts. Failures never fail the caller.
func (s *cognitoAuthService) mirror(ctx context.Context, info identity.UserInfo) {
	if info.Sub == "" || info.Email == "" {
		return
	}
	user := model.User{ID: info.Sub, Email: strings.ToLower(info.Email), Provider: model.ProviderCognito}
	if info.Username != "" {
		username := info.Username
		user.Username = &username
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		logger.Warn("mirror identity user", "module", "service", "action", "upsert", "resource", "user", "result", "failed", "user_id", info.Sub, "error", err)
	}
}

// providerFailure turns identity errors into client-facing ones. Provider
// rejections keep the provider's message.
func providerFailure(kind error, err error) error {
	var pe *identity.ProviderError
	switch {
	case errors.As(err, &pe):
		return &Error{Kind: kind, Message: pe.Error()}
	case errors.Is(err, identity.ErrChallenge):
		return &Error{Kind: ErrUnauthorized, Message: "Additional authentication challenge required"}
	case errors.Is(err, identity.ErrMalformedToken):
		return fmt.Errorf("%w: %w", ErrIdentityUnavailable, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrIdentityUnavailable, err)
	}
}
