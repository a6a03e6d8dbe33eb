package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/arunprabus/health-api/internal/identity"
	idmock "github.com/arunprabus/health-api/internal/identity/mock"
	"github.com/arunprabus/health-api/internal/model"
	repomock "github.com/arunprabus/health-api/internal/repository/mock"
	"github.com/arunprabus/health-api/internal/service"
)

type cognitoFixture struct {
	provider *idmock.MockProvider
	verifier *idmock.MockTokenVerifier
	users    *repomock.MockUserRepository
	svc      service.CognitoAuthService
}

func newCognitoFixture(t *testing.T) cognitoFixture {
	ctrl := gomock.NewController(t)
	f := cognitoFixture{
		provider: idmock.NewMockProvider(ctrl),
		verifier: idmock.NewMockTokenVerifier(ctrl),
		users:    repomock.NewMockUserRepository(ctrl),
	}
	f.svc = service.NewCognitoAuthService(f.provider, f.verifier, f.users)
	return f
}

func TestCognitoAuthService_Signup_MirrorsUser(t *testing.T) {
	f := newCognitoFixture(t)
	ctx := context.Background()

	f.provider.EXPECT().SignUp(ctx, "ivy@example.com", "password123").Return("sub-1", nil)
	f.users.EXPECT().Upsert(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, u model.User) error {
		require.Equal(t, "sub-1", u.ID)
		require.Equal(t, "ivy@example.com", u.Email)
		require.Equal(t, model.ProviderCognito, u.Provider)
		return nil
	})

	sub, err := f.svc.Signup(ctx, "Ivy@Example.com", "password123")
	require.NoError(t, err)
	require.Equal(t, "sub-1", sub)
}

func TestCognitoAuthService_Signup_MirrorFailureIgnored(t *testing.T) {
	f := newCognitoFixture(t)
	ctx := context.Background()

	f.provider.EXPECT().SignUp(ctx, "ivy@example.com", "password123").Return("sub-1", nil)
	f.users.EXPECT().Upsert(ctx, gomock.Any()).Return(errors.New("database is locked"))

	sub, err := f.svc.Signup(ctx, "ivy@example.com", "password123")
	require.NoError(t, err)
	require.Equal(t, "sub-1", sub)
}

func TestCognitoAuthService_Signup_ProviderErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		kind    error
		message string
	}{
		{
			name:    "rejected",
			err:     &identity.ProviderError{Code: "UsernameExistsException", Message: "An account with the given email already exists."},
			kind:    service.ErrInvalid,
			message: "An account with the given email already exists.",
		},
		{
			name:    "unavailable",
			err:     fmt.Errorf("%w: connection reset", identity.ErrUnavailable),
			kind:    service.ErrUpstream,
			message: "Identity provider unavailable. Please try again.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newCognitoFixture(t)
			f.provider.EXPECT().SignUp(gomock.Any(), "ivy@example.com", "password123").Return("", tc.err)

			_, err := f.svc.Signup(context.Background(), "ivy@example.com", "password123")
			require.ErrorIs(t, err, tc.kind)

			var svcErr *service.Error
			require.True(t, errors.As(err, &svcErr))
			require.Equal(t, tc.message, svcErr.Message)
		})
	}
}

func TestCognitoAuthService_Signup_ValidatesBeforeCallingProvider(t *testing.T) {
	f := newCognitoFixture(t)

	_, err := f.svc.Signup(context.Background(), "ivy@example.com", "short")
	require.ErrorIs(t, err, service.ErrInvalid)
}

func TestCognitoAuthService_Confirm(t *testing.T) {
	f := newCognitoFixture(t)
	ctx := context.Background()

	f.provider.EXPECT().ConfirmSignUp(ctx, "ivy@example.com", "123456").Return(nil)
	require.NoError(t, f.svc.Confirm(ctx, " IVY@example.com", " 123456 "))

	err := f.svc.Confirm(ctx, "ivy@example.com", "")
	var vErr *service.ValidationError
	require.True(t, errors.As(err, &vErr))
	require.Equal(t, "code", vErr.Field)

	f.provider.EXPECT().ConfirmSignUp(ctx, "ivy@example.com", "000000").
		Return(&identity.ProviderError{Code: "CodeMismatchException", Message: "Invalid verification code provided, please try again."})
	err = f.svc.Confirm(ctx, "ivy@example.com", "000000")
	require.ErrorIs(t, err, service.ErrInvalid)
	require.Equal(t, "Invalid verification code provided, please try again.", err.Error())
}

func TestCognitoAuthService_Login(t *testing.T) {
	f := newCognitoFixture(t)
	ctx := context.Background()

	session := &identity.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		IDToken:      "id",
		User:         identity.UserInfo{Sub: "sub-2", Email: "Jay@example.com", Username: "jay"},
	}
	f.provider.EXPECT().Login(ctx, "jay@example.com", "password123").Return(session, nil)
	f.users.EXPECT().Upsert(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, u model.User) error {
		require.Equal(t, "sub-2", u.ID)
		require.Equal(t, "jay@example.com", u.Email)
		require.NotNil(t, u.Username)
		require.Equal(t, "jay", *u.Username)
		return nil
	})

	got, err := f.svc.Login(ctx, "jay@example.com", "password123")
	require.NoError(t, err)
	require.Equal(t, "access", got.AccessToken)
	require.Equal(t, "sub-2", got.User.Sub)
}

func TestCognitoAuthService_Login_Failures(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		kind    error
		message string
	}{
		{
			name:    "not authorized",
			err:     &identity.ProviderError{Code: "NotAuthorizedException", Message: "Incorrect username or password."},
			kind:    service.ErrUnauthorized,
			message: "Incorrect username or password.",
		},
		{
			name:    "challenge",
			err:     fmt.Errorf("%w: NEW_PASSWORD_REQUIRED", identity.ErrChallenge),
			kind:    service.ErrUnauthorized,
			message: "Additional authentication challenge required",
		},
		{
			name:    "throttled",
			err:     fmt.Errorf("%w: rate limit", identity.ErrUnavailable),
			kind:    service.ErrUpstream,
			message: "Identity provider unavailable. Please try again.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newCognitoFixture(t)
			f.provider.EXPECT().Login(gomock.Any(), "jay@example.com", "password123").Return(nil, tc.err)

			_, err := f.svc.Login(context.Background(), "jay@example.com", "password123")
			require.ErrorIs(t, err, tc.kind)
			var svcErr *service.Error
			require.True(t, errors.As(err, &svcErr))
			require.Equal(t, tc.message, svcErr.Message)
		})
	}
}

func TestCognitoAuthService_Login_ContextCancelled(t *testing.T) {
	f := newCognitoFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.provider.EXPECT().Login(ctx, "jay@example.com", "password123").Return(nil, context.Canceled)

	_, err := f.svc.Login(ctx, "jay@example.com", "password123")
	require.ErrorIs(t, err, context.Canceled)
}

func TestCognitoAuthService_Authenticate(t *testing.T) {
	f := newCognitoFixture(t)
	ctx := context.Background()

	claims := &identity.AccessClaims{
		TokenUse:         "access",
		Username:         "kim",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "sub-3"},
	}
	f.verifier.EXPECT().Verify(ctx, "good").Return(claims, nil)
	f.users.EXPECT().GetByID(ctx, "sub-3").Return(&model.User{ID: "sub-3", Email: "kim@example.com"}, nil)

	principal, err := f.svc.Authenticate(ctx, "good")
	require.NoError(t, err)
	require.Equal(t, &model.Principal{ID: "sub-3", Email: "kim@example.com", Username: "kim", Provider: model.ProviderCognito}, principal)
}

func TestCognitoAuthService_Authenticate_UnmirroredUser(t *testing.T) {
	f := newCognitoFixture(t)
	ctx := context.Background()

	claims := &identity.AccessClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "sub-4"}}
	f.verifier.EXPECT().Verify(ctx, "good").Return(claims, nil)
	f.users.EXPECT().GetByID(ctx, "sub-4").Return(nil, nil)

	principal, err := f.svc.Authenticate(ctx, "good")
	require.NoError(t, err)
	require.Equal(t, "sub-4", principal.ID)
	require.Empty(t, principal.Email)
}

func TestCognitoAuthService_Authenticate_Errors(t *testing.T) {
	f := newCognitoFixture(t)
	ctx := context.Background()

	f.verifier.EXPECT().Verify(ctx, "bad").Return(nil, fmt.Errorf("%w: token is expired", identity.ErrInvalidToken))
	_, err := f.svc.Authenticate(ctx, "bad")
	require.ErrorIs(t, err, service.ErrInvalidToken)

	f.verifier.EXPECT().Verify(ctx, "unlucky").
		Return(nil, fmt.Errorf("%w: %w", identity.ErrInvalidToken, identity.ErrKeySetFetch))
	_, err = f.svc.Authenticate(ctx, "unlucky")
	require.ErrorIs(t, err, service.ErrUpstream)
	require.False(t, errors.Is(err, service.ErrInvalidToken))
}
