package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/arunprabus/health-api/internal/model"
	"github.com/arunprabus/health-api/internal/service"
	"github.com/arunprabus/health-api/internal/service/mock"
)

func TestChainAuthenticator_FallsThroughInvalidTokens(t *testing.T) {
	ctrl := gomock.NewController(t)
	local := mock.NewMockAuthenticator(ctrl)
	remote := mock.NewMockAuthenticator(ctrl)
	ctx := context.Background()

	local.EXPECT().Authenticate(ctx, "tok").Return(nil, service.ErrInvalidToken)
	remote.EXPECT().Authenticate(ctx, "tok").Return(&model.Principal{ID: "sub-1"}, nil)

	principal, err := service.NewChainAuthenticator(local, remote).Authenticate(ctx, "tok")
	require.NoError(t, err)
	require.Equal(t, "sub-1", principal.ID)
}

func TestChainAuthenticator_FirstMatchWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	local := mock.NewMockAuthenticator(ctrl)
	remote := mock.NewMockAuthenticator(ctrl)
	ctx := context.Background()

	local.EXPECT().Authenticate(ctx, "tok").Return(&model.Principal{ID: "user-1"}, nil)

	principal, err := service.NewChainAuthenticator(local, remote).Authenticate(ctx, "tok")
	require.NoError(t, err)
	require.Equal(t, "user-1", principal.ID)
}

func TestChainAuthenticator_AllInvalid(t *testing.T) {
	ctrl := gomock.NewController(t)
	local := mock.NewMockAuthenticator(ctrl)
	ctx := context.Background()

	local.EXPECT().Authenticate(ctx, "tok").Return(nil, service.ErrInvalidToken)

	_, err := service.NewChainAuthenticator(local, nil).Authenticate(ctx, "tok")
	require.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestChainAuthenticator_ReportsUpstreamFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	local := mock.NewMockAuthenticator(ctrl)
	remote := mock.NewMockAuthenticator(ctrl)
	ctx := context.Background()

	upstream := errors.Join(service.ErrIdentityUnavailable, errors.New("jwks 503"))
	local.EXPECT().Authenticate(ctx, "tok").Return(nil, service.ErrInvalidToken)
	remote.EXPECT().Authenticate(ctx, "tok").Return(nil, upstream)

	_, err := service.NewChainAuthenticator(local, remote).Authenticate(ctx, "tok")
	require.ErrorIs(t, err, service.ErrUpstream)
}

func TestChainAuthenticator_EmptyToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	local := mock.NewMockAuthenticator(ctrl)

	_, err := service.NewChainAuthenticator(local).Authenticate(context.Background(), "")
	require.ErrorIs(t, err, service.ErrInvalidToken)
}
