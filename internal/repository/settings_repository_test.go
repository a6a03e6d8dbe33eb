package repository_test

import (
	"context"
	"testing"

	"github.com/arunprabus/health-api/internal/repository"
	"github.com/arunprabus/health-api/internal/repository/testutil"

	"github.com/stretchr/testify/require"
)

func TestSettingsRepository_Set_Insert(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDB(t)
	repo := repository.NewSettingsRepository(db)
	ctx := context.Background()

	err := repo.Set(ctx, "test.key", "test value")
	require.NoError(t, err)

	setting, err := repo.Get(ctx, "test.key")
	require.NoError(t, err)
	require.NotNil(t, setting)
	require.Equal(t, "test.key", setting.Key)
	require.Equal(t, "test value", setting.Value)
	require.False(t, setting.UpdatedAt.IsZero())
}

func TestSettingsRepository_Set_Update(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDB(t)
	repo := repository.NewSettingsRepository(db)
	ctx := context.Background()

	testutil.SeedSetting(t, db, "test.key", "initial value")

	err := repo.Set(ctx, "test.key", "updated value")
	require.NoError(t, err)

	setting, err := repo.Get(ctx, "test.key")
	require.NoError(t, err)
	require.Equal(t, "updated value", setting.Value)
}

func TestSettingsRepository_Get_NotFound(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDB(t)
	repo := repository.NewSettingsRepository(db)

	setting, err := repo.Get(context.Background(), "nonexistent.key")
	require.NoError(t, err)
	require.Nil(t, setting)
}

func TestSettingsRepository_SetIfAbsent(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDB(t)
	repo := repository.NewSettingsRepository(db)
	ctx := context.Background()

	stored, err := repo.SetIfAbsent(ctx, "auth.jwt_secret", "first")
	require.NoError(t, err)
	require.Equal(t, "first", stored)

	stored, err = repo.SetIfAbsent(ctx, "auth.jwt_secret", "second")
	require.NoError(t, err)
	require.Equal(t, "first", stored, "existing value wins")
}

func TestSettingsRepository_Delete_Success(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDB(t)
	repo := repository.NewSettingsRepository(db)
	ctx := context.Background()

	testutil.SeedSetting(t, db, "test.key", "test value")

	err := repo.Delete(ctx, "test.key")
	require.NoError(t, err)

	setting, err := repo.Get(ctx, "test.key")
	require.NoError(t, err)
	require.Nil(t, setting)
}
