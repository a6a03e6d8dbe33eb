package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arunprabus/health-api/internal/model"
	"github.com/arunprabus/health-api/internal/repository"
	"github.com/arunprabus/health-api/internal/repository/testutil"
)

func newUpload(userID, name string) model.Upload {
	return model.Upload{
		UserID:           userID,
		OriginalFilename: name,
		ObjectKey:        userID + "/document.pdf",
		URL:              "https://bucket.s3.ap-south-1.amazonaws.com/" + userID + "/document.pdf",
		Size:             1024,
		MimeType:         "application/pdf",
		Checksum:         "abc",
	}
}

func TestUploadRepository_CreateAndList(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDB(t)
	repo := repository.NewUploadRepository(db)
	ctx := context.Background()

	testutil.SeedUser(t, db, "u1", "a@example.com")
	testutil.SeedUser(t, db, "u2", "b@example.com")

	first, err := repo.Create(ctx, newUpload("u1", "first.pdf"))
	require.NoError(t, err)
	require.NotZero(t, first.ID)
	require.Equal(t, model.UploadStatusActive, first.Status)

	second, err := repo.Create(ctx, newUpload("u1", "second.pdf"))
	require.NoError(t, err)
	require.Greater(t, second.ID, first.ID)

	_, err = repo.Create(ctx, newUpload("u2", "other.pdf"))
	require.NoError(t, err)

	list, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "second.pdf", list[0].OriginalFilename)
	require.Equal(t, "first.pdf", list[1].OriginalFilename)
	require.Nil(t, list[0].DeletedAt)
}

func TestUploadRepository_ListByUser_Empty(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDB(t)
	repo := repository.NewUploadRepository(db)

	list, err := repo.ListByUser(context.Background(), "nobody")
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)
}

func TestUploadRepository_Create_UnknownUser(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDB(t)
	repo := repository.NewUploadRepository(db)

	_, err := repo.Create(context.Background(), newUpload("ghost", "a.pdf"))
	require.ErrorIs(t, err, repository.ErrMissingParent)
}

func TestUploadRepository_CloseActive(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDB(t)
	repo := repository.NewUploadRepository(db)
	ctx := context.Background()

	testutil.SeedUser(t, db, "u1", "a@example.com")
	_, err := repo.Create(ctx, newUpload("u1", "a.pdf"))
	require.NoError(t, err)

	n, err := repo.CloseActive(ctx, "u1", model.UploadStatusReplaced)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = repo.CloseActive(ctx, "u1", model.UploadStatusDeleted)
	require.NoError(t, err)
	require.Zero(t, n, "only active uploads are closed")

	list, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, model.UploadStatusReplaced, list[0].Status)
	require.NotNil(t, list[0].DeletedAt)
}
