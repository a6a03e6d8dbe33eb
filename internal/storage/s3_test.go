package storage_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"

	"github.com/arunprabus/health-api/internal/storage"
)

type fakeS3 struct {
	put       *s3.PutObjectInput
	putBody   string
	deleted   []string
	putErr    error
	deleteErr error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.put = in
	body, _ := io.ReadAll(in.Body)
	f.putBody = string(body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store_Put(t *testing.T) {
	client := &fakeS3{}
	store := storage.NewS3Store(client, "health-docs", "ap-south-1")

	url, err := store.Put(context.Background(), "u1/document.pdf", strings.NewReader("%PDF-1.4"), 8, "application/pdf")
	require.NoError(t, err)
	require.Equal(t, "https://health-docs.s3.ap-south-1.amazonaws.com/u1/document.pdf", url)

	require.NotNil(t, client.put)
	require.Equal(t, "health-docs", aws.ToString(client.put.Bucket))
	require.Equal(t, "u1/document.pdf", aws.ToString(client.put.Key))
	require.Equal(t, "application/pdf", aws.ToString(client.put.ContentType))
	require.Equal(t, int64(8), aws.ToInt64(client.put.ContentLength))
	require.Equal(t, types.ServerSideEncryptionAes256, client.put.ServerSideEncryption)
	require.Equal(t, "%PDF-1.4", client.putBody)
}

func TestS3Store_Put_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{code: "NoSuchBucket", want: storage.ErrBucketNotFound},
		{code: "AccessDenied", want: storage.ErrAccessDenied},
	}
	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			client := &fakeS3{putErr: &smithy.GenericAPIError{Code: tc.code, Message: "nope"}}
			store := storage.NewS3Store(client, "b", "r")

			_, err := store.Put(context.Background(), "u1/document.pdf", strings.NewReader("x"), 1, "application/pdf")
			require.ErrorIs(t, err, tc.want)
		})
	}

	client := &fakeS3{putErr: errors.New("network down")}
	store := storage.NewS3Store(client, "b", "r")
	_, err := store.Put(context.Background(), "u1/document.pdf", strings.NewReader("x"), 1, "application/pdf")
	require.Error(t, err)
	require.NotErrorIs(t, err, storage.ErrBucketNotFound)
	require.NotErrorIs(t, err, storage.ErrAccessDenied)
}

func TestS3Store_RejectsBadKeys(t *testing.T) {
	store := storage.NewS3Store(&fakeS3{}, "b", "r")
	for _, key := range []string{"", "/abs", "u1/../u2/document.pdf"} {
		_, err := store.Put(context.Background(), key, strings.NewReader("x"), 1, "application/pdf")
		require.ErrorIs(t, err, storage.ErrInvalidKey, key)
		require.ErrorIs(t, store.Delete(context.Background(), key), storage.ErrInvalidKey, key)
	}
}

func TestS3Store_Delete(t *testing.T) {
	client := &fakeS3{}
	store := storage.NewS3Store(client, "b", "r")

	require.NoError(t, store.Delete(context.Background(), "u1/document.png"))
	require.Equal(t, []string{"u1/document.png"}, client.deleted)

	client.deleteErr = errors.New("boom")
	require.Error(t, store.Delete(context.Background(), "u1/document.png"))
}

func TestS3Store_KeyFromURL(t *testing.T) {
	store := storage.NewS3Store(&fakeS3{}, "health-docs", "ap-south-1")

	tests := []struct {
		url    string
		key    string
		wantOK bool
	}{
		{url: "https://health-docs.s3.ap-south-1.amazonaws.com/u1/document.pdf", key: "u1/document.pdf", wantOK: true},
		{url: "https://old-bucket.s3.us-east-1.amazonaws.com/u1/document.jpg", wantOK: false},
		{url: "https://health-docs.s3.eu-west-1.amazonaws.com/u1/document.jpg", wantOK: false},
		{url: "https://evil.example.com/health-docs.s3.ap-south-1.amazonaws.com/u1/document.pdf", wantOK: false},
		{url: "https://example.com/placeholder.pdf", wantOK: false},
		{url: "https://health-docs.s3.ap-south-1.amazonaws.com/", wantOK: false},
		{url: "", wantOK: false},
	}
	for _, tc := range tests {
		key, ok := store.KeyFromURL(tc.url)
		require.Equal(t, tc.wantOK, ok, tc.url)
		require.Equal(t, tc.key, key, tc.url)
	}
}

func TestS3Store_Info(t *testing.T) {
	info := storage.NewS3Store(&fakeS3{}, "health-docs", "ap-south-1").Info()
	require.Equal(t, storage.Info{Backend: "s3", Bucket: "health-docs", Region: "ap-south-1"}, info)
}
