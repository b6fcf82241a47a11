package storage_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvgportal/internal/config"
	"kvgportal/internal/storage"
	"kvgportal/internal/storage/mocks"
)

func TestReadAll(t *testing.T) {
	ctx := context.Background()
	m := new(mocks.MockStorage)
	m.On("Get", ctx, "applicants/a/front.png").
		Return(io.NopCloser(strings.NewReader("payload")), storage.ObjectInfo{Key: "applicants/a/front.png", Size: 7}, nil)

	data, info, err := storage.ReadAll(ctx, m, "applicants/a/front.png")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.Equal(t, int64(7), info.Size)
	m.AssertExpectations(t)
}

func TestReadAll_GetError(t *testing.T) {
	ctx := context.Background()
	m := new(mocks.MockStorage)
	m.On("Get", ctx, "missing").Return(nil, storage.ObjectInfo{}, storage.ErrObjectNotFound)

	_, _, err := storage.ReadAll(ctx, m, "missing")
	assert.True(t, errors.Is(err, storage.ErrObjectNotFound))
}

func TestNewMinIO_Validation(t *testing.T) {
	_, err := storage.NewMinIO(context.Background(), config.MinIOConfig{})
	assert.ErrorContains(t, err, "endpoint")

	_, err = storage.NewMinIO(context.Background(), config.MinIOConfig{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "credentials")

	_, err = storage.NewMinIO(context.Background(), config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.ErrorContains(t, err, "bucket")
}
