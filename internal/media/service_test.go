package media

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Efi-kline/my-phone-shop/pkg/config"
	pkgerrors "github.com/Efi-kline/my-phone-shop/pkg/errors"
)

type fakeUploader struct {
	keys []string
}

func (f *fakeUploader) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	f.keys = append(f.keys, key)
	return f.PublicURL(key), nil
}

func (f *fakeUploader) PublicURL(key string) string {
	return "https://storage.googleapis.com/phone-images/" + key
}

type allowAllChecker struct{}

func (allowAllChecker) RequireAdmin(ctx context.Context, profileID uuid.UUID) error { return nil }

type denyAllChecker struct{}

func (denyAllChecker) RequireAdmin(ctx context.Context, profileID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
}

func TestUploadProductImage(t *testing.T) {
	cfg := config.MediaConfig{MaxUploadMB: 10}

	validInput := func() UploadInput {
		return UploadInput{
			ContentType: "image/png",
			SizeBytes:   2048,
			Body:        strings.NewReader(strings.Repeat("x", 2048)),
		}
	}

	t.Run("stores the image under a fresh key", func(t *testing.T) {
		uploader := &fakeUploader{}
		svc, err := NewService(uploader, allowAllChecker{}, cfg)
		require.NoError(t, err)

		result, err := svc.UploadProductImage(context.Background(), uuid.New(), validInput())
		require.NoError(t, err)
		assert.Regexp(t, `^phones/[0-9a-f-]{36}\.png$`, result.Key)
		assert.Equal(t, "https://storage.googleapis.com/phone-images/"+result.Key, result.PublicURL)
		require.Len(t, uploader.keys, 1)
	})

	t.Run("content type parameters are tolerated", func(t *testing.T) {
		uploader := &fakeUploader{}
		svc, err := NewService(uploader, allowAllChecker{}, cfg)
		require.NoError(t, err)

		input := validInput()
		input.ContentType = "image/JPEG; charset=binary"
		result, err := svc.UploadProductImage(context.Background(), uuid.New(), input)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(result.Key, ".jpg"))
	})

	t.Run("unsupported type rejected", func(t *testing.T) {
		uploader := &fakeUploader{}
		svc, err := NewService(uploader, allowAllChecker{}, cfg)
		require.NoError(t, err)

		input := validInput()
		input.ContentType = "image/gif"
		_, err = svc.UploadProductImage(context.Background(), uuid.New(), input)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		assert.Empty(t, uploader.keys)
	})

	t.Run("oversized image rejected", func(t *testing.T) {
		uploader := &fakeUploader{}
		svc, err := NewService(uploader, allowAllChecker{}, cfg)
		require.NoError(t, err)

		input := validInput()
		input.SizeBytes = 11 << 20
		_, err = svc.UploadProductImage(context.Background(), uuid.New(), input)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		assert.Empty(t, uploader.keys)
	})

	t.Run("refused without admin role even when transport allowed it", func(t *testing.T) {
		uploader := &fakeUploader{}
		svc, err := NewService(uploader, denyAllChecker{}, cfg)
		require.NoError(t, err)

		_, err = svc.UploadProductImage(context.Background(), uuid.New(), validInput())
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
		assert.Empty(t, uploader.keys)
	})
}
