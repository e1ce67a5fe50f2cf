package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/Efi-kline/my-phone-shop/internal/profiles"
	"github.com/Efi-kline/my-phone-shop/pkg/config"
	pkgerrors "github.com/Efi-kline/my-phone-shop/pkg/errors"
)

// extensionByMIME lists the accepted product image types.
var extensionByMIME = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// UploadInput carries a product image body with its declared metadata.
type UploadInput struct {
	ContentType string
	SizeBytes   int64
	Body        io.Reader
}

// UploadResult points at the stored image.
type UploadResult struct {
	Key       string `json:"key"`
	PublicURL string `json:"public_url"`
}

// Service stores product images for the catalog. Uploads are admin-only
// and the role is checked against the profiles row.
type Service interface {
	UploadProductImage(ctx context.Context, actorID uuid.UUID, input UploadInput) (*UploadResult, error)
}

type objectUploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	PublicURL(key string) string
}

type service struct {
	uploader     objectUploader
	roleChecker  profiles.RoleChecker
	maxSizeBytes int64
}

// NewService constructs a media service instance.
func NewService(uploader objectUploader, roleChecker profiles.RoleChecker, cfg config.MediaConfig) (Service, error) {
	if uploader == nil {
		return nil, fmt.Errorf("object uploader required")
	}
	if roleChecker == nil {
		return nil, fmt.Errorf("role checker required")
	}
	if cfg.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("media: max upload size must be positive, got %d", cfg.MaxUploadMB)
	}
	return &service{
		uploader:     uploader,
		roleChecker:  roleChecker,
		maxSizeBytes: int64(cfg.MaxUploadMB) << 20,
	}, nil
}

func (s *service) UploadProductImage(ctx context.Context, actorID uuid.UUID, input UploadInput) (*UploadResult, error) {
	if err := s.roleChecker.RequireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	contentType := normalizeContentType(input.ContentType)
	ext, ok := extensionByMIME[contentType]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image must be jpeg, png, or webp")
	}
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image body is empty")
	}
	if input.SizeBytes > s.maxSizeBytes {
		return nil, pkgerrors.New(
			pkgerrors.CodeValidation,
			fmt.Sprintf("image exceeds the %dMB limit", s.maxSizeBytes>>20),
		)
	}
	if input.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image body is empty")
	}

	key := path.Join("phones", uuid.New().String()+ext)
	// LimitReader caps the stream in case the declared size lied.
	if _, err := s.uploader.Upload(ctx, key, contentType, io.LimitReader(input.Body, s.maxSizeBytes)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storage: upload image")
	}

	return &UploadResult{
		Key:       key,
		PublicURL: s.uploader.PublicURL(key),
	}, nil
}

// normalizeContentType drops any media type parameters and lowercases
// the base type.
func normalizeContentType(raw string) string {
	base, _, _ := strings.Cut(raw, ";")
	return strings.ToLower(strings.TrimSpace(base))
}
