package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Efi-kline/my-phone-shop/pkg/enums"
	pkgerrors "github.com/Efi-kline/my-phone-shop/pkg/errors"
)

// Service exposes profile read/update operations.
type Service interface {
	GetProfile(ctx context.Context, profileID uuid.UUID) (*ProfileDTO, error)
	UpdateProfile(ctx context.Context, profileID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error)
	RequireAdmin(ctx context.Context, profileID uuid.UUID) error
}

// RoleChecker is the role enforcement surface consumed by admin-facing
// services. Checks hit the profiles row, not the token, so a forged or
// stale claim cannot widen access.
type RoleChecker interface {
	RequireAdmin(ctx context.Context, profileID uuid.UUID) error
}

// UpdateProfileInput holds optional mutation values for a profile.
type UpdateProfileInput struct {
	FullName *string
	Phone    *string
	Address  *string
}

type service struct {
	repo ProfileRepository
}

// NewService constructs a profile service instance.
func NewService(repo ProfileRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetProfile(ctx context.Context, profileID uuid.UUID) (*ProfileDTO, error) {
	profile, err := s.repo.FindByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	return NewProfileDTO(profile), nil
}

func (s *service) UpdateProfile(ctx context.Context, profileID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error) {
	if input.FullName != nil && strings.TrimSpace(*input.FullName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full_name cannot be empty")
	}

	profile, err := s.repo.FindByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}

	if input.FullName != nil {
		profile.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.Phone != nil {
		profile.Phone = input.Phone
	}
	if input.Address != nil {
		profile.Address = input.Address
	}

	updated, err := s.repo.Update(ctx, profile)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update profile")
	}
	return NewProfileDTO(updated), nil
}

// RequireAdmin loads the profile row and rejects non-admin actors.
func (s *service) RequireAdmin(ctx context.Context, profileID uuid.UUID) error {
	profile, err := s.repo.FindByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	if !profile.IsActive || profile.Role != enums.RoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	return nil
}
