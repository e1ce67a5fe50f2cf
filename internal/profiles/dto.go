package profiles

import (
	"time"

	"github.com/google/uuid"

	"github.com/Efi-kline/my-phone-shop/pkg/db/models"
	"github.com/Efi-kline/my-phone-shop/pkg/enums"
)

// ProfileDTO is the API-facing projection of a profile row.
type ProfileDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	Phone       *string    `json:"phone,omitempty"`
	Address     *string    `json:"address,omitempty"`
	Role        enums.Role `json:"role"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewProfileDTO maps a profile model into its DTO.
func NewProfileDTO(profile *models.Profile) *ProfileDTO {
	if profile == nil {
		return nil
	}
	return &ProfileDTO{
		ID:          profile.ID,
		Email:       profile.Email,
		FullName:    profile.FullName,
		Phone:       profile.Phone,
		Address:     profile.Address,
		Role:        profile.Role,
		LastLoginAt: profile.LastLoginAt,
		CreatedAt:   profile.CreatedAt,
	}
}
