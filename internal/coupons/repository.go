package coupons

import (
	"context"

	"gorm.io/gorm"

	"github.com/Efi-kline/my-phone-shop/pkg/db/models"
)

// CouponRepository defines lookup operations for coupon definitions.
type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
}

// Repository wires coupon persistence to GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).First(&coupon, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}
