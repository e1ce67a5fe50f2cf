package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Efi-kline/my-phone-shop/pkg/enums"
)

// Coupon is a normalized discount definition. Percent coupons carry a
// whole-number percentage, fixed coupons an amount in cents.
type Coupon struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code        string           `gorm:"column:code;not null;uniqueIndex"`
	Kind        enums.CouponKind `gorm:"column:kind;not null"`
	Percent     int              `gorm:"column:percent;not null;default:0"`
	AmountCents int64            `gorm:"column:amount_cents;not null;default:0"`
	IsActive    bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
