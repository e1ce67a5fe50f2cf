package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the single active cart owned by a profile. Version implements
// optimistic concurrency: mutations compare-and-swap against it and report
// a conflict when another writer got there first.
type Cart struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProfileID  uuid.UUID  `gorm:"column:profile_id;type:uuid;not null;uniqueIndex"`
	Version    int64      `gorm:"column:version;not null;default:1"`
	CouponCode *string    `gorm:"column:coupon_code"`
	Items      []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
