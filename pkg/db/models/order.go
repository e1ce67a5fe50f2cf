package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Efi-kline/my-phone-shop/pkg/enums"
)

// Order captures a completed checkout with its line item snapshots.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProfileID       uuid.UUID         `gorm:"column:profile_id;type:uuid;not null;index"`
	Status          enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	CouponCode      *string           `gorm:"column:coupon_code"`
	SubtotalCents   int64             `gorm:"column:subtotal_cents;not null;default:0"`
	DiscountCents   int64             `gorm:"column:discount_cents;not null;default:0"`
	TotalCents      int64             `gorm:"column:total_cents;not null;default:0"`
	Currency        enums.Currency    `gorm:"column:currency;not null;default:'ILS'"`
	PaymentRef      string            `gorm:"column:payment_ref;not null"`
	DeliveryAddress *string           `gorm:"column:delivery_address"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
