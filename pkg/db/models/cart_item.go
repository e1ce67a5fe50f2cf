package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem persists a product-level snapshot tied to a Cart. Name, price
// and image are captured at add time so later catalog edits do not mutate
// carts in flight. A cart holds at most one line per product.
type CartItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID         uuid.UUID `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_product"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_product"`
	Name           string    `gorm:"column:name;not null"`
	Description    *string   `gorm:"column:description"`
	ImageURL       *string   `gorm:"column:image_url"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
