package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/Efi-kline/my-phone-shop/pkg/db/models"
)

// CartItemDTO is the API-facing projection of a cart line.
type CartItemDTO struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	Description    *string   `json:"description,omitempty"`
	ImageURL       *string   `json:"image_url,omitempty"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
	LineTotalCents int64     `json:"line_total_cents"`
}

// CartDTO bundles the cart lines with the computed totals and the version
// token clients echo back on mutations.
type CartDTO struct {
	ID            uuid.UUID     `json:"id"`
	Version       int64         `json:"version"`
	CouponCode    *string       `json:"coupon_code,omitempty"`
	Items         []CartItemDTO `json:"items"`
	SubtotalCents int64         `json:"subtotal_cents"`
	DiscountCents int64         `json:"discount_cents"`
	TotalCents    int64         `json:"total_cents"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// NewCartItemDTO maps a cart item model into its DTO.
func NewCartItemDTO(item *models.CartItem) CartItemDTO {
	return CartItemDTO{
		ProductID:      item.ProductID,
		Name:           item.Name,
		Description:    item.Description,
		ImageURL:       item.ImageURL,
		UnitPriceCents: item.UnitPriceCents,
		Quantity:       item.Quantity,
		LineTotalCents: item.UnitPriceCents * int64(item.Quantity),
	}
}

// Subtotal sums the line totals of the cart's items.
func Subtotal(items []models.CartItem) int64 {
	var subtotal int64
	for i := range items {
		subtotal += items[i].UnitPriceCents * int64(items[i].Quantity)
	}
	return subtotal
}
