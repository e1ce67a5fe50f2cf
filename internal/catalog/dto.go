package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/Efi-kline/my-phone-shop/pkg/db/models"
	"github.com/Efi-kline/my-phone-shop/pkg/enums"
)

// ProductDTO is the API-facing projection of a catalog listing.
type ProductDTO struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	PriceCents  int64          `json:"price_cents"`
	Currency    enums.Currency `json:"currency"`
	ImageURL    *string        `json:"image_url,omitempty"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ProductListResult bundles a page of listings with the follow-up cursor.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor *string      `json:"next_cursor,omitempty"`
}

// NewProductDTO maps a product model into its DTO.
func NewProductDTO(product *models.Product) *ProductDTO {
	if product == nil {
		return nil
	}
	return &ProductDTO{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		PriceCents:  product.PriceCents,
		Currency:    product.Currency,
		ImageURL:    product.ImageURL,
		IsActive:    product.IsActive,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}
