package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/Efi-kline/my-phone-shop/pkg/db/models"
	"github.com/Efi-kline/my-phone-shop/pkg/enums"
)

// OrderItemDTO is the API-facing projection of an order line.
type OrderItemDTO struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      *uuid.UUID `json:"product_id,omitempty"`
	Name           string     `json:"name"`
	ImageURL       *string    `json:"image_url,omitempty"`
	UnitPriceCents int64      `json:"unit_price_cents"`
	Quantity       int        `json:"quantity"`
	LineTotalCents int64      `json:"line_total_cents"`
}

// OrderDTO is the API-facing projection of a placed order.
type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	Status          enums.OrderStatus `json:"status"`
	CouponCode      *string           `json:"coupon_code,omitempty"`
	SubtotalCents   int64             `json:"subtotal_cents"`
	DiscountCents   int64             `json:"discount_cents"`
	TotalCents      int64             `json:"total_cents"`
	Currency        enums.Currency    `json:"currency"`
	PaymentRef      string            `json:"payment_ref"`
	DeliveryAddress *string           `json:"delivery_address,omitempty"`
	Items           []OrderItemDTO    `json:"items"`
	CreatedAt       time.Time         `json:"created_at"`
}

// OrderListResult bundles a page of orders with the follow-up cursor.
type OrderListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor *string    `json:"next_cursor,omitempty"`
}

// NewOrderDTO maps an order model into its DTO.
func NewOrderDTO(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(order.Items))
	for i := range order.Items {
		items = append(items, newOrderItemDTO(&order.Items[i]))
	}
	return &OrderDTO{
		ID:              order.ID,
		Status:          order.Status,
		CouponCode:      order.CouponCode,
		SubtotalCents:   order.SubtotalCents,
		DiscountCents:   order.DiscountCents,
		TotalCents:      order.TotalCents,
		Currency:        order.Currency,
		PaymentRef:      order.PaymentRef,
		DeliveryAddress: order.DeliveryAddress,
		Items:           items,
		CreatedAt:       order.CreatedAt,
	}
}

func newOrderItemDTO(item *models.OrderItem) OrderItemDTO {
	return OrderItemDTO{
		ID:             item.ID,
		ProductID:      item.ProductID,
		Name:           item.Name,
		ImageURL:       item.ImageURL,
		UnitPriceCents: item.UnitPriceCents,
		Quantity:       item.Quantity,
		LineTotalCents: item.LineTotalCents,
	}
}
