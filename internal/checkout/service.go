package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Efi-kline/my-phone-shop/internal/cart"
	"github.com/Efi-kline/my-phone-shop/internal/coupons"
	"github.com/Efi-kline/my-phone-shop/internal/orders"
	"github.com/Efi-kline/my-phone-shop/internal/payments"
	"github.com/Efi-kline/my-phone-shop/pkg/db/models"
	"github.com/Efi-kline/my-phone-shop/pkg/enums"
	pkgerrors "github.com/Efi-kline/my-phone-shop/pkg/errors"
)

// CheckoutInput carries the payment and delivery details for placing an
// order from the caller's cart.
type CheckoutInput struct {
	CardNumber      string
	FullName        string
	DeliveryAddress *string
}

// Service turns a cart into an order. The charge happens before the
// database transaction; the order insert and the cart wipe then commit
// or roll back together.
type Service interface {
	Checkout(ctx context.Context, profileID uuid.UUID, input CheckoutInput) (*orders.OrderDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	carts   cart.CartRepository
	coupons coupons.Service
	gateway payments.Service
	orders  orders.OrderRepository
	tx      txRunner
}

// NewService constructs a checkout service instance.
func NewService(carts cart.CartRepository, couponSvc coupons.Service, gateway payments.Service, orderRepo orders.OrderRepository, tx txRunner) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if couponSvc == nil {
		return nil, fmt.Errorf("coupon service required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{
		carts:   carts,
		coupons: couponSvc,
		gateway: gateway,
		orders:  orderRepo,
		tx:      tx,
	}, nil
}

func (s *service) Checkout(ctx context.Context, profileID uuid.UUID, input CheckoutInput) (*orders.OrderDTO, error) {
	loaded, err := s.carts.FindByProfileID(ctx, profileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(loaded.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	subtotal := cart.Subtotal(loaded.Items)
	var (
		discount   int64
		couponCode *string
	)
	if loaded.CouponCode != nil && *loaded.CouponCode != "" {
		eval, err := s.coupons.Evaluate(ctx, *loaded.CouponCode, subtotal)
		if err != nil {
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				return nil, err
			}
			// Stored code no longer resolves; price without it.
		} else {
			discount = eval.DiscountCents
			couponCode = loaded.CouponCode
		}
	}
	total := subtotal - discount
	if total < 0 {
		total = 0
	}

	// Charge before touching the database so a declined card leaves the
	// cart untouched. A fully discounted order needs no charge.
	paymentRef := "FREE"
	if total > 0 {
		result, err := s.gateway.Charge(ctx, payments.ChargeInput{
			CardNumber:  input.CardNumber,
			FullName:    input.FullName,
			AmountCents: total,
		})
		if err != nil {
			return nil, err
		}
		paymentRef = result.TransactionID
	}

	order := &models.Order{
		ProfileID:       profileID,
		Status:          enums.OrderStatusPending,
		CouponCode:      couponCode,
		SubtotalCents:   subtotal,
		DiscountCents:   discount,
		TotalCents:      total,
		Currency:        enums.CurrencyILS,
		PaymentRef:      paymentRef,
		DeliveryAddress: input.DeliveryAddress,
		Items:           orderItemsFromCart(loaded.Items),
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txOrders := s.orders.WithTx(tx)
		created, err := txOrders.Create(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create order")
		}
		order = created

		txCarts := s.carts.WithTx(tx)
		if err := txCarts.BumpVersion(ctx, loaded.ID, loaded.Version); err != nil {
			if errors.Is(err, cart.ErrVersionConflict) {
				return pkgerrors.New(pkgerrors.CodeConflict, "cart was modified, refresh and retry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: bump cart version")
		}
		if err := txCarts.ClearItems(ctx, loaded.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear cart items")
		}
		if err := txCarts.SetCouponCode(ctx, loaded.ID, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear coupon")
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
	}

	return orders.NewOrderDTO(order), nil
}

// orderItemsFromCart snapshots the cart lines into order lines. Prices
// were already frozen when the items entered the cart.
func orderItemsFromCart(items []models.CartItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for i := range items {
		item := items[i]
		productID := item.ProductID
		out = append(out, models.OrderItem{
			ProductID:      &productID,
			Name:           item.Name,
			ImageURL:       item.ImageURL,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			LineTotalCents: item.UnitPriceCents * int64(item.Quantity),
		})
	}
	return out
}
