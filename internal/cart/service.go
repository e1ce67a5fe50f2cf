package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Efi-kline/my-phone-shop/internal/coupons"
	"github.com/Efi-kline/my-phone-shop/pkg/db/models"
	pkgerrors "github.com/Efi-kline/my-phone-shop/pkg/errors"
)

// Service exposes cart mutation and read operations. Every mutation
// carries the version the client last saw; a stale version is rejected
// with a conflict instead of silently overwriting concurrent changes.
type Service interface {
	Fetch(ctx context.Context, profileID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, profileID uuid.UUID, input AddItemInput) (*CartDTO, error)
	UpdateItemQuantity(ctx context.Context, profileID uuid.UUID, input UpdateItemInput) (*CartDTO, error)
	RemoveItem(ctx context.Context, profileID uuid.UUID, input RemoveItemInput) (*CartDTO, error)
	Clear(ctx context.Context, profileID uuid.UUID, version int64) (*CartDTO, error)
	ApplyCoupon(ctx context.Context, profileID uuid.UUID, input ApplyCouponInput) (*CartDTO, error)
	RemoveCoupon(ctx context.Context, profileID uuid.UUID, version int64) (*CartDTO, error)
}

// AddItemInput adds quantity of a product, merging with any existing line.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Version   int64
}

// UpdateItemInput replaces the quantity of an existing line.
type UpdateItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Version   int64
}

// RemoveItemInput drops the line for a product.
type RemoveItemInput struct {
	ProductID uuid.UUID
	Version   int64
}

// ApplyCouponInput attaches a coupon code to the cart.
type ApplyCouponInput struct {
	Code    string
	Version int64
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     CartRepository
	products productLoader
	coupons  coupons.Service
	tx       txRunner
}

// NewService constructs a cart service instance.
func NewService(repo CartRepository, products productLoader, couponSvc coupons.Service, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if couponSvc == nil {
		return nil, fmt.Errorf("coupon service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, products: products, coupons: couponSvc, tx: tx}, nil
}

// Fetch returns the profile's cart, creating an empty one on first use.
func (s *service) Fetch(ctx context.Context, profileID uuid.UUID) (*CartDTO, error) {
	cart, err := s.getOrCreate(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return s.buildDTO(ctx, cart)
}

// AddItem merges quantity into an existing line for the product or creates
// a new line snapshotting the product's current name, price, and image.
func (s *service) AddItem(ctx context.Context, profileID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	return s.mutate(ctx, profileID, input.Version, func(txRepo CartRepository, cart *models.Cart) error {
		if existing := findItem(cart, input.ProductID); existing != nil {
			existing.Quantity += input.Quantity
			if _, err := txRepo.SaveItem(ctx, existing); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update cart item")
			}
			return nil
		}

		item := &models.CartItem{
			CartID:         cart.ID,
			ProductID:      product.ID,
			Name:           product.Name,
			Description:    product.Description,
			ImageURL:       product.ImageURL,
			UnitPriceCents: product.PriceCents,
			Quantity:       input.Quantity,
		}
		if _, err := txRepo.SaveItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert cart item")
		}
		return nil
	})
}

// UpdateItemQuantity replaces the line's quantity. Quantities below one are
// rejected; removal is an explicit operation.
func (s *service) UpdateItemQuantity(ctx context.Context, profileID uuid.UUID, input UpdateItemInput) (*CartDTO, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	return s.mutate(ctx, profileID, input.Version, func(txRepo CartRepository, cart *models.Cart) error {
		existing := findItem(cart, input.ProductID)
		if existing == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}
		existing.Quantity = input.Quantity
		if _, err := txRepo.SaveItem(ctx, existing); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update cart item")
		}
		return nil
	})
}

func (s *service) RemoveItem(ctx context.Context, profileID uuid.UUID, input RemoveItemInput) (*CartDTO, error) {
	return s.mutate(ctx, profileID, input.Version, func(txRepo CartRepository, cart *models.Cart) error {
		if findItem(cart, input.ProductID) == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}
		if err := txRepo.DeleteItem(ctx, cart.ID, input.ProductID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete cart item")
		}
		return nil
	})
}

// Clear removes every line and detaches any coupon.
func (s *service) Clear(ctx context.Context, profileID uuid.UUID, version int64) (*CartDTO, error) {
	return s.mutate(ctx, profileID, version, func(txRepo CartRepository, cart *models.Cart) error {
		if err := txRepo.ClearItems(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear cart")
		}
		if err := txRepo.SetCouponCode(ctx, cart.ID, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear coupon")
		}
		return nil
	})
}

// ApplyCoupon validates the code against the coupon table before attaching.
func (s *service) ApplyCoupon(ctx context.Context, profileID uuid.UUID, input ApplyCouponInput) (*CartDTO, error) {
	normalized := coupons.NormalizeCode(input.Code)
	if _, err := s.coupons.Evaluate(ctx, normalized, 0); err != nil {
		return nil, err
	}

	return s.mutate(ctx, profileID, input.Version, func(txRepo CartRepository, cart *models.Cart) error {
		if err := txRepo.SetCouponCode(ctx, cart.ID, &normalized); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: set coupon")
		}
		return nil
	})
}

func (s *service) RemoveCoupon(ctx context.Context, profileID uuid.UUID, version int64) (*CartDTO, error) {
	return s.mutate(ctx, profileID, version, func(txRepo CartRepository, cart *models.Cart) error {
		if err := txRepo.SetCouponCode(ctx, cart.ID, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear coupon")
		}
		return nil
	})
}

// mutate runs the cart mutation inside a transaction guarded by the
// version compare-and-swap, then reloads the cart for the response.
func (s *service) mutate(ctx context.Context, profileID uuid.UUID, version int64, fn func(txRepo CartRepository, cart *models.Cart) error) (*CartDTO, error) {
	cart, err := s.getOrCreate(ctx, profileID)
	if err != nil {
		return nil, err
	}

	expected := version
	if expected == 0 {
		expected = cart.Version
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.BumpVersion(ctx, cart.ID, expected); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				return pkgerrors.New(pkgerrors.CodeConflict, "cart was modified, refresh and retry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: bump cart version")
		}
		return fn(txRepo, cart)
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart mutation")
	}

	reloaded, err := s.repo.FindByProfileID(ctx, profileID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return s.buildDTO(ctx, reloaded)
}

func (s *service) getOrCreate(ctx context.Context, profileID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByProfileID(ctx, profileID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	created, err := s.repo.Create(ctx, &models.Cart{ProfileID: profileID, Version: 1})
	if err != nil {
		// Lost the insert race: another request created it first.
		if existing, findErr := s.repo.FindByProfileID(ctx, profileID); findErr == nil {
			return existing, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create cart")
	}
	return created, nil
}

func (s *service) buildDTO(ctx context.Context, cart *models.Cart) (*CartDTO, error) {
	dto := &CartDTO{
		ID:         cart.ID,
		Version:    cart.Version,
		CouponCode: cart.CouponCode,
		Items:      make([]CartItemDTO, 0, len(cart.Items)),
		UpdatedAt:  cart.UpdatedAt,
	}
	for i := range cart.Items {
		dto.Items = append(dto.Items, NewCartItemDTO(&cart.Items[i]))
	}
	dto.SubtotalCents = Subtotal(cart.Items)
	dto.TotalCents = dto.SubtotalCents

	if cart.CouponCode != nil && *cart.CouponCode != "" {
		eval, err := s.coupons.Evaluate(ctx, *cart.CouponCode, dto.SubtotalCents)
		if err != nil {
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				return nil, err
			}
			// Stored code no longer resolves; price without it.
		} else {
			dto.DiscountCents = eval.DiscountCents
			dto.TotalCents = eval.TotalCents
		}
	}
	return dto, nil
}

func findItem(cart *models.Cart, productID uuid.UUID) *models.CartItem {
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			return &cart.Items[i]
		}
	}
	return nil
}
