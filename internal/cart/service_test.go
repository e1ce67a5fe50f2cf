package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Efi-kline/my-phone-shop/internal/coupons"
	"github.com/Efi-kline/my-phone-shop/pkg/db/models"
	"github.com/Efi-kline/my-phone-shop/pkg/enums"
	pkgerrors "github.com/Efi-kline/my-phone-shop/pkg/errors"
)

type fakeCartRepo struct {
	carts map[uuid.UUID]*models.Cart // keyed by profile id
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: make(map[uuid.UUID]*models.Cart)}
}

func (f *fakeCartRepo) WithTx(tx *gorm.DB) CartRepository { return f }

func (f *fakeCartRepo) FindByProfileID(ctx context.Context, profileID uuid.UUID) (*models.Cart, error) {
	cart, ok := f.carts[profileID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *cart
	copied.Items = append([]models.CartItem(nil), cart.Items...)
	return &copied, nil
}

func (f *fakeCartRepo) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	f.carts[cart.ProfileID] = cart
	return cart, nil
}

func (f *fakeCartRepo) BumpVersion(ctx context.Context, cartID uuid.UUID, expectedVersion int64) error {
	for _, cart := range f.carts {
		if cart.ID == cartID {
			if cart.Version != expectedVersion {
				return ErrVersionConflict
			}
			cart.Version++
			return nil
		}
	}
	return ErrVersionConflict
}

func (f *fakeCartRepo) SaveItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	for _, cart := range f.carts {
		if cart.ID != item.CartID {
			continue
		}
		for i := range cart.Items {
			if cart.Items[i].ProductID == item.ProductID {
				cart.Items[i] = *item
				return item, nil
			}
		}
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		cart.Items = append(cart.Items, *item)
		return item, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCartRepo) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error {
	for _, cart := range f.carts {
		if cart.ID != cartID {
			continue
		}
		for i := range cart.Items {
			if cart.Items[i].ProductID == productID {
				cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (f *fakeCartRepo) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	for _, cart := range f.carts {
		if cart.ID == cartID {
			cart.Items = nil
		}
	}
	return nil
}

func (f *fakeCartRepo) SetCouponCode(ctx context.Context, cartID uuid.UUID, code *string) error {
	for _, cart := range f.carts {
		if cart.ID == cartID {
			cart.CouponCode = code
		}
	}
	return nil
}

type fakeProducts struct {
	products map[uuid.UUID]*models.Product
}

func (f *fakeProducts) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

type fakeCouponService struct {
	coupons map[string]*models.Coupon
}

func (f *fakeCouponService) Evaluate(ctx context.Context, code string, subtotalCents int64) (*coupons.Evaluation, error) {
	normalized := coupons.NormalizeCode(code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	coupon, ok := f.coupons[normalized]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon code")
	}
	var discount int64
	switch coupon.Kind {
	case enums.CouponKindPercent:
		discount = subtotalCents * int64(coupon.Percent) / 100
	case enums.CouponKindFixed:
		discount = coupon.AmountCents
	}
	if discount > subtotalCents {
		discount = subtotalCents
	}
	return &coupons.Evaluation{
		Code:          coupon.Code,
		Kind:          coupon.Kind,
		DiscountCents: discount,
		TotalCents:    subtotalCents - discount,
	}, nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type cartFixture struct {
	svc       Service
	repo      *fakeCartRepo
	profileID uuid.UUID
	phone     *models.Product
	tablet    *models.Product
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()

	phone := &models.Product{
		ID:         uuid.New(),
		Name:       "iPhone 17",
		PriceCents: 499900,
		Currency:   enums.CurrencyILS,
		IsActive:   true,
	}
	tablet := &models.Product{
		ID:         uuid.New(),
		Name:       "Tab S11",
		PriceCents: 199900,
		Currency:   enums.CurrencyILS,
		IsActive:   true,
	}

	repo := newFakeCartRepo()
	couponSvc := &fakeCouponService{coupons: map[string]*models.Coupon{
		"WELCOME10": {Code: "WELCOME10", Kind: enums.CouponKindPercent, Percent: 10, IsActive: true},
		"SAVE50":    {Code: "SAVE50", Kind: enums.CouponKindFixed, AmountCents: 5000, IsActive: true},
	}}
	svc, err := NewService(repo, &fakeProducts{products: map[uuid.UUID]*models.Product{
		phone.ID:  phone,
		tablet.ID: tablet,
	}}, couponSvc, passthroughTx{})
	require.NoError(t, err)

	return &cartFixture{
		svc:       svc,
		repo:      repo,
		profileID: uuid.New(),
		phone:     phone,
		tablet:    tablet,
	}
}

func TestAddItem(t *testing.T) {
	t.Run("new product appends a snapshot line", func(t *testing.T) {
		fx := newCartFixture(t)
		dto, err := fx.svc.AddItem(context.Background(), fx.profileID, AddItemInput{ProductID: fx.phone.ID, Quantity: 1})
		require.NoError(t, err)
		require.Len(t, dto.Items, 1)
		assert.Equal(t, fx.phone.Name, dto.Items[0].Name)
		assert.Equal(t, fx.phone.PriceCents, dto.Items[0].UnitPriceCents)
		assert.Equal(t, 1, dto.Items[0].Quantity)
		assert.Equal(t, fx.phone.PriceCents, dto.SubtotalCents)
	})

	t.Run("same product merges into the existing line", func(t *testing.T) {
		fx := newCartFixture(t)
		_, err := fx.svc.AddItem(context.Background(), fx.profileID, AddItemInput{ProductID: fx.phone.ID, Quantity: 1})
		require.NoError(t, err)
		dto, err := fx.svc.AddItem(context.Background(), fx.profileID, AddItemInput{ProductID: fx.phone.ID, Quantity: 2})
		require.NoError(t, err)
		require.Len(t, dto.Items, 1)
		assert.Equal(t, 3, dto.Items[0].Quantity)
	})

	t.Run("distinct products keep separate lines", func(t *testing.T) {
		fx := newCartFixture(t)
		_, err := fx.svc.AddItem(context.Background(), fx.profileID, AddItemInput{ProductID: fx.phone.ID, Quantity: 1})
		require.NoError(t, err)
		dto, err := fx.svc.AddItem(context.Background(), fx.profileID, AddItemInput{ProductID: fx.tablet.ID, Quantity: 1})
		require.NoError(t, err)
		assert.Len(t, dto.Items, 2)
	})

	t.Run("zero quantity rejected", func(t *testing.T) {
		fx := newCartFixture(t)
		_, err := fx.svc.AddItem(context.Background(), fx.profileID, AddItemInput{ProductID: fx.phone.ID, Quantity: 0})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	})

	t.Run("unknown product rejected", func(t *testing.T) {
		fx := newCartFixture(t)
		_, err := fx.svc.AddItem(context.Background(), fx.profileID, AddItemInput{ProductID: uuid.New(), Quantity: 1})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	})
}

func TestUpdateItemQuantity(t *testing.T) {
	fx := newCartFixture(t)
	_, err := fx.svc.AddItem(context.Background(), fx.profileID, AddItemInput{ProductID: fx.phone.ID, Quantity: 1})
	require.NoError(t, err)

	t.Run("replaces quantity", func(t *testing.T) {
		dto, err := fx.svc.UpdateItemQuantity(context.Background(), fx.profileID, UpdateItemInput{ProductID: fx.phone.ID, Quantity: 5})
		require.NoError(t, err)
		assert.Equal(t, 5, dto.Items[0].Quantity)
	})

	t.Run("quantity below one rejected", func(t *testing.T) {
		_, err := fx.svc.UpdateItemQuantity(context.Background(), fx.profileID, UpdateItemInput{ProductID: fx.phone.ID, Quantity: 0})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	})

	t.Run("missing line rejected", func(t *testing.T) {
		_, err := fx.svc.UpdateItemQuantity(context.Background(), fx.profileID, UpdateItemInput{ProductID: fx.tablet.ID, Quantity: 1})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	})
}

func TestRemoveItemAndClear(t *testing.T) {
	fx := newCartFixture(t)
	_, err := fx.svc.AddItem(context.Background(), fx.profileID, AddItemInput{ProductID: fx.phone.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = fx.svc.AddItem(context.Background(), fx.profileID, AddItemInput{ProductID: fx.tablet.ID, Quantity: 1})
	require.NoError(t, err)

	t.Run("remove drops only the targeted line", func(t *testing.T) {
		dto, err := fx.svc.RemoveItem(context.Background(), fx.profileID, RemoveItemInput{ProductID: fx.tablet.ID})
		require.NoError(t, err)
		require.Len(t, dto.Items, 1)
		assert.Equal(t, fx.phone.ID, dto.Items[0].ProductID)
	})

	t.Run("clear empties the cart and coupon", func(t *testing.T) {
		_, err := fx.svc.ApplyCoupon(context.Background(), fx.profileID, ApplyCouponInput{Code: "WELCOME10"})
		require.NoError(t, err)
		dto, err := fx.svc.Clear(context.Background(), fx.profileID, 0)
		require.NoError(t, err)
		assert.Empty(t, dto.Items)
		assert.Nil(t, dto.CouponCode)
		assert.Equal(t, int64(0), dto.TotalCents)
	})
}

func TestApplyCoupon(t *testing.T) {
	fx := newCartFixture(t)
	_, err := fx.svc.AddItem(context.Background(), fx.profileID, AddItemInput{ProductID: fx.tablet.ID, Quantity: 1})
	require.NoError(t, err)

	t.Run("percent coupon discounts the subtotal", func(t *testing.T) {
		dto, err := fx.svc.ApplyCoupon(context.Background(), fx.profileID, ApplyCouponInput{Code: "welcome10"})
		require.NoError(t, err)
		require.NotNil(t, dto.CouponCode)
		assert.Equal(t, "WELCOME10", *dto.CouponCode)
		assert.Equal(t, int64(19990), dto.DiscountCents)
		assert.Equal(t, int64(179910), dto.TotalCents)
	})

	t.Run("unknown coupon rejected before touching the cart", func(t *testing.T) {
		_, err := fx.svc.ApplyCoupon(context.Background(), fx.profileID, ApplyCouponInput{Code: "NOPE"})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

		dto, err := fx.svc.Fetch(context.Background(), fx.profileID)
		require.NoError(t, err)
		require.NotNil(t, dto.CouponCode)
		assert.Equal(t, "WELCOME10", *dto.CouponCode)
	})

	t.Run("remove coupon restores the full total", func(t *testing.T) {
		dto, err := fx.svc.RemoveCoupon(context.Background(), fx.profileID, 0)
		require.NoError(t, err)
		assert.Nil(t, dto.CouponCode)
		assert.Equal(t, dto.SubtotalCents, dto.TotalCents)
	})
}

func TestVersionConflict(t *testing.T) {
	fx := newCartFixture(t)
	first, err := fx.svc.AddItem(context.Background(), fx.profileID, AddItemInput{ProductID: fx.phone.ID, Quantity: 1})
	require.NoError(t, err)

	// Stale write: echo a version older than the cart's current one.
	_, err = fx.svc.AddItem(context.Background(), fx.profileID, AddItemInput{
		ProductID: fx.phone.ID,
		Quantity:  1,
		Version:   first.Version - 1,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	// Echoing the fresh version succeeds.
	dto, err := fx.svc.AddItem(context.Background(), fx.profileID, AddItemInput{
		ProductID: fx.phone.ID,
		Quantity:  1,
		Version:   first.Version,
	})
	require.NoError(t, err)
	assert.Equal(t, first.Version+1, dto.Version)
	assert.Equal(t, 2, dto.Items[0].Quantity)
}
