package catalog

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Efi-kline/my-phone-shop/pkg/db/models"
	"github.com/Efi-kline/my-phone-shop/pkg/enums"
	pkgerrors "github.com/Efi-kline/my-phone-shop/pkg/errors"
	"github.com/Efi-kline/my-phone-shop/pkg/pagination"
)

type fakeProductRepo struct {
	products map[uuid.UUID]*models.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*models.Product)}
}

func (f *fakeProductRepo) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
	}
	f.products[product.ID] = product
	return product, nil
}

func (f *fakeProductRepo) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	f.products[product.ID] = product
	return product, nil
}

func (f *fakeProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.products, id)
	return nil
}

func (f *fakeProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *product
	return &copied, nil
}

func (f *fakeProductRepo) List(ctx context.Context, query ListQuery) ([]models.Product, error) {
	var rows []models.Product
	for _, product := range f.products {
		if query.ActiveOnly && !product.IsActive {
			continue
		}
		if query.Cursor != nil {
			after := product.CreatedAt.After(query.Cursor.CreatedAt)
			same := product.CreatedAt.Equal(query.Cursor.CreatedAt)
			if after || (same && product.ID.String() >= query.Cursor.ID.String()) {
				continue
			}
		}
		rows = append(rows, *product)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID.String() > rows[j].ID.String()
	})
	if query.Limit > 0 && len(rows) > query.Limit {
		rows = rows[:query.Limit]
	}
	return rows, nil
}

type allowAllChecker struct{}

func (allowAllChecker) RequireAdmin(ctx context.Context, profileID uuid.UUID) error { return nil }

type denyAllChecker struct{}

func (denyAllChecker) RequireAdmin(ctx context.Context, profileID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
}

func TestListProducts(t *testing.T) {
	repo := newFakeProductRepo()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		repo.Create(context.Background(), &models.Product{
			Name:       "Phone",
			PriceCents: 100000,
			Currency:   enums.CurrencyILS,
			IsActive:   true,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
	}
	repo.Create(context.Background(), &models.Product{
		Name:       "Hidden",
		PriceCents: 1,
		Currency:   enums.CurrencyILS,
		IsActive:   false,
		CreatedAt:  base.Add(time.Hour),
	})

	svc, err := NewService(repo, allowAllChecker{})
	require.NoError(t, err)

	t.Run("hides inactive listings", func(t *testing.T) {
		result, err := svc.ListProducts(context.Background(), pagination.Params{})
		require.NoError(t, err)
		assert.Len(t, result.Products, 5)
		for _, product := range result.Products {
			assert.NotEqual(t, "Hidden", product.Name)
		}
	})

	t.Run("pages with a cursor", func(t *testing.T) {
		first, err := svc.ListProducts(context.Background(), pagination.Params{Limit: 2})
		require.NoError(t, err)
		require.Len(t, first.Products, 2)
		require.NotNil(t, first.NextCursor)

		second, err := svc.ListProducts(context.Background(), pagination.Params{Limit: 2, Cursor: *first.NextCursor})
		require.NoError(t, err)
		require.Len(t, second.Products, 2)
		assert.NotEqual(t, first.Products[0].ID, second.Products[0].ID)
		assert.True(t, first.Products[1].CreatedAt.After(second.Products[0].CreatedAt))
	})

	t.Run("rejects malformed cursor", func(t *testing.T) {
		_, err := svc.ListProducts(context.Background(), pagination.Params{Cursor: "!!!"})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	})
}

func TestCreateProduct(t *testing.T) {
	t.Run("creates with valid input", func(t *testing.T) {
		repo := newFakeProductRepo()
		svc, err := NewService(repo, allowAllChecker{})
		require.NoError(t, err)

		dto, err := svc.CreateProduct(context.Background(), uuid.New(), CreateProductInput{
			Name:       "Galaxy S25",
			PriceCents: 349900,
			Currency:   enums.CurrencyILS,
			IsActive:   true,
		})
		require.NoError(t, err)
		assert.Equal(t, "Galaxy S25", dto.Name)
		assert.Equal(t, int64(349900), dto.PriceCents)
	})

	t.Run("refused without admin role even when transport allowed it", func(t *testing.T) {
		repo := newFakeProductRepo()
		svc, err := NewService(repo, denyAllChecker{})
		require.NoError(t, err)

		_, err = svc.CreateProduct(context.Background(), uuid.New(), CreateProductInput{
			Name:       "Galaxy S25",
			PriceCents: 349900,
			Currency:   enums.CurrencyILS,
		})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
		assert.Empty(t, repo.products)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		svc, err := NewService(newFakeProductRepo(), allowAllChecker{})
		require.NoError(t, err)

		_, err = svc.CreateProduct(context.Background(), uuid.New(), CreateProductInput{
			Name:       "Broken",
			PriceCents: -1,
			Currency:   enums.CurrencyILS,
		})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	})
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	repo := newFakeProductRepo()
	svc, err := NewService(repo, allowAllChecker{})
	require.NoError(t, err)

	created, err := svc.CreateProduct(context.Background(), uuid.New(), CreateProductInput{
		Name:       "Pixel 10",
		PriceCents: 299900,
		Currency:   enums.CurrencyILS,
		IsActive:   true,
	})
	require.NoError(t, err)

	t.Run("partial update keeps other fields", func(t *testing.T) {
		price := int64(279900)
		dto, err := svc.UpdateProduct(context.Background(), uuid.New(), created.ID, UpdateProductInput{PriceCents: &price})
		require.NoError(t, err)
		assert.Equal(t, price, dto.PriceCents)
		assert.Equal(t, "Pixel 10", dto.Name)
	})

	t.Run("delete removes listing", func(t *testing.T) {
		require.NoError(t, svc.DeleteProduct(context.Background(), uuid.New(), created.ID))
		_, err := svc.GetProduct(context.Background(), created.ID)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	})

	t.Run("update unknown product", func(t *testing.T) {
		name := "Ghost"
		_, err := svc.UpdateProduct(context.Background(), uuid.New(), uuid.New(), UpdateProductInput{Name: &name})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	})
}
