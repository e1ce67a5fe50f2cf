package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Efi-kline/my-phone-shop/pkg/db/models"
	"github.com/Efi-kline/my-phone-shop/pkg/pagination"
)

// ProductRepository defines CRUD operations for catalog listings.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, query ListQuery) ([]models.Product, error)
}

// ListQuery captures the filters for a catalog page.
type ListQuery struct {
	ActiveOnly bool
	Limit      int
	Cursor     *pagination.Cursor
}

// Repository wires catalog persistence to GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns products newest-first using a (created_at, id) keyset cursor.
func (r *Repository) List(ctx context.Context, query ListQuery) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})
	if query.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if query.Cursor != nil {
		q = q.Where(
			"(created_at, id) < (?, ?)",
			query.Cursor.CreatedAt, query.Cursor.ID,
		)
	}
	q = q.Order("created_at DESC").Order("id DESC")
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}

	var products []models.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
