package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/caiorocha7/panificadora-trigao/pkg/models"
)

// ProductRepository is the authoritative catalog. Order pricing never
// trusts a price supplied by the caller; it always reads from here.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *ProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepository) GetByCode(ctx context.Context, code string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepository) List(ctx context.Context, skip, limit int) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Offset(skip).Limit(limit).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Update replaces the mutable fields of an existing product. Past order
// items are never rewritten; they keep the price captured at order time.
func (r *ProductRepository) Update(ctx context.Context, id uint, update *models.Product) (*models.Product, error) {
	product, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Code = update.Code
	product.ProductName = update.ProductName
	product.Unit = update.Unit
	product.Tax = update.Tax
	product.Section = update.Section
	product.Price = update.Price

	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id uint) (*models.Product, error) {
	product, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Delete(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}
