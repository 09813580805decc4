package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/caiorocha7/panificadora-trigao/pkg/models"
)

// OrderLine is one (product, quantity) pair from a client submission,
// not yet validated or priced.
type OrderLine struct {
	ProductID uint
	Quantity  int
}

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create validates, prices and persists an order atomically. Each line is
// resolved against the products table inside the same transaction that
// writes the order, so the captured per-item price and the committed rows
// are one unit: either the order, its items and its total all exist
// afterwards, or nothing does.
//
// An unknown product fails the whole request with ProductNotFoundError
// naming the id; earlier lines already priced are discarded with the
// rollback. Duplicate product ids are independent lines, each carrying
// its own captured price.
func (r *OrderRepository) Create(ctx context.Context, userID uint, lines []OrderLine) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", models.ErrInvalidInput)
	}

	var orderID uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(lines))

		for _, line := range lines {
			if line.Quantity <= 0 {
				return models.ErrInvalidInput
			}

			var product models.Product
			if err := tx.First(&product, line.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &models.ProductNotFoundError{ID: line.ProductID}
				}
				return err
			}

			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
			total = total.Add(lineTotal)
			items = append(items, models.OrderItem{
				ProductID: product.ID,
				Quantity:  line.Quantity,
				Price:     product.Price,
			})
		}

		order := models.Order{
			UserID:      userID,
			TotalAmount: total.Round(2),
			Items:       items,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, orderID)
}

// GetByID returns the order with its items and their products preloaded.
// Access control is the caller's concern; this is a plain read.
func (r *OrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// ListAll returns orders system-wide, newest first.
func (r *OrderRepository) ListAll(ctx context.Context, skip, limit int) ([]models.Order, error) {
	return r.list(ctx, r.db.WithContext(ctx), skip, limit)
}

// ListByUser returns only the given user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID uint, skip, limit int) ([]models.Order, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("user_id = ?", userID), skip, limit)
}

func (r *OrderRepository) list(_ context.Context, query *gorm.DB, skip, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := query.
		Preload("Items").
		Preload("Items.Product").
		Order("created_at DESC, id DESC").
		Offset(skip).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// Delete removes an order and, through the cascade constraint, its items.
func (r *OrderRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound
			}
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
}

// Count is used by tests and health reporting.
func (r *OrderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&count).Error
	return count, err
}
