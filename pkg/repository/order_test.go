package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/caiorocha7/panificadora-trigao/pkg/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()

	user := &models.User{
		Username:       username,
		Email:          username + "@trigao.com",
		HashedPassword: "irrelevant",
		IsActive:       true,
		Role:           role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedProduct(t *testing.T, db *gorm.DB, code, price string) *models.Product {
	t.Helper()

	product := &models.Product{
		Code:        code,
		ProductName: "Pão " + code,
		Unit:        "UN",
		Price:       decimal.RequireFromString(price),
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestCreateOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	user := seedUser(t, db, "joana", models.RoleUser)
	ctx := context.Background()

	t.Run("computes total from captured prices", func(t *testing.T) {
		bread := seedProduct(t, db, "T001", "1.00")

		order, err := repo.Create(ctx, user.ID, []OrderLine{
			{ProductID: bread.ID, Quantity: 2},
		})
		require.NoError(t, err)

		assert.Equal(t, user.ID, order.UserID)
		assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(2)),
			"expected total 2.00, got %s", order.TotalAmount)
		require.Len(t, order.Items, 1)
		assert.Equal(t, bread.ID, order.Items[0].ProductID)
		assert.Equal(t, 2, order.Items[0].Quantity)
		assert.True(t, order.Items[0].Price.Equal(bread.Price))
		require.NotNil(t, order.Items[0].Product)
		assert.Equal(t, bread.ProductName, order.Items[0].Product.ProductName)
	})

	t.Run("sums multiple lines", func(t *testing.T) {
		cake := seedProduct(t, db, "T002", "15.50")
		coffee := seedProduct(t, db, "T003", "3.25")

		order, err := repo.Create(ctx, user.ID, []OrderLine{
			{ProductID: cake.ID, Quantity: 1},
			{ProductID: coffee.ID, Quantity: 3},
		})
		require.NoError(t, err)

		// 15.50 + 3*3.25 = 25.25
		assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("25.25")),
			"expected total 25.25, got %s", order.TotalAmount)
		require.Len(t, order.Items, 2)
	})

	t.Run("duplicate product ids stay independent lines", func(t *testing.T) {
		bun := seedProduct(t, db, "T004", "0.75")

		order, err := repo.Create(ctx, user.ID, []OrderLine{
			{ProductID: bun.ID, Quantity: 1},
			{ProductID: bun.ID, Quantity: 2},
		})
		require.NoError(t, err)

		require.Len(t, order.Items, 2)
		assert.Equal(t, 1, order.Items[0].Quantity)
		assert.Equal(t, 2, order.Items[1].Quantity)
		assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("2.25")))
	})

	t.Run("rejects empty item list", func(t *testing.T) {
		_, err := repo.Create(ctx, user.ID, nil)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		bread := seedProduct(t, db, "T005", "1.00")

		_, err := repo.Create(ctx, user.ID, []OrderLine{
			{ProductID: bread.ID, Quantity: 0},
		})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestCreateOrderUnknownProductIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	user := seedUser(t, db, "joana", models.RoleUser)
	bread := seedProduct(t, db, "T001", "1.00")
	ctx := context.Background()

	// First line resolves fine; the unknown id on the second must roll
	// everything back.
	_, err := repo.Create(ctx, user.ID, []OrderLine{
		{ProductID: bread.ID, Quantity: 2},
		{ProductID: 999, Quantity: 1},
	})

	var notFound *models.ProductNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, uint(999), notFound.ID)
	assert.Contains(t, err.Error(), "999")

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "no order rows may survive a failed validation")

	var itemCount int64
	require.NoError(t, db.Model(&models.OrderItem{}).Count(&itemCount).Error)
	assert.Zero(t, itemCount, "no order item rows may survive a failed validation")
}

func TestPriceCapture(t *testing.T) {
	db := setupTestDB(t)
	orders := NewOrderRepository(db)
	catalog := NewProductRepository(db)
	user := seedUser(t, db, "joana", models.RoleUser)
	product := seedProduct(t, db, "T001", "1.00")
	ctx := context.Background()

	before, err := orders.Create(ctx, user.ID, []OrderLine{{ProductID: product.ID, Quantity: 1}})
	require.NoError(t, err)

	// Admin bumps the price after the first order.
	updated := *product
	updated.Price = decimal.RequireFromString("2.50")
	_, err = catalog.Update(ctx, product.ID, &updated)
	require.NoError(t, err)

	after, err := orders.Create(ctx, user.ID, []OrderLine{{ProductID: product.ID, Quantity: 1}})
	require.NoError(t, err)

	// The earlier order still reads the old price.
	reread, err := orders.GetByID(ctx, before.ID)
	require.NoError(t, err)
	assert.True(t, reread.Items[0].Price.Equal(decimal.NewFromInt(1)),
		"captured price must not follow catalog changes, got %s", reread.Items[0].Price)
	assert.True(t, reread.TotalAmount.Equal(decimal.NewFromInt(1)))

	assert.True(t, after.Items[0].Price.Equal(decimal.RequireFromString("2.50")))
	assert.True(t, after.TotalAmount.Equal(decimal.RequireFromString("2.50")))
}

func TestListOrders(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	joana := seedUser(t, db, "joana", models.RoleUser)
	pedro := seedUser(t, db, "pedro", models.RoleUser)
	product := seedProduct(t, db, "T001", "1.00")
	ctx := context.Background()

	var created []uint
	for i := 0; i < 3; i++ {
		order, err := repo.Create(ctx, joana.ID, []OrderLine{{ProductID: product.ID, Quantity: 1}})
		require.NoError(t, err)
		created = append(created, order.ID)
	}
	pedroOrder, err := repo.Create(ctx, pedro.ID, []OrderLine{{ProductID: product.ID, Quantity: 2}})
	require.NoError(t, err)

	t.Run("by user returns only own orders newest first", func(t *testing.T) {
		orders, err := repo.ListByUser(ctx, joana.ID, 0, 100)
		require.NoError(t, err)
		require.Len(t, orders, 3)
		assert.Equal(t, created[2], orders[0].ID)
		assert.Equal(t, created[0], orders[2].ID)
		for _, o := range orders {
			assert.Equal(t, joana.ID, o.UserID)
		}
	})

	t.Run("all returns every user's orders", func(t *testing.T) {
		orders, err := repo.ListAll(ctx, 0, 100)
		require.NoError(t, err)
		require.Len(t, orders, 4)
		assert.Equal(t, pedroOrder.ID, orders[0].ID)
	})

	t.Run("honors skip and limit", func(t *testing.T) {
		orders, err := repo.ListAll(ctx, 1, 2)
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, created[2], orders[0].ID)
	})
}

func TestDeleteOrderCascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	user := seedUser(t, db, "joana", models.RoleUser)
	product := seedProduct(t, db, "T001", "1.00")
	ctx := context.Background()

	order, err := repo.Create(ctx, user.ID, []OrderLine{{ProductID: product.ID, Quantity: 1}})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, order.ID))

	_, err = repo.GetByID(ctx, order.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	var itemCount int64
	require.NoError(t, db.Model(&models.OrderItem{}).Count(&itemCount).Error)
	assert.Zero(t, itemCount, "deleting an order must not leave orphan items")

	assert.ErrorIs(t, repo.Delete(ctx, order.ID), models.ErrNotFound)
}
