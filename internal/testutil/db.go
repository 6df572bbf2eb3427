// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"shop-api/internal/client"
	"shop-api/internal/config"
	"shop-api/internal/model"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory sqlite database private to t. A single connection keeps
// the memory database alive and serializes writers the way row locks would.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := client.InitDB(&config.Database{
		Driver:       "sqlite",
		URL:          fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		MaxIdleConns: 1,
		MaxOpenConns: 1,
	}, zerolog.Nop())
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateProduct inserts a product with the given price.
func CreateProduct(t testing.TB, db *gorm.DB, name, price string) *model.Product {
	t.Helper()

	product := &model.Product{
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: 10,
	}
	require.NoError(t, db.WithContext(context.Background()).Create(product).Error)
	return product
}

// SetPrice changes the catalog price of a product.
func SetPrice(t testing.TB, db *gorm.DB, productID uint, price string) {
	t.Helper()

	err := db.Model(&model.Product{}).
		Where("id = ?", productID).
		Update("price", decimal.RequireFromString(price)).Error
	require.NoError(t, err)
}
