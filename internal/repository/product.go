package repository

import (
	"context"
	"shop-api/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Seed(ctx context.Context) error
	FindByID(ctx context.Context, productID uint) (*model.Product, error)
	FindMany(ctx context.Context, productIDs []uint) ([]*model.Product, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Seed(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories := []*model.Category{
			{ID: 1, Name: "Tops", Description: "Shirts, tees and hoodies"},
			{ID: 2, Name: "Bottoms", Description: "Jeans, shorts and joggers"},
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&categories).Error; err != nil {
			return err
		}

		tops, bottoms := uint(1), uint(2)
		products := []*model.Product{
			{ID: 1, Name: "Classic Tee", Price: decimal.RequireFromString("10.00"), Stock: 100, CategoryID: &tops},
			{ID: 2, Name: "Pullover Hoodie", Price: decimal.RequireFromString("45.50"), Stock: 40, CategoryID: &tops},
			{ID: 3, Name: "Slim Jeans", Price: decimal.RequireFromString("60.00"), Stock: 25, CategoryID: &bottoms},
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
	})
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID uint) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindMany(ctx context.Context, productIDs []uint) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}
