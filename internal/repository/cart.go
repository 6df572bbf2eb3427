package repository

import (
	"context"
	"shop-api/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	FindActive(ctx context.Context, userID uint) (*model.Cart, error)
	CreateActive(ctx context.Context, userID uint) error
	UpsertItem(ctx context.Context, item *model.CartItem) error
	UpdateItemQuantity(ctx context.Context, cartID, itemID uint, quantity int) (bool, error)
	DeleteItem(ctx context.Context, cartID, itemID uint) (bool, error)
	DeleteItems(ctx context.Context, tx *gorm.DB, cartID uint) error
	DeleteCheckedOut(ctx context.Context, tx *gorm.DB, cartID uint, items []model.CartItem) (bool, error)
}

type cartRepoImpl struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepoImpl{
		db: db,
	}
}

func (r *cartRepoImpl) FindActive(ctx context.Context, userID uint) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.id ASC")
		}).
		Where("user_id = ? AND active = ?", userID, true).
		First(&cart).Error

	if err != nil {
		return nil, err
	}

	return &cart, nil
}

// CreateActive inserts an active cart for userID unless one already exists.
// The unique active_user_id index settles concurrent creators.
func (r *cartRepoImpl) CreateActive(ctx context.Context, userID uint) error {
	cart := &model.Cart{
		UserID:       userID,
		Active:       true,
		ActiveUserID: &userID,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "active_user_id"}},
		DoNothing: true,
	}).Create(cart).Error
}

// UpsertItem adds item.Quantity to an existing (cart, product) line in a single statement,
// or inserts the line with its price snapshot.
func (r *cartRepoImpl) UpsertItem(ctx context.Context, item *model.CartItem) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + ?", item.Quantity),
			"updated_at": time.Now(),
		}),
	}).Create(item).Error
}

func (r *cartRepoImpl) UpdateItemQuantity(ctx context.Context, cartID, itemID uint, quantity int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_at": time.Now(),
		})

	return result.RowsAffected > 0, result.Error
}

func (r *cartRepoImpl) DeleteItem(ctx context.Context, cartID, itemID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&model.CartItem{})

	return result.RowsAffected > 0, result.Error
}

func (r *cartRepoImpl) DeleteItems(ctx context.Context, tx *gorm.DB, cartID uint) error {
	return tx.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error
}

// DeleteCheckedOut removes lines that still hold the quantity they were read with. It reports
// false as soon as one line was changed or removed meanwhile; the caller must roll back.
func (r *cartRepoImpl) DeleteCheckedOut(ctx context.Context, tx *gorm.DB, cartID uint, items []model.CartItem) (bool, error) {
	for _, item := range items {
		result := tx.WithContext(ctx).
			Where("id = ? AND cart_id = ? AND quantity = ?", item.ID, cartID, item.Quantity).
			Delete(&model.CartItem{})
		if result.Error != nil {
			return false, result.Error
		}
		if result.RowsAffected == 0 {
			return false, nil
		}
	}
	return true, nil
}
