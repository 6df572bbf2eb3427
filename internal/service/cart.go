package service

import (
	"context"
	"errors"
	"fmt"
	"shop-api/internal/apperr"
	"shop-api/internal/model"
	"shop-api/internal/repository"

	"gorm.io/gorm"
)

type CartService interface {
	GetOrCreateActiveCart(ctx context.Context, userID uint) (*model.Cart, error)
	AddItem(ctx context.Context, userID, productID uint, quantity int) (*model.Cart, error)
	UpdateItem(ctx context.Context, userID, itemID uint, quantity int) (*model.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID uint) (*model.Cart, error)
	Clear(ctx context.Context, userID uint) error
}

type cartServiceImpl struct {
	db          *gorm.DB
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(
	db *gorm.DB,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
) CartService {
	return &cartServiceImpl{
		db:          db,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartServiceImpl) GetOrCreateActiveCart(ctx context.Context, userID uint) (*model.Cart, error) {
	cart, err := s.cartRepo.FindActive(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find active cart: %w", err)
	}

	// A concurrent request may win the insert; either way there is exactly one active cart to re-read.
	if err := s.cartRepo.CreateActive(ctx, userID); err != nil {
		return nil, fmt.Errorf("create active cart: %w", err)
	}

	cart, err = s.cartRepo.FindActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find active cart after create: %w", err)
	}
	return cart, nil
}

func (s *cartServiceImpl) AddItem(ctx context.Context, userID, productID uint, quantity int) (*model.Cart, error) {
	if quantity < 1 {
		return nil, apperr.ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrProductNotFound.Withf("product with id %d not found", productID)
		}
		return nil, fmt.Errorf("find product: %w", err)
	}

	cart, err := s.GetOrCreateActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.cartRepo.UpsertItem(ctx, &model.CartItem{
		CartID:      cart.ID,
		UserID:      userID,
		ProductID:   product.ID,
		Quantity:    quantity,
		PriceAtTime: product.Price,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert cart item: %w", err)
	}

	return s.reload(ctx, userID)
}

func (s *cartServiceImpl) UpdateItem(ctx context.Context, userID, itemID uint, quantity int) (*model.Cart, error) {
	if quantity < 1 {
		return nil, apperr.ErrInvalidQuantity
	}

	cart, err := s.activeCartForItem(ctx, userID)
	if err != nil {
		return nil, err
	}

	updated, err := s.cartRepo.UpdateItemQuantity(ctx, cart.ID, itemID, quantity)
	if err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	if !updated {
		return nil, apperr.ErrItemNotFound
	}

	return s.reload(ctx, userID)
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, userID, itemID uint) (*model.Cart, error) {
	cart, err := s.activeCartForItem(ctx, userID)
	if err != nil {
		return nil, err
	}

	deleted, err := s.cartRepo.DeleteItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, fmt.Errorf("delete cart item: %w", err)
	}
	if !deleted {
		return nil, apperr.ErrItemNotFound
	}

	return s.reload(ctx, userID)
}

func (s *cartServiceImpl) Clear(ctx context.Context, userID uint) error {
	cart, err := s.cartRepo.FindActive(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrCartNotFound
		}
		return fmt.Errorf("find active cart: %w", err)
	}

	if err := s.cartRepo.DeleteItems(ctx, s.db, cart.ID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// activeCartForItem treats a missing cart like a missing item: the item cannot be in the caller's cart.
func (s *cartServiceImpl) activeCartForItem(ctx context.Context, userID uint) (*model.Cart, error) {
	cart, err := s.cartRepo.FindActive(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrItemNotFound
		}
		return nil, fmt.Errorf("find active cart: %w", err)
	}
	return cart, nil
}

func (s *cartServiceImpl) reload(ctx context.Context, userID uint) (*model.Cart, error) {
	cart, err := s.cartRepo.FindActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reload cart: %w", err)
	}
	return cart, nil
}
