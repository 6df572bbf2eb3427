package service

import (
	"context"
	"errors"
	"fmt"
	"shop-api/internal/apperr"
	"shop-api/internal/dto"
	"shop-api/internal/metrics"
	"shop-api/internal/model"
	"shop-api/internal/notifier"
	"shop-api/internal/repository"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderService interface {
	Checkout(ctx context.Context, userID uint, items []dto.OrderItem, shippingAddress string) (*model.Order, error)
	CheckoutCart(ctx context.Context, userID uint, shippingAddress string) (*model.Order, error)
	Get(ctx context.Context, orderID, userID uint) (*model.Order, error)
	List(ctx context.Context, userID uint) ([]*model.Order, error)
	UpdateStatus(ctx context.Context, orderID uint, status model.OrderStatus) (*model.Order, error)
	Cancel(ctx context.Context, orderID, userID uint) (*model.Order, error)
}

type orderServiceImpl struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	notifier    notifier.Notifier
	metrics     *metrics.Metrics
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	notifier notifier.Notifier,
	metrics *metrics.Metrics,
) OrderService {
	return &orderServiceImpl{
		db:          db,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		notifier:    notifier,
		metrics:     metrics,
	}
}

func (s *orderServiceImpl) Checkout(ctx context.Context, userID uint, items []dto.OrderItem, shippingAddress string) (*model.Order, error) {
	if len(items) == 0 {
		return nil, apperr.ErrValidation.Withf("'items' must contain at least one item")
	}

	lines, total, err := s.priceItems(ctx, items)
	if err != nil {
		return nil, err
	}

	return s.createOrder(ctx, userID, shippingAddress, lines, total, nil)
}

// CheckoutCart orders the lines of the active cart at current catalog prices and removes
// exactly those lines in the same transaction. A line edited after it was read fails the
// checkout with ErrCartChanged and nothing is written.
func (s *orderServiceImpl) CheckoutCart(ctx context.Context, userID uint, shippingAddress string) (*model.Order, error) {
	cart, err := s.cartRepo.FindActive(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find active cart: %w", err)
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, apperr.ErrEmptyCart
	}

	items := make([]dto.OrderItem, len(cart.Items))
	for i, line := range cart.Items {
		quantity := line.Quantity
		items[i] = dto.OrderItem{ProductID: line.ProductID, Quantity: &quantity}
	}

	lines, total, err := s.priceItems(ctx, items)
	if err != nil {
		return nil, err
	}

	return s.createOrder(ctx, userID, shippingAddress, lines, total, func(tx *gorm.DB) error {
		removed, err := s.cartRepo.DeleteCheckedOut(ctx, tx, cart.ID, cart.Items)
		if err != nil {
			return fmt.Errorf("clear checked out cart lines: %w", err)
		}
		if !removed {
			return apperr.ErrCartChanged
		}
		return nil
	})
}

// priceItems resolves every product at its current catalog price. Validation follows item order,
// so the first offending entry is the one reported.
func (s *orderServiceImpl) priceItems(ctx context.Context, items []dto.OrderItem) ([]*model.OrderItem, decimal.Decimal, error) {
	productIDs := make([]uint, 0, len(items))
	for _, item := range items {
		if item.ProductID == 0 {
			return nil, decimal.Zero, apperr.ErrValidation.Withf("each item must include 'product_id'")
		}
		productIDs = append(productIDs, item.ProductID)
	}

	products, err := s.productRepo.FindMany(ctx, productIDs)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("get many products by item ids: %w", err)
	}
	byID := make(map[uint]*model.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	total := decimal.Zero
	lines := make([]*model.OrderItem, len(items))
	for i, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, decimal.Zero, apperr.ErrProductNotFound.Withf("product with id %d not found", item.ProductID)
		}

		quantity := 1
		if item.Quantity != nil {
			quantity = *item.Quantity
		}
		if quantity < 1 {
			return nil, decimal.Zero, apperr.ErrInvalidQuantity.Withf("quantity for product %d must be at least 1", item.ProductID)
		}

		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(quantity))))
		lines[i] = &model.OrderItem{
			ProductID: product.ID,
			Quantity:  quantity,
			UnitPrice: product.Price,
		}
	}

	return lines, total, nil
}

// createOrder commits the order row and all of its lines, plus whatever extra writes are
// passed in, as one transaction.
func (s *orderServiceImpl) createOrder(
	ctx context.Context,
	userID uint,
	shippingAddress string,
	lines []*model.OrderItem,
	total decimal.Decimal,
	extra func(tx *gorm.DB) error,
) (*model.Order, error) {
	order := &model.Order{
		UserID:          userID,
		TotalAmount:     total,
		Status:          model.OrderStatusPending,
		ShippingAddress: shippingAddress,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order in db: %w", err)
		}

		for _, line := range lines {
			line.OrderID = order.ID
		}
		if err := s.orderRepo.CreateOrderItems(ctx, tx, lines); err != nil {
			return fmt.Errorf("store order items in db: %w", err)
		}

		if extra != nil {
			return extra(tx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.OrdersCreated.Inc()
	s.notifier.Notify(ctx, notifier.Event{
		Type:       notifier.EventOrderCreated,
		OrderID:    order.ID,
		UserID:     userID,
		Amount:     total.StringFixed(2),
		OccurredAt: time.Now(),
	})

	created, err := s.orderRepo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("reload order: %w", err)
	}
	return created, nil
}

func (s *orderServiceImpl) Get(ctx context.Context, orderID, userID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

func (s *orderServiceImpl) List(ctx context.Context, userID uint) ([]*model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *orderServiceImpl) UpdateStatus(ctx context.Context, orderID uint, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, apperr.ErrValidation.Withf("unknown order status %q", status)
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}

	if !order.Status.CanTransitionTo(status) {
		return nil, apperr.ErrInvalidTransition.Withf("cannot move order from %s to %s", order.Status, status)
	}

	updated, err := s.orderRepo.UpdateStatus(ctx, s.db, orderID, order.Status, status)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if !updated {
		return nil, apperr.ErrInvalidTransition.Withf("order %d changed status concurrently, retry", orderID)
	}

	order, err = s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("reload order: %w", err)
	}
	return order, nil
}

func (s *orderServiceImpl) Cancel(ctx context.Context, orderID, userID uint) (*model.Order, error) {
	if _, err := s.Get(ctx, orderID, userID); err != nil {
		return nil, err
	}
	return s.UpdateStatus(ctx, orderID, model.OrderStatusCancelled)
}
