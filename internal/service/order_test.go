package service_test

import (
	"errors"
	"shop-api/internal/apperr"
	"shop-api/internal/dto"
	"shop-api/internal/model"
	"shop-api/internal/notifier"
	"shop-api/internal/testutil"
	"sync"

	"gorm.io/gorm"
)

func (s *serviceSuite) TestCheckoutPricesFromCatalog() {
	order, err := s.order.Checkout(s.ctx, 1, []dto.OrderItem{
		{ProductID: s.tee.ID, Quantity: qty(2)},
		{ProductID: s.jeans.ID},
	}, "12 Ring Road, Accra")
	s.Require().NoError(err)

	s.Equal(model.OrderStatusPending, order.Status)
	s.Equal("80.00", order.TotalAmount.StringFixed(2))
	s.Equal("12 Ring Road, Accra", order.ShippingAddress)
	s.Require().Len(order.Items, 2)
	s.Equal(2, order.Items[0].Quantity)
	s.Equal("10.00", order.Items[0].UnitPrice.StringFixed(2))
	s.Equal(1, order.Items[1].Quantity)
	s.Equal(1, s.notifier.Count(notifier.EventOrderCreated))
}

func (s *serviceSuite) TestCheckoutCartUsesCurrentPrice() {
	_, err := s.cart.AddItem(s.ctx, 1, s.tee.ID, 2)
	s.Require().NoError(err)

	testutil.SetPrice(s.T(), s.db, s.tee.ID, "12.00")

	order, err := s.order.CheckoutCart(s.ctx, 1, "")
	s.Require().NoError(err)
	s.Equal("24.00", order.TotalAmount.StringFixed(2))
	s.Equal("12.00", order.Items[0].UnitPrice.StringFixed(2))

	cart, err := s.cart.GetOrCreateActiveCart(s.ctx, 1)
	s.Require().NoError(err)
	s.Empty(cart.Items)
}

func (s *serviceSuite) TestCheckoutCartEmpty() {
	_, err := s.order.CheckoutCart(s.ctx, 1, "")
	s.ErrorIs(err, apperr.ErrEmptyCart)

	_, err = s.cart.GetOrCreateActiveCart(s.ctx, 1)
	s.Require().NoError(err)

	_, err = s.order.CheckoutCart(s.ctx, 1, "")
	s.ErrorIs(err, apperr.ErrEmptyCart)
}

func (s *serviceSuite) TestCheckoutValidation() {
	_, err := s.order.Checkout(s.ctx, 1, nil, "")
	s.ErrorIs(err, apperr.ErrValidation)

	_, err = s.order.Checkout(s.ctx, 1, []dto.OrderItem{{ProductID: s.tee.ID}, {ProductID: 404}}, "")
	s.ErrorIs(err, apperr.ErrProductNotFound)
	s.Contains(err.Error(), "404")

	_, err = s.order.Checkout(s.ctx, 1, []dto.OrderItem{{ProductID: s.tee.ID, Quantity: qty(0)}}, "")
	s.ErrorIs(err, apperr.ErrInvalidQuantity)

	_, err = s.order.Checkout(s.ctx, 1, []dto.OrderItem{{Quantity: qty(1)}}, "")
	s.ErrorIs(err, apperr.ErrValidation)

	s.Equal(int64(0), s.count(&model.Order{}, "1 = 1"))
	s.Equal(0, s.notifier.Count(notifier.EventOrderCreated))
}

func (s *serviceSuite) TestCheckoutIsAtomic() {
	_, err := s.cart.AddItem(s.ctx, 1, s.tee.ID, 1)
	s.Require().NoError(err)

	err = s.db.Callback().Create().Before("gorm:create").Register("test:fail_order_items", func(tx *gorm.DB) {
		if tx.Statement.Table == "order_items" {
			_ = tx.AddError(errors.New("disk full"))
		}
	})
	s.Require().NoError(err)

	_, err = s.order.Checkout(s.ctx, 1, []dto.OrderItem{{ProductID: s.tee.ID}}, "")
	s.Require().Error(err)

	_, err = s.order.CheckoutCart(s.ctx, 1, "")
	s.Require().Error(err)

	s.Equal(int64(0), s.count(&model.Order{}, "1 = 1"))
	s.Equal(int64(0), s.count(&model.OrderItem{}, "1 = 1"))

	cart, err := s.cart.GetOrCreateActiveCart(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(cart.Items, 1)
}

func (s *serviceSuite) TestCheckoutCartRejectsLineChangedMidway() {
	_, err := s.cart.AddItem(s.ctx, 1, s.tee.ID, 1)
	s.Require().NoError(err)
	_, err = s.cart.AddItem(s.ctx, 1, s.jeans.ID, 1)
	s.Require().NoError(err)

	// another add for the same product lands between the cart read and the line delete
	bumped := false
	err = s.db.Callback().Create().After("gorm:create").Register("test:bump_cart_line", func(tx *gorm.DB) {
		if tx.Statement.Table != "orders" || bumped {
			return
		}
		bumped = true
		_ = tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE cart_items SET quantity = quantity + 1 WHERE product_id = ?", s.tee.ID).Error
	})
	s.Require().NoError(err)

	_, err = s.order.CheckoutCart(s.ctx, 1, "")
	s.ErrorIs(err, apperr.ErrCartChanged)
	s.True(bumped)
	s.Equal(int64(0), s.count(&model.Order{}, "1 = 1"))
	s.Equal(int64(0), s.count(&model.OrderItem{}, "1 = 1"))

	cart, err := s.cart.GetOrCreateActiveCart(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(cart.Items, 2)

	order, err := s.order.CheckoutCart(s.ctx, 1, "")
	s.Require().NoError(err)
	s.Len(order.Items, 2)

	cart, err = s.cart.GetOrCreateActiveCart(s.ctx, 1)
	s.Require().NoError(err)
	s.Empty(cart.Items)
}

func (s *serviceSuite) TestGetAndListAreOwnerScoped() {
	first, err := s.order.Checkout(s.ctx, 1, []dto.OrderItem{{ProductID: s.tee.ID}}, "")
	s.Require().NoError(err)
	second, err := s.order.Checkout(s.ctx, 1, []dto.OrderItem{{ProductID: s.jeans.ID}}, "")
	s.Require().NoError(err)

	_, err = s.order.Get(s.ctx, first.ID, 2)
	s.ErrorIs(err, apperr.ErrOrderNotFound)

	got, err := s.order.Get(s.ctx, first.ID, 1)
	s.Require().NoError(err)
	s.Len(got.Items, 1)

	orders, err := s.order.List(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(orders, 2)
	s.Equal(second.ID, orders[0].ID)
	s.Equal(first.ID, orders[1].ID)

	orders, err = s.order.List(s.ctx, 2)
	s.Require().NoError(err)
	s.Empty(orders)
}

func (s *serviceSuite) TestUpdateStatusFollowsLifecycle() {
	order, err := s.order.Checkout(s.ctx, 1, []dto.OrderItem{{ProductID: s.tee.ID}}, "")
	s.Require().NoError(err)

	_, err = s.order.UpdateStatus(s.ctx, order.ID, model.OrderStatusShipped)
	s.ErrorIs(err, apperr.ErrInvalidTransition)

	_, err = s.order.UpdateStatus(s.ctx, order.ID, "refunded")
	s.ErrorIs(err, apperr.ErrValidation)

	_, err = s.order.UpdateStatus(s.ctx, 9999, model.OrderStatusPaid)
	s.ErrorIs(err, apperr.ErrOrderNotFound)

	for _, next := range []model.OrderStatus{model.OrderStatusPaid, model.OrderStatusShipped, model.OrderStatusDelivered} {
		updated, err := s.order.UpdateStatus(s.ctx, order.ID, next)
		s.Require().NoError(err)
		s.Equal(next, updated.Status)
	}

	_, err = s.order.UpdateStatus(s.ctx, order.ID, model.OrderStatusDelivered)
	s.ErrorIs(err, apperr.ErrInvalidTransition)

	_, err = s.order.UpdateStatus(s.ctx, order.ID, model.OrderStatusCancelled)
	s.ErrorIs(err, apperr.ErrInvalidTransition)
}

func (s *serviceSuite) TestConcurrentStatusChangesHaveOneWinner() {
	order, err := s.order.Checkout(s.ctx, 1, []dto.OrderItem{{ProductID: s.tee.ID}}, "")
	s.Require().NoError(err)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.order.UpdateStatus(s.ctx, order.ID, model.OrderStatusPaid)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded int
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, apperr.ErrInvalidTransition)
	}
	s.Equal(1, succeeded)

	got, err := s.order.Get(s.ctx, order.ID, 1)
	s.Require().NoError(err)
	s.Equal(model.OrderStatusPaid, got.Status)
}

func (s *serviceSuite) TestCancel() {
	order, err := s.order.Checkout(s.ctx, 1, []dto.OrderItem{{ProductID: s.tee.ID}}, "")
	s.Require().NoError(err)

	_, err = s.order.Cancel(s.ctx, order.ID, 2)
	s.ErrorIs(err, apperr.ErrOrderNotFound)

	cancelled, err := s.order.Cancel(s.ctx, order.ID, 1)
	s.Require().NoError(err)
	s.Equal(model.OrderStatusCancelled, cancelled.Status)

	_, err = s.order.Cancel(s.ctx, order.ID, 1)
	s.ErrorIs(err, apperr.ErrInvalidTransition)
}
