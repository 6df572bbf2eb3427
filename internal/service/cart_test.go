package service_test

import (
	"shop-api/internal/apperr"
	"shop-api/internal/model"
	"sync"
)

func (s *serviceSuite) TestGetOrCreateActiveCartReusesCart() {
	first, err := s.cart.GetOrCreateActiveCart(s.ctx, 1)
	s.Require().NoError(err)
	s.Empty(first.Items)

	second, err := s.cart.GetOrCreateActiveCart(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)

	other, err := s.cart.GetOrCreateActiveCart(s.ctx, 2)
	s.Require().NoError(err)
	s.NotEqual(first.ID, other.ID)
}

func (s *serviceSuite) TestAddItemMergesLines() {
	_, err := s.cart.AddItem(s.ctx, 1, s.tee.ID, 2)
	s.Require().NoError(err)

	cart, err := s.cart.AddItem(s.ctx, 1, s.tee.ID, 3)
	s.Require().NoError(err)
	s.Require().Len(cart.Items, 1)
	s.Equal(5, cart.Items[0].Quantity)
	s.Equal("10.00", cart.Items[0].PriceAtTime.StringFixed(2))
}

func (s *serviceSuite) TestAddItemValidation() {
	_, err := s.cart.AddItem(s.ctx, 1, 999, 1)
	s.ErrorIs(err, apperr.ErrProductNotFound)
	s.Contains(err.Error(), "999")

	_, err = s.cart.AddItem(s.ctx, 1, s.tee.ID, 0)
	s.ErrorIs(err, apperr.ErrInvalidQuantity)

	_, err = s.cart.AddItem(s.ctx, 1, s.tee.ID, -2)
	s.ErrorIs(err, apperr.ErrInvalidQuantity)
}

func (s *serviceSuite) TestConcurrentAddsAreNotLost() {
	_, err := s.cart.GetOrCreateActiveCart(s.ctx, 1)
	s.Require().NoError(err)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.cart.AddItem(s.ctx, 1, s.tee.ID, 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	cart, err := s.cart.GetOrCreateActiveCart(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(cart.Items, 1)
	s.Equal(10, cart.Items[0].Quantity)
}

func (s *serviceSuite) TestUpdateItem() {
	cart, err := s.cart.AddItem(s.ctx, 1, s.tee.ID, 2)
	s.Require().NoError(err)
	itemID := cart.Items[0].ID

	_, err = s.cart.UpdateItem(s.ctx, 1, itemID, 0)
	s.ErrorIs(err, apperr.ErrInvalidQuantity)

	cart, err = s.cart.GetOrCreateActiveCart(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(2, cart.Items[0].Quantity)

	cart, err = s.cart.UpdateItem(s.ctx, 1, itemID, 7)
	s.Require().NoError(err)
	s.Equal(7, cart.Items[0].Quantity)

	_, err = s.cart.UpdateItem(s.ctx, 1, itemID+100, 1)
	s.ErrorIs(err, apperr.ErrItemNotFound)
}

func (s *serviceSuite) TestCartOwnershipIsolation() {
	cart, err := s.cart.AddItem(s.ctx, 1, s.tee.ID, 2)
	s.Require().NoError(err)
	itemID := cart.Items[0].ID

	_, err = s.cart.UpdateItem(s.ctx, 2, itemID, 5)
	s.ErrorIs(err, apperr.ErrItemNotFound)

	_, err = s.cart.AddItem(s.ctx, 2, s.jeans.ID, 1)
	s.Require().NoError(err)

	_, err = s.cart.RemoveItem(s.ctx, 2, itemID)
	s.ErrorIs(err, apperr.ErrItemNotFound)

	cart, err = s.cart.GetOrCreateActiveCart(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(cart.Items, 1)
	s.Equal(2, cart.Items[0].Quantity)
}

func (s *serviceSuite) TestRemoveItem() {
	_, err := s.cart.AddItem(s.ctx, 1, s.tee.ID, 1)
	s.Require().NoError(err)
	cart, err := s.cart.AddItem(s.ctx, 1, s.jeans.ID, 1)
	s.Require().NoError(err)

	cart, err = s.cart.RemoveItem(s.ctx, 1, cart.Items[0].ID)
	s.Require().NoError(err)
	s.Require().Len(cart.Items, 1)
	s.Equal(s.jeans.ID, cart.Items[0].ProductID)
}

func (s *serviceSuite) TestClearKeepsCart() {
	err := s.cart.Clear(s.ctx, 1)
	s.ErrorIs(err, apperr.ErrCartNotFound)

	cart, err := s.cart.AddItem(s.ctx, 1, s.tee.ID, 3)
	s.Require().NoError(err)

	s.Require().NoError(s.cart.Clear(s.ctx, 1))

	after, err := s.cart.GetOrCreateActiveCart(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(cart.ID, after.ID)
	s.Empty(after.Items)
	s.Equal(int64(1), s.count(&model.Cart{}, "user_id = ?", 1))
}
