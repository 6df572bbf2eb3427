package handler

import (
	"net/http"
	"shop-api/internal/apperr"
	"shop-api/internal/dto"
	"shop-api/internal/middleware"
	"shop-api/internal/service"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	cartService service.CartService
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	ctx := c.Request().Context()

	cart, err := h.cartService.GetOrCreateActiveCart(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}

func (h *CartHandler) AddItem(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.AddCartItemRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.ProductID == 0 {
		return apperr.ErrValidation.Withf("'product_id' is required")
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := h.cartService.AddItem(ctx, middleware.UserID(c), req.ProductID, quantity)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.NewCartResponse(cart))
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()

	itemID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateCartItemRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.Quantity == nil {
		return apperr.ErrValidation.Withf("'quantity' is required")
	}

	cart, err := h.cartService.UpdateItem(ctx, middleware.UserID(c), itemID, *req.Quantity)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()

	itemID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	cart, err := h.cartService.RemoveItem(ctx, middleware.UserID(c), itemID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.cartService.Clear(ctx, middleware.UserID(c)); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &dto.MessageResponse{Message: "cart cleared"})
}
