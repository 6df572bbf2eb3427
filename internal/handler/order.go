package handler

import (
	"net/http"
	"shop-api/internal/dto"
	"shop-api/internal/middleware"
	"shop-api/internal/model"
	"shop-api/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// CreateOrder checks out the given items, or the caller's active cart when "items" is omitted.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateOrderRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	var (
		order *model.Order
		err   error
	)
	if req.Items == nil {
		order, err = h.orderService.CheckoutCart(ctx, middleware.UserID(c), req.ShippingAddress)
	} else {
		order, err = h.orderService.Checkout(ctx, middleware.UserID(c), req.Items, req.ShippingAddress)
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	orders, err := h.orderService.List(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}
	if orders == nil {
		orders = []*model.Order{}
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orderService.Get(ctx, orderID, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orderService.Cancel(ctx, orderID, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateOrderStatusRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	order, err := h.orderService.UpdateStatus(ctx, orderID, req.Status)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}
