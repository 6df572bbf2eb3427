package handler

import (
	"io"
	"net/http"
	"shop-api/internal/apperr"
	"shop-api/internal/dto"
	"shop-api/internal/service"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

func (h *PaymentHandler) InitializePayment(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.InitializePaymentRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	payment, data, err := h.paymentService.Initialize(ctx, req.OrderID, req.Email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &dto.InitializePaymentResponse{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        payment.Reference,
	})
}

func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	ctx := c.Request().Context()

	reference := c.Param("reference")
	if reference == "" {
		return apperr.ErrValidation.Withf("'reference' is required")
	}

	payment, err := h.paymentService.Verify(ctx, reference)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, payment)
}

func (h *PaymentHandler) PaystackWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return apperr.ErrInvalidPayload.Withf("read webhook body").Wrap(err)
	}

	if err := h.paymentService.HandleWebhook(ctx, c.Request().Header, body); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &dto.MessageResponse{Message: "ok"})
}
