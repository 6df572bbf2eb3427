package dto

import (
	"shop-api/internal/model"
	"time"

	"github.com/shopspring/decimal"
)

type AddCartItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  *int `json:"quantity"` // defaults to 1
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity"`
}

type CartResponse struct {
	CartID    uint             `json:"cart_id"`
	UserID    uint             `json:"user_id"`
	Items     []model.CartItem `json:"items"`
	Subtotal  decimal.Decimal  `json:"subtotal"`
	CreatedAt time.Time        `json:"created_at"`
}

func NewCartResponse(cart *model.Cart) *CartResponse {
	subtotal := decimal.Zero
	for _, item := range cart.Items {
		subtotal = subtotal.Add(item.PriceAtTime.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	items := cart.Items
	if items == nil {
		items = []model.CartItem{}
	}
	return &CartResponse{
		CartID:    cart.ID,
		UserID:    cart.UserID,
		Items:     items,
		Subtotal:  subtotal,
		CreatedAt: cart.CreatedAt,
	}
}

type OrderItem struct {
	ProductID uint `json:"product_id"`
	Quantity  *int `json:"quantity"` // defaults to 1
}

// CreateOrderRequest checks out Items, or the caller's active cart when Items is omitted.
type CreateOrderRequest struct {
	Items           []OrderItem `json:"items"`
	ShippingAddress string      `json:"shipping_address"`
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status"`
}

type InitializePaymentRequest struct {
	OrderID uint   `json:"order_id"`
	Email   string `json:"email"`
}

type InitializePaymentResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code,omitempty"`
	Reference        string `json:"reference"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
