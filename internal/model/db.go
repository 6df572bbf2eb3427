package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"user_id"`
	Username  string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:120;uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"size:20;not null;default:customer" json:"role"` // customer, admin
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"category_id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Product struct {
	ID          uint            `gorm:"primaryKey" json:"product_id"`
	Name        string          `gorm:"size:150;not null" json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock       int             `gorm:"not null" json:"stock"`
	CategoryID  *uint           `gorm:"index" json:"category_id,omitempty"`
	Category    *Category       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Cart is never deleted. ActiveUserID mirrors UserID while the cart is active and is NULL
// otherwise, so the unique index allows exactly one active cart per user.
type Cart struct {
	ID           uint       `gorm:"primaryKey" json:"cart_id"`
	UserID       uint       `gorm:"index;not null" json:"user_id"`
	Active       bool       `gorm:"not null;default:true" json:"is_active"`
	ActiveUserID *uint      `gorm:"uniqueIndex" json:"-"`
	Items        []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type CartItem struct {
	ID          uint            `gorm:"primaryKey" json:"cart_item_id"`
	CartID      uint            `gorm:"uniqueIndex:idx_cart_product;not null" json:"cart_id"`
	UserID      uint            `gorm:"index;not null" json:"user_id"`
	ProductID   uint            `gorm:"uniqueIndex:idx_cart_product;not null" json:"product_id"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	PriceAtTime decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_at_time"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type Order struct {
	ID              uint            `gorm:"primaryKey" json:"order_id"`
	UserID          uint            `gorm:"index;not null" json:"user_id"`
	User            *User           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Status          OrderStatus     `gorm:"size:20;index;not null" json:"status"`
	ShippingAddress string          `json:"shipping_address,omitempty"`
	Items           []OrderItem     `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	Payments        []Payment       `gorm:"constraint:OnDelete:CASCADE" json:"payments,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"order_item_id"`
	OrderID   uint            `gorm:"index;not null" json:"order_id"`
	ProductID uint            `gorm:"index;not null" json:"product_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
}

type Payment struct {
	ID            uint            `gorm:"primaryKey" json:"payment_id"`
	OrderID       uint            `gorm:"index;not null" json:"order_id"`
	UserID        uint            `gorm:"index;not null" json:"user_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency      string          `gorm:"size:8;not null" json:"currency"`
	Status        PaymentStatus   `gorm:"size:20;index;not null" json:"status"`
	PaymentMethod string          `gorm:"size:50" json:"payment_method,omitempty"`
	Reference     string          `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type WebhookEvent struct {
	ID          uint   `gorm:"primaryKey"`
	EventType   string `gorm:"size:64;uniqueIndex:idx_event_reference;not null"`
	Reference   string `gorm:"size:64;uniqueIndex:idx_event_reference;not null"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}

// All is the AutoMigrate set, in dependency order.
func All() []any {
	return []any{
		&User{},
		&Category{},
		&Product{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&Payment{},
		&WebhookEvent{},
	}
}
