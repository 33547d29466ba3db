// Package model содержит доменные сущности ресторанного бэк-офиса.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus описывает доступность позиции меню.
type ProductStatus string

const (
	ProductStatusAvailable   ProductStatus = "available"
	ProductStatusUnavailable ProductStatus = "unavailable"
)

// Product описывает позицию меню.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Status      ProductStatus   `json:"status"`
	Description string          `json:"description"`
}

// Client описывает клиента ресторана.
type Client struct {
	ID       int64  `json:"id"`
	Name     string `json:"client_name"`
	LastName string `json:"last_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// PaymentMethod описывает способ оплаты заказа.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
)

// OrderStatus описывает статус заказа.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order описывает заказ клиента. Total всегда равен сумме Subtotal его позиций.
type Order struct {
	ID            int64           `json:"id"`
	Date          time.Time       `json:"date"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Status        OrderStatus     `json:"status"`
	ClientID      int64           `json:"client_id"`
}

// LineItem описывает позицию заказа. UnitPrice фиксируется в момент добавления позиции.
type LineItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderDetails содержит заказ вместе с клиентом и позициями.
type OrderDetails struct {
	Order
	ClientName string     `json:"client_name"`
	Items      []LineItem `json:"items"`
}

// ProductInput содержит проверенные данные формы позиции меню.
type ProductInput struct {
	Name        string
	Price       decimal.Decimal
	Status      ProductStatus
	Description string
}

// ClientInput содержит проверенные данные формы клиента.
type ClientInput struct {
	Name     string
	LastName string
	Phone    string
	Email    string
}

// OrderInput содержит проверенные данные формы заказа.
type OrderInput struct {
	Date          time.Time
	ClientID      int64
	PaymentMethod PaymentMethod
	Status        OrderStatus
}

// LineItemInput содержит проверенные данные формы позиции заказа.
type LineItemInput struct {
	ProductID int64
	Quantity  int
}
