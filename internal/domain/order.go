package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order. Staff may set any value.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// StatusChoice pairs a status with its display label
type StatusChoice struct {
	Value OrderStatus `json:"value"`
	Label string      `json:"label"`
}

// OrderStatusChoices lists statuses in workflow order.
var OrderStatusChoices = []StatusChoice{
	{OrderStatusPending, "Pending"},
	{OrderStatusProcessing, "Processing"},
	{OrderStatusShipped, "Shipped"},
	{OrderStatusDelivered, "Delivered"},
	{OrderStatusCancelled, "Cancelled"},
}

// Valid reports whether s is one of the known statuses
func (s OrderStatus) Valid() bool {
	for _, c := range OrderStatusChoices {
		if c.Value == s {
			return true
		}
	}
	return false
}

// Order is a placed customer order with totals frozen at checkout.
type Order struct {
	ID           int64           `json:"id" db:"id"`
	CustomerName string          `json:"customer_name" db:"customer_name"`
	Email        string          `json:"email" db:"email"`
	Phone        string          `json:"phone" db:"phone"`
	Address      string          `json:"address" db:"address"`
	City         string          `json:"city" db:"city"`
	State        string          `json:"state" db:"state"`
	PostalCode   string          `json:"postal_code" db:"postal_code"`
	Notes        string          `json:"notes" db:"notes"`
	Status       OrderStatus     `json:"status" db:"status"`
	Subtotal     decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax          decimal.Decimal `json:"tax" db:"tax"`
	Total        decimal.Decimal `json:"total" db:"total"`
	Items        []OrderItem     `json:"items,omitempty"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// OrderItem is one purchased line. Price is the product price at purchase time.
type OrderItem struct {
	ID          int64           `json:"id" db:"id"`
	OrderID     int64           `json:"order_id" db:"order_id"`
	ProductID   int64           `json:"product_id" db:"product_id"`
	ProductName string          `json:"product_name" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Price       decimal.Decimal `json:"price" db:"price"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
