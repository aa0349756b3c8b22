package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// successor of each status on the fulfillment path.
var nextStatus = map[OrderStatus]OrderStatus{
	OrderStatusPending:   OrderStatusPreparing,
	OrderStatusPreparing: OrderStatusShipped,
	OrderStatusShipped:   OrderStatusDelivered,
}

// Valid reports whether s is a recognized status value.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether the edge s -> next is legal. Orders move
// strictly along PENDING -> PREPARING -> SHIPPED -> DELIVERED; CANCELLED is
// reachable from any non-terminal status. Terminal statuses have no exits.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	return nextStatus[s] == next
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// Order is created atomically with its lines and is immutable afterwards
// except for Status and DeliveredAt.
type Order struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	DeliveryAddress string          `json:"delivery_address"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee"`
	Total           decimal.Decimal `json:"total"`
	Status          OrderStatus     `json:"status"`
	Lines           []OrderLine     `json:"lines"`
	CreatedAt       time.Time       `json:"created_at"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
}

// OrderLine records what was bought at which price. UnitPrice is captured at
// placement time and is never recomputed from the live catalog.
type OrderLine struct {
	OrderID     int64           `json:"order_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}
