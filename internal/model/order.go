package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethodCOD is the only payment method: cash on delivery.
const PaymentMethodCOD = "COD"

// OrderStatus is the lifecycle state of an order as stored by the backend.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
	OrderFailed    OrderStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled, OrderFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderDelivered, OrderCancelled, OrderFailed:
		return true
	}
	return false
}

// Next returns the single forward step from s, or "" when there is none.
func (s OrderStatus) Next() OrderStatus {
	switch s {
	case OrderPending:
		return OrderConfirmed
	case OrderConfirmed:
		return OrderShipped
	case OrderShipped:
		return OrderDelivered
	}
	return ""
}

// AllowedTransitions lists the statuses an admin may move an order to:
// the next forward step plus cancellation, never a skipped stage.
func (s OrderStatus) AllowedTransitions() []OrderStatus {
	if s.Terminal() || !s.Valid() {
		return nil
	}
	return []OrderStatus{s.Next(), OrderCancelled}
}

// CanTransition reports whether moving from s to to is allowed.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, t := range s.AllowedTransitions() {
		if t == to {
			return true
		}
	}
	return false
}

// OrderItem is one purchased line; PriceAtPurchase is fixed by the backend.
type OrderItem struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"productId"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase"`
}

// Order is a placed cash-on-delivery order.
type Order struct {
	ID              string           `json:"id"`
	UserID          string           `json:"userId"`
	CustomerName    string           `json:"customerName,omitempty"`
	Phone           string           `json:"phone,omitempty"`
	PaymentMethod   string           `json:"paymentMethod"`
	Status          OrderStatus      `json:"status"`
	TotalAmount     decimal.Decimal  `json:"totalAmount"`
	Currency        string           `json:"currency"`
	CreatedAt       time.Time        `json:"createdAt"`
	Items           []OrderItem      `json:"items"`
	ShippingAddress *ShippingAddress `json:"shippingAddress,omitempty"`
}
