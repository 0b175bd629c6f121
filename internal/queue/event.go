// Package queue defines the order events exchanged over RabbitMQ and the
// consumer that records them.
package queue

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/jewelry-storefront/internal/model"
)

// OrderPlacedQueue is the durable queue order.placed events go to.
const OrderPlacedQueue = "order.placed"

// OrderPlacedEvent is published after the backend accepted an order.  It
// carries enough for downstream consumers to log, notify or run analytics
// without calling the backend.
type OrderPlacedEvent struct {
	OrderID       string            `json:"order_id"`
	UserID        string            `json:"user_id"`
	Email         string            `json:"email"`
	CustomerName  string            `json:"customer_name"`
	Phone         string            `json:"phone"`
	PaymentMethod string            `json:"payment_method"`
	Status        string            `json:"status"`
	Items         []OrderPlacedItem `json:"items"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
	Currency      string            `json:"currency"`
	City          string            `json:"city,omitempty"`
	PlacedAt      string            `json:"placed_at"`
}

type OrderPlacedItem struct {
	ProductID       string          `json:"product_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

// NewOrderPlacedEvent builds the event for order o placed by u.
func NewOrderPlacedEvent(o model.Order, u model.User) OrderPlacedEvent {
	placed := o.CreatedAt
	if placed.IsZero() {
		placed = time.Now().UTC()
	}
	ev := OrderPlacedEvent{
		OrderID:       o.ID,
		UserID:        u.ID,
		Email:         u.Email,
		CustomerName:  o.CustomerName,
		Phone:         o.Phone,
		PaymentMethod: o.PaymentMethod,
		Status:        string(o.Status),
		Items:         make([]OrderPlacedItem, 0, len(o.Items)),
		TotalAmount:   o.TotalAmount,
		Currency:      o.Currency,
		PlacedAt:      placed.UTC().Format(time.RFC3339),
	}
	if o.ShippingAddress != nil {
		ev.City = o.ShippingAddress.City
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, OrderPlacedItem{
			ProductID: it.ProductID, Quantity: it.Quantity, PriceAtPurchase: it.PriceAtPurchase,
		})
	}
	return ev
}
