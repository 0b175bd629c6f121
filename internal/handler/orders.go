package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/jewelry-storefront/internal/shop"
)

// OrderHandler covers checkout and the customer's order history.
type OrderHandler struct {
	Shop *shop.Store
}

// NewOrderHandler wires the handler to its store.
func NewOrderHandler(s *shop.Store) *OrderHandler {
	return &OrderHandler{Shop: s}
}

// Checkout handles POST /v1/checkout: places the cart as a
// cash-on-delivery order and answers 201 with the order the backend
// stored.
func (h *OrderHandler) Checkout(c echo.Context) error {
	var req shop.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	o, err := h.Shop.PlaceOrder(c.Request().Context(), req)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusCreated, o)
}

// List handles GET /v1/orders.  The backend decides whose orders are
// visible.
func (h *OrderHandler) List(c echo.Context) error {
	orders, err := h.Shop.ListOrders(c.Request().Context())
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}
