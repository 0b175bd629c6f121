package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/jewelry-storefront/internal/shop"
)

// CartHandler drives the in-memory cart.  Every change is local until
// checkout.
type CartHandler struct {
	Shop *shop.Store
}

// NewCartHandler wires the handler to its store.
func NewCartHandler(s *shop.Store) *CartHandler {
	return &CartHandler{Shop: s}
}

type addItemReq struct {
	ProductID string `json:"productId"`
}

type quantityReq struct {
	Delta int `json:"delta"`
}

type toggleReq struct {
	Open *bool `json:"open"`
}

func (h *CartHandler) view(c echo.Context, status int) error {
	return c.JSON(status, echo.Map{
		"items":     h.Shop.Cart(),
		"itemCount": h.Shop.ItemCount(),
		"subtotal":  h.Shop.Subtotal().StringFixed(2),
		"open":      h.Shop.CartOpen(),
	})
}

// Get handles GET /v1/cart.
func (h *CartHandler) Get(c echo.Context) error {
	return h.view(c, http.StatusOK)
}

// AddItem handles POST /v1/cart/items: adds one unit of a catalog product,
// looked up by id or slug.
func (h *CartHandler) AddItem(c echo.Context) error {
	var req addItemReq
	if err := c.Bind(&req); err != nil || req.ProductID == "" {
		return badBody(c)
	}
	p, ok := h.Shop.Product(req.ProductID)
	if !ok {
		return respond(c, shop.ErrProductNotFound)
	}
	h.Shop.AddToCart(p)
	return h.view(c, http.StatusOK)
}

// UpdateItem handles PATCH /v1/cart/items/:id: applies a quantity delta;
// the quantity never drops below 1.
func (h *CartHandler) UpdateItem(c echo.Context) error {
	var req quantityReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if _, ok := h.Shop.UpdateQuantity(c.Param("id"), req.Delta); !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "item not in cart"})
	}
	return h.view(c, http.StatusOK)
}

// RemoveItem handles DELETE /v1/cart/items/:id.  Removing a missing line
// is not an error.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	h.Shop.RemoveFromCart(c.Param("id"))
	return h.view(c, http.StatusOK)
}

// Clear handles DELETE /v1/cart.
func (h *CartHandler) Clear(c echo.Context) error {
	h.Shop.ClearCart()
	return h.view(c, http.StatusOK)
}

// Toggle handles POST /v1/cart/toggle: sets visibility from {"open": bool}
// or flips it on an empty body.
func (h *CartHandler) Toggle(c echo.Context) error {
	var req toggleReq
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return badBody(c)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"open": h.Shop.ToggleCart(req.Open)})
}
