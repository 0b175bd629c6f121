package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/jewelry-storefront/internal/model"
	"github.com/iliyamo/jewelry-storefront/internal/shop"
)

// AdminHandler is the admin console: product CRUD, the stock flag and
// order status changes.  Routes are guarded by RequireRole("admin").
type AdminHandler struct {
	Shop *shop.Store
}

// NewAdminHandler wires the handler to its store.
func NewAdminHandler(s *shop.Store) *AdminHandler {
	return &AdminHandler{Shop: s}
}

type stockReq struct {
	InStock *bool `json:"inStock"`
}

type statusReq struct {
	Status model.OrderStatus `json:"status"`
}

// CreateProduct handles POST /v1/admin/products.  The backend assigns the
// id.
func (h *AdminHandler) CreateProduct(c echo.Context) error {
	var p model.Product
	if err := c.Bind(&p); err != nil {
		return badBody(c)
	}
	p.ID = ""
	saved, err := h.Shop.CreateProduct(c.Request().Context(), p)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusCreated, saved)
}

// UpdateProduct handles PUT /v1/admin/products/:id.  The path id wins over
// one in the body.
func (h *AdminHandler) UpdateProduct(c echo.Context) error {
	var p model.Product
	if err := c.Bind(&p); err != nil {
		return badBody(c)
	}
	p.ID = c.Param("id")
	saved, err := h.Shop.UpdateProduct(c.Request().Context(), p)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, saved)
}

// DeleteProduct handles DELETE /v1/admin/products/:id: answers 409 with
// the backend's explanation when orders still reference the product.
func (h *AdminHandler) DeleteProduct(c echo.Context) error {
	if err := h.Shop.DeleteProduct(c.Request().Context(), c.Param("id")); err != nil {
		return respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleStock handles POST /v1/admin/products/:id/toggle-stock: flips the
// display flag locally.  It is not saved; use SetStock to persist.
func (h *AdminHandler) ToggleStock(c echo.Context) error {
	p, err := h.Shop.ToggleStock(c.Param("id"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"product": p, "persisted": false})
}

// SetStock handles PUT /v1/admin/products/:id/stock.  The change is saved
// on the backend.
func (h *AdminHandler) SetStock(c echo.Context) error {
	var req stockReq
	if err := c.Bind(&req); err != nil || req.InStock == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "inStock required"})
	}
	p, err := h.Shop.SetStock(c.Request().Context(), c.Param("id"), *req.InStock)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"product": p, "persisted": true})
}

// ListOrders handles GET /v1/admin/orders.  Admins see every order.
func (h *AdminHandler) ListOrders(c echo.Context) error {
	orders, err := h.Shop.ListOrders(c.Request().Context())
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// UpdateOrderStatus handles PATCH /v1/admin/orders/:id/status: allows the
// next forward step or cancellation only.
func (h *AdminHandler) UpdateOrderStatus(c echo.Context) error {
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if !req.Status.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}
	o, err := h.Shop.AdvanceOrder(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, o)
}
