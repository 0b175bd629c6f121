package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/jewelry-storefront/internal/addressbook"
	"github.com/iliyamo/jewelry-storefront/internal/model"
)

// AddressHandler is the signed-in user's address book.
type AddressHandler struct {
	Book *addressbook.Store
}

// NewAddressHandler wires the handler to its store.
func NewAddressHandler(b *addressbook.Store) *AddressHandler {
	return &AddressHandler{Book: b}
}

// List handles GET /v1/addresses.  It reloads the list from the backend.
func (h *AddressHandler) List(c echo.Context) error {
	list, err := h.Book.Load(c.Request().Context())
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Create handles POST /v1/addresses.  A client-supplied id is ignored.
func (h *AddressHandler) Create(c echo.Context) error {
	var a model.Address
	if err := c.Bind(&a); err != nil {
		return badBody(c)
	}
	a.ID = ""
	saved, err := h.Book.Create(c.Request().Context(), a)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusCreated, saved)
}

// Update handles PUT /v1/addresses/:id.
func (h *AddressHandler) Update(c echo.Context) error {
	var a model.Address
	if err := c.Bind(&a); err != nil {
		return badBody(c)
	}
	a.ID = c.Param("id")
	saved, err := h.Book.Update(c.Request().Context(), a)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, saved)
}

// Delete handles DELETE /v1/addresses/:id.
func (h *AddressHandler) Delete(c echo.Context) error {
	if err := h.Book.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
