package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/jewelry-storefront/internal/model"
	"github.com/iliyamo/jewelry-storefront/internal/shop"
)

// CatalogHandler serves the browsable catalog from memory.  Nothing here
// calls the backend.
type CatalogHandler struct {
	Shop *shop.Store
}

// NewCatalogHandler wires the handler to its store.
func NewCatalogHandler(s *shop.Store) *CatalogHandler {
	return &CatalogHandler{Shop: s}
}

// Categories handles GET /v1/categories.  The table is static.
func (h *CatalogHandler) Categories(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Shop.Categories())
}

// Products handles GET /v1/products: lists the catalog.  Filters:
// ?category=<id or slug>, ?view=new for new arrivals and ?view=holiday for
// holiday specials.
func (h *CatalogHandler) Products(c echo.Context) error {
	var list []model.Product
	switch {
	case c.QueryParam("view") == "new":
		list = h.Shop.NewArrivals()
	case c.QueryParam("view") == "holiday":
		list = h.Shop.HolidaySpecials()
	case c.QueryParam("category") != "":
		id := c.QueryParam("category")
		if found, ok := h.Shop.Category(id); ok {
			id = found.ID
		}
		list = h.Shop.ProductsByCategory(id)
	default:
		list = h.Shop.Products()
	}
	return c.JSON(http.StatusOK, echo.Map{
		"products": list,
		"degraded": h.Shop.Degraded(),
	})
}

// Product handles GET /v1/products/:id: looks up one product by id or
// slug.
func (h *CatalogHandler) Product(c echo.Context) error {
	p, ok := h.Shop.Product(c.Param("id"))
	if !ok {
		return respond(c, shop.ErrProductNotFound)
	}
	return c.JSON(http.StatusOK, p)
}
