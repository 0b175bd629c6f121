// Package router registers the storefront's HTTP surface on echo.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/jewelry-storefront/internal/handler"
	"github.com/iliyamo/jewelry-storefront/internal/middleware"
	"github.com/iliyamo/jewelry-storefront/internal/model"
)

// Handlers groups what RegisterRoutes wires.  LoginLimit guards the login
// endpoint; nil means no limit.
type Handlers struct {
	Health     echo.HandlerFunc
	Session    *handler.SessionHandler
	Catalog    *handler.CatalogHandler
	Cart       *handler.CartHandler
	Orders     *handler.OrderHandler
	Addresses  *handler.AddressHandler
	Admin      *handler.AdminHandler
	Identity   middleware.Identity
	LoginLimit echo.MiddlewareFunc
}

// RegisterRoutes mounts every route.  Catalog and cart are public; orders
// and addresses need a session; /v1/admin needs the admin role as well.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/healthz", h.Health)

	v1 := e.Group("/v1")

	sess := v1.Group("/session")
	sess.GET("", h.Session.Get)
	if h.LoginLimit != nil {
		sess.POST("/login", h.Session.Login, h.LoginLimit)
	} else {
		sess.POST("/login", h.Session.Login)
	}
	sess.POST("/signup", h.Session.Signup)
	sess.POST("/logout", h.Session.Logout)
	sess.PUT("/profile", h.Session.UpdateProfile, middleware.RequireSession(h.Identity))

	v1.GET("/categories", h.Catalog.Categories)
	v1.GET("/products", h.Catalog.Products)
	v1.GET("/products/:id", h.Catalog.Product)

	cart := v1.Group("/cart")
	cart.GET("", h.Cart.Get)
	cart.DELETE("", h.Cart.Clear)
	cart.POST("/items", h.Cart.AddItem)
	cart.PATCH("/items/:id", h.Cart.UpdateItem)
	cart.DELETE("/items/:id", h.Cart.RemoveItem)
	cart.POST("/toggle", h.Cart.Toggle)

	// route-level so unknown /v1 paths stay 404 for anonymous callers
	signedIn := middleware.RequireSession(h.Identity)
	v1.POST("/checkout", h.Orders.Checkout, signedIn)
	v1.GET("/orders", h.Orders.List, signedIn)
	v1.GET("/addresses", h.Addresses.List, signedIn)
	v1.POST("/addresses", h.Addresses.Create, signedIn)
	v1.PUT("/addresses/:id", h.Addresses.Update, signedIn)
	v1.DELETE("/addresses/:id", h.Addresses.Delete, signedIn)

	admin := v1.Group("/admin", signedIn, middleware.RequireRole(model.RoleAdmin))
	admin.POST("/products", h.Admin.CreateProduct)
	admin.PUT("/products/:id", h.Admin.UpdateProduct)
	admin.DELETE("/products/:id", h.Admin.DeleteProduct)
	admin.POST("/products/:id/toggle-stock", h.Admin.ToggleStock)
	admin.PUT("/products/:id/stock", h.Admin.SetStock)
	admin.GET("/orders", h.Admin.ListOrders)
	admin.PATCH("/orders/:id/status", h.Admin.UpdateOrderStatus)
}
