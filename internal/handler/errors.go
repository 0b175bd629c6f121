package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/jewelry-storefront/internal/addressbook"
	"github.com/iliyamo/jewelry-storefront/internal/gateway"
	"github.com/iliyamo/jewelry-storefront/internal/middleware"
	"github.com/iliyamo/jewelry-storefront/internal/session"
	"github.com/iliyamo/jewelry-storefront/internal/shop"
)

const referencedProductMsg = "product is referenced by existing orders; mark it out of stock instead"

// respond maps store and gateway errors onto the JSON error shape the UI
// understands: {"error": message} plus "redirect" when the user has to
// sign in again.
func respond(c echo.Context, err error) error {
	switch {
	case errors.Is(err, gateway.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": gateway.Detail(err, "invalid email or password")})
	case gateway.IsAuthFailure(err), errors.Is(err, session.ErrNotAuthenticated):
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error":    "sign in required",
			"redirect": middleware.SignInPath,
		})
	case errors.Is(err, gateway.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": gateway.Detail(err, referencedProductMsg)})
	case errors.Is(err, shop.ErrProductNotFound), errors.Is(err, shop.ErrOrderNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, gateway.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": gateway.Detail(err, "not found")})
	case errors.Is(err, shop.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, gateway.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": gateway.Detail(err, "invalid request")})
	case errors.Is(err, shop.ErrInvalidProduct),
		errors.Is(err, shop.ErrInvalidCheckout),
		errors.Is(err, shop.ErrEmptyCart),
		errors.Is(err, addressbook.ErrInvalidAddress):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	c.Logger().Errorf("backend call failed: %v", err)
	return c.JSON(http.StatusBadGateway, echo.Map{"error": "backend unavailable"})
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}
