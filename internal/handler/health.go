package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health reports liveness for load balancers.  "degraded" is true while the
// catalog is served from the built-in fallback because the backend could
// not be reached.
func Health(catalog interface{ Degraded() bool }) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"status":   "ok",
			"degraded": catalog.Degraded(),
		})
	}
}
