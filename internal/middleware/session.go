package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/jewelry-storefront/internal/model"
)

// SignInPath is where the UI sends a user whose session is gone.
const SignInPath = "/signin"

// Identity is the read side of the session store.
type Identity interface {
	User() (model.User, bool)
}

// RequireSession rejects anonymous requests with 401 and a redirect hint.
// For signed-in users it stores the user id and role in the context under
// "user_id" and "role" so RequireRole and the rate limiter can read them.
func RequireSession(id Identity) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := id.User()
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error":    "sign in required",
					"redirect": SignInPath,
				})
			}
			c.Set("user_id", u.ID)
			c.Set("role", u.Role)
			return next(c)
		}
	}
}
