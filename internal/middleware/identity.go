package middleware

// identity.go holds helpers shared across middleware files.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/zaporka-api/internal/service"
)

// userID returns the authenticated caller's id, or "guest" when the request
// did not pass through JWTAuth.
func userID(c echo.Context) string {
	if id, ok := service.IdentityFrom(c.Request().Context()); ok && id.ID != "" {
		return id.ID
	}
	return "guest"
}
