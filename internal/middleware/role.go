package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/zaporka-api/internal/apperr"
	"github.com/iliyamo/zaporka-api/internal/model"
	"github.com/iliyamo/zaporka-api/internal/service"
)

// RequireRole returns a middleware that enforces that the authenticated
// caller has one of the specified roles. It must run after JWTAuth; without
// an identity in the context the request is treated as unauthenticated.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := service.IdentityFrom(c.Request().Context())
			if !ok {
				return apperr.New(apperr.KindMissingToken, "missing bearer token")
			}
			if err := service.Authorize(id, roles...); err != nil {
				return err
			}
			return next(c)
		}
	}
}
