package middleware // middleware provides shared request processing for handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/zaporka-api/internal/service"
)

// JWTAuth returns an Echo middleware that validates the Bearer token and
// injects the caller's identity into the request context. Protected routes
// wrap their handlers with it so they can read the identity through
// service.IdentityFrom. The caller's id and role are also set as "user_id"
// and "role" on the Echo context for the request logger.
//
// Any verification failure stops the chain; the error is rendered by the
// application's error handler with its 401 status.
func JWTAuth(gate *service.Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx, id, err := gate.Authenticate(req.Context(), req.Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return err
			}
			// downstream handlers and services read the identity from the context
			c.SetRequest(req.WithContext(ctx))
			c.Set("user_id", id.ID)
			c.Set("role", string(id.Role))
			return next(c)
		}
	}
}
