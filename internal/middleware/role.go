package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole restricts a route group to the listed roles.  The role claim
// is injected by JWTAuth; requests with a missing or unknown role are
// rejected with 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if role == "" || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
