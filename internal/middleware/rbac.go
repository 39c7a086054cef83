package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRoles ensures the requester's role is one of the allowed roles.
// Usage: group.Use(RequireRoles("admin"))
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if role == "" {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "role missing"})
			}

			for _, r := range roles {
				if role == r {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
	}
}

// RequireShop ensures the requester's token carries a shop identity, i.e. the
// user registered a shop and logged in after.
func RequireShop(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		shopID, _ := c.Get("shop_id").(int64)
		if shopID == 0 {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "shop account required"})
		}
		return next(c)
	}
}
