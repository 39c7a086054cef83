package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vetra-app/vetra/internal/utils"
)

// JWTMiddleware verifies the bearer token and stores the claims on the context
// under user_id, shop_id and role.
func JWTMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := utils.ClaimsFromHeader(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		c.Set("user_id", claims.UserID)
		c.Set("shop_id", claims.ShopID)
		c.Set("role", claims.Role)
		return next(c)
	}
}
