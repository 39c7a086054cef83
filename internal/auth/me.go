package auth

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vetra-app/vetra/internal/db"
)

// Me returns the currently authenticated user's profile
func Me(c echo.Context) error {
	userID, ok := c.Get("user_id").(int64)
	if !ok || userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var (
		name, email, role string
		isActive          bool
	)
	err := db.Conn.QueryRow(context.Background(),
		`SELECT name, email, role, is_active FROM users WHERE id=$1`, userID).
		Scan(&name, &email, &role, &isActive)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	resp := echo.Map{
		"id":        userID,
		"name":      name,
		"email":     email,
		"role":      role,
		"is_active": isActive,
	}
	if shopID, ok := c.Get("shop_id").(int64); ok && shopID != 0 {
		resp["shop_id"] = shopID
	}
	return c.JSON(http.StatusOK, resp)
}
