package billing

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vetra-app/vetra/internal/db"
)

// Balance returns the authenticated shop's balance
func Balance(c echo.Context) error {
	shopID, ok := c.Get("shop_id").(int64)
	if !ok || shopID == 0 {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "shop account required"})
	}

	var balance float64
	err := db.Conn.QueryRow(context.Background(),
		`SELECT balance FROM shops WHERE id=$1`, shopID).
		Scan(&balance)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "shop not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"shop_id": shopID,
		"balance": balance,
	})
}
