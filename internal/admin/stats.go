package admin

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vetra-app/vetra/internal/db"
)

// GET /admin/stats
func Stats(c echo.Context) error {
	ctx := context.Background()

	var users, shops, products, pending, wardrobeItems, generations, transactions int

	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&users)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM shops`).Scan(&shops)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&products)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE moderation_status = 'pending'`).Scan(&pending)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM wardrobe_items`).Scan(&wardrobeItems)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM generations`).Scan(&generations)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&transactions)

	return c.JSON(http.StatusOK, echo.Map{
		"users":              users,
		"shops":              shops,
		"products":           products,
		"pending_moderation": pending,
		"wardrobe_items":     wardrobeItems,
		"generations":        generations,
		"transactions":       transactions,
	})
}
