package shop

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vetra-app/vetra/internal/db"
	"github.com/vetra-app/vetra/internal/utils"
)

type RegisterRequest struct {
	ShopName string `json:"shop_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

type RegisterResponse struct {
	ShopID int64  `json:"shop_id"`
	Token  string `json:"token"`
}

// Register creates a shop owned by the authenticated user and reissues the
// token with the shop id baked in. One shop per user.
func Register(c echo.Context) error {
	userID, ok := c.Get("user_id").(int64)
	if !ok || userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role, _ := c.Get("role").(string)

	req := new(RegisterRequest)
	if err := c.Bind(req); err != nil || req.ShopName == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "shop_name and email are required"})
	}

	ctx := context.Background()
	var existing int64
	if err := db.Conn.QueryRow(ctx,
		`SELECT id FROM shops WHERE owner_id = $1`, userID).Scan(&existing); err == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "user already owns a shop"})
	}

	var shopID int64
	err := db.Conn.QueryRow(ctx, `
		INSERT INTO shops (owner_id, shop_name, email, balance, created_at)
		VALUES ($1, $2, $3, 0, $4)
		RETURNING id`,
		userID, req.ShopName, req.Email, time.Now(),
	).Scan(&shopID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create shop"})
	}

	token, err := utils.MintToken(userID, shopID, role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}
	return c.JSON(http.StatusCreated, RegisterResponse{ShopID: shopID, Token: token})
}

// GetShop returns a shop's public profile
func GetShop(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shop id"})
	}

	var (
		shopID    int64
		shopName  string
		createdAt time.Time
	)
	if err := db.Conn.QueryRow(context.Background(),
		`SELECT id, shop_name, created_at FROM shops WHERE id = $1`, id).
		Scan(&shopID, &shopName, &createdAt); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "shop not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":         shopID,
		"shop_name":  shopName,
		"created_at": createdAt,
	})
}
