package user

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vetra-app/vetra/internal/db"
)

type UpdateProfileRequest struct {
	Name string `json:"name"`
}

// PATCH /user/profile
func UpdateProfile(c echo.Context) error {
	userID, ok := c.Get("user_id").(int64)
	if !ok || userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	query := `
		UPDATE users
		SET name = COALESCE(NULLIF($1, ''), name)
		WHERE id = $2
	`
	_, err := db.Conn.Exec(c.Request().Context(), query, req.Name, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "profile updated successfully",
	})
}

// GET /user/:id/profile
func GetPublicProfile(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	var (
		id        int64
		name      string
		role      string
		createdAt time.Time
	)
	if err := db.Conn.QueryRow(context.Background(), `
		SELECT id, name, role, created_at
		FROM users
		WHERE id = $1 AND is_active = TRUE
	`, userID).Scan(&id, &name, &role, &createdAt); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":         id,
		"name":       name,
		"role":       role,
		"created_at": createdAt.Format(time.RFC3339),
	})
}
