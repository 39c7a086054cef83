package admin

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vetra-app/vetra/internal/db"
	"github.com/vetra-app/vetra/internal/realtime"
)

type AdminUser struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// GET /admin/users
func ListUsers(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(),
		`SELECT id, name, email, role, is_active, created_at FROM users ORDER BY created_at DESC`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch users"})
	}
	defer rows.Close()

	var users []AdminUser
	for rows.Next() {
		var u AdminUser
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.IsActive, &u.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read user record"})
		}
		users = append(users, u)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// kicker closes a live websocket connection for an identity.
type kicker interface {
	Kick(class string, identity int64)
}

// SuspendUser handles POST /admin/users/:id/suspend. A suspended user loses
// any live websocket connection immediately, including the shop connection if
// they own one.
func SuspendUser(hub kicker) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
		}

		ctx := context.Background()
		ct, err := db.Conn.Exec(ctx, `UPDATE users SET is_active = FALSE WHERE id = $1`, userID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to suspend user"})
		}
		if ct.RowsAffected() == 0 {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}

		hub.Kick(realtime.ClassUser, userID)
		hub.Kick(realtime.ClassAdmin, userID)
		var shopID int64
		if err := db.Conn.QueryRow(ctx, `SELECT id FROM shops WHERE owner_id = $1`, userID).Scan(&shopID); err == nil {
			hub.Kick(realtime.ClassShop, shopID)
		}

		return c.JSON(http.StatusOK, echo.Map{"message": "user suspended", "user_id": userID})
	}
}

// POST /admin/users/:id/activate
func ActivateUser(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ct, err := db.Conn.Exec(context.Background(), `UPDATE users SET is_active = TRUE WHERE id = $1`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to activate user"})
	}
	if ct.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user activated", "user_id": userID})
}
