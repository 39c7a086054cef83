package settings

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vetra-app/vetra/internal/dispatch"
)

// UpdateHandler is PUT /admin/settings/:key. Writes the setting and
// broadcasts the change to all connected clients.
func UpdateHandler(store *Store, dispatcher *dispatch.Dispatcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		adminID, _ := c.Get("user_id").(int64)
		key := c.Param("key")
		if key == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "setting key required"})
		}

		var req struct {
			Value string `json:"value"`
		}
		if err := c.Bind(&req); err != nil || req.Value == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "value required"})
		}

		old, err := store.Set(context.Background(), key, req.Value)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update setting"})
		}

		dispatcher.SettingsUpdated(key, old, req.Value, adminID)

		return c.JSON(http.StatusOK, echo.Map{"key": key, "value": req.Value})
	}
}
