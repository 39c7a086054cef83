package generation

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vetra-app/vetra/internal/catalog"
)

type createRequest struct {
	ProductID      int64  `json:"product_id"`
	PersonImageURL string `json:"person_image_url"`
}

// CreateGeneration handles POST /generations. The response carries the new
// generation id; progress arrives on the generation's websocket room.
func CreateGeneration(svc *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, _ := c.Get("user_id").(int64)

		var req createRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
		}
		if req.ProductID == 0 || req.PersonImageURL == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id and person_image_url are required"})
		}

		g, err := svc.Create(c.Request().Context(), userID, req.ProductID, req.PersonImageURL)
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not available"})
		case err != nil:
			log.Println("create generation:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not start generation"})
		}
		return c.JSON(http.StatusAccepted, g)
	}
}

// ListGenerations handles GET /generations.
func ListGenerations(store *Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, _ := c.Get("user_id").(int64)
		limit := 50
		if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 && v <= 200 {
			limit = v
		}
		offset := 0
		if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v >= 0 {
			offset = v
		}

		items, err := store.ListByUser(c.Request().Context(), userID, limit, offset)
		if err != nil {
			log.Println("list generations:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list generations"})
		}
		if items == nil {
			items = []Generation{}
		}
		return c.JSON(http.StatusOK, echo.Map{"generations": items})
	}
}

// GetGeneration handles GET /generations/:id.
func GetGeneration(store *Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, _ := c.Get("user_id").(int64)
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid generation id"})
		}

		g, err := store.GetByID(c.Request().Context(), id)
		if errors.Is(err, ErrNotFound) || (err == nil && g.UserID != userID) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "generation not found"})
		}
		if err != nil {
			log.Println("get generation:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load generation"})
		}
		return c.JSON(http.StatusOK, g)
	}
}

// DeleteGeneration handles DELETE /generations/:id. Returns 409 with the
// reference count while wardrobe items still point at the generation.
func DeleteGeneration(svc *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, _ := c.Get("user_id").(int64)
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid generation id"})
		}

		err = svc.Delete(c.Request().Context(), userID, id)
		if conflict, ok := AsConflict(err); ok {
			return c.JSON(http.StatusConflict, echo.Map{
				"error":      "generation is still referenced by wardrobe items",
				"references": conflict.References,
			})
		}
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "generation not found"})
		case err != nil:
			log.Println("delete generation:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete generation"})
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "generation deleted"})
	}
}
