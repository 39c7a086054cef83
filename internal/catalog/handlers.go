package catalog

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vetra-app/vetra/internal/db"
	"github.com/vetra-app/vetra/internal/dispatch"
)

type createProductRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Images      []string `json:"images"`
}

// CreateProduct lets a shop submit a new product. It lands in the moderation
// queue pending and inactive, and admins get a backlog update.
func CreateProduct(store *Store, dispatcher *dispatch.Dispatcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		shopID, _ := c.Get("shop_id").(int64)
		if shopID == 0 {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "shop account required"})
		}

		var req createProductRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
		}
		if req.Name == "" || req.Price <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and positive price are required"})
		}

		id, err := store.Create(c.Request().Context(), &Product{
			ShopID:      shopID,
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Images:      req.Images,
		})
		if err != nil {
			log.Println("create product:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create product"})
		}

		dispatcher.ProductCreated(id, shopID, req.Name, StatusPending)
		if pending, err := store.PendingCount(c.Request().Context()); err == nil {
			dispatcher.ModerationBacklog(pending, "added", id)
		}

		return c.JSON(http.StatusCreated, echo.Map{
			"id":                id,
			"moderation_status": StatusPending,
			"is_active":         false,
		})
	}
}

type updateProductRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"`
	Images      *[]string `json:"images"`
}

// UpdateProduct edits one of the calling shop's products. Absent fields keep
// their current value; sending images replaces the whole list.
func UpdateProduct(store *Store, dispatcher *dispatch.Dispatcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		shopID, _ := c.Get("shop_id").(int64)
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
		}

		var req updateProductRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
		}
		if req.Price != nil && *req.Price <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must be positive"})
		}

		p, err := store.Update(c.Request().Context(), id, shopID, ProductUpdate{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Images:      req.Images,
		})
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		if err != nil {
			log.Println("update product:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update product"})
		}

		dispatcher.ProductUpdated(p.ID, p.ShopID, p.Name, p.ModerationStatus, p.IsActive)
		return c.JSON(http.StatusOK, p)
	}
}

// ListProducts is the public storefront listing. Only approved, active
// products ever appear here.
func ListProducts(store *Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit, offset := pagination(c, 20)
		items, err := store.ListActive(c.Request().Context(), c.QueryParam("search"), limit, offset)
		if err != nil {
			log.Println("list products:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list products"})
		}
		if items == nil {
			items = []Product{}
		}
		return c.JSON(http.StatusOK, echo.Map{"products": items})
	}
}

// GetProduct returns one product and bumps its view counter. Inactive
// products are only visible to their own shop and to admins.
func GetProduct(store *Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
		}
		p, err := store.GetByID(c.Request().Context(), id)
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		if err != nil {
			log.Println("get product:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load product"})
		}

		if !p.IsActive {
			shopID, _ := c.Get("shop_id").(int64)
			role, _ := c.Get("role").(string)
			if p.ShopID != shopID && role != "admin" {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
			}
		} else {
			if _, err := db.Conn.Exec(c.Request().Context(),
				`UPDATE products SET views_count = views_count + 1 WHERE id = $1`, id); err != nil {
				log.Println("bump product views:", err)
			}
		}
		return c.JSON(http.StatusOK, p)
	}
}

// ListMyProducts returns every product of the calling shop, any status.
func ListMyProducts(store *Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		shopID, _ := c.Get("shop_id").(int64)
		if shopID == 0 {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "shop account required"})
		}
		items, err := store.ListByShop(c.Request().Context(), shopID)
		if err != nil {
			log.Println("list shop products:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list products"})
		}
		if items == nil {
			items = []Product{}
		}
		return c.JSON(http.StatusOK, echo.Map{"products": items})
	}
}

// DeleteProduct removes one of the calling shop's products. The response
// reports whether the product was destroyed or retired.
func DeleteProduct(svc *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		shopID, _ := c.Get("shop_id").(int64)
		if shopID == 0 {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "shop account required"})
		}
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
		}

		outcome, err := svc.Delete(c.Request().Context(), id, shopID)
		switch {
		case errors.Is(err, ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		case errors.Is(err, ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your product"})
		case err != nil:
			log.Println("delete product:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete product"})
		}

		msg := "product deleted"
		if outcome == DeleteSoft {
			msg = "product deactivated (referenced by completed orders)"
		}
		return c.JSON(http.StatusOK, echo.Map{"message": msg, "outcome": outcome})
	}
}

func pagination(c echo.Context, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}
