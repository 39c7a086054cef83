package moderation

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vetra-app/vetra/internal/catalog"
)

// ListQueue returns the pending moderation queue for admins, oldest first.
func ListQueue(products *catalog.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := 50
		if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 && v <= 200 {
			limit = v
		}
		offset := 0
		if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v >= 0 {
			offset = v
		}

		items, err := products.ListPending(c.Request().Context(), limit, offset)
		if err != nil {
			log.Println("list moderation queue:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load queue"})
		}
		pending, err := products.PendingCount(c.Request().Context())
		if err != nil {
			log.Println("count moderation queue:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load queue"})
		}
		if items == nil {
			items = []catalog.Product{}
		}
		return c.JSON(http.StatusOK, echo.Map{
			"products":      items,
			"pending_count": pending,
		})
	}
}

// ApproveProduct handles POST /admin/products/:id/approve.
func ApproveProduct(svc *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		adminID, _ := c.Get("user_id").(int64)
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
		}

		d, err := svc.Approve(c.Request().Context(), id, adminID)
		switch {
		case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrShopNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		case errors.Is(err, ErrInsufficientFunds):
			return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "shop balance insufficient for approval fee"})
		case err != nil:
			log.Println("approve product:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not approve product"})
		}

		if d.NoChange {
			return c.JSON(http.StatusOK, echo.Map{"message": "product already approved", "product_id": id})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"message":      "product approved",
			"product_id":   id,
			"approval_fee": d.Fee,
			"shop_balance": d.NewBalance,
		})
	}
}

type rejectRequest struct {
	Note string `json:"note"`
}

// RejectProduct handles POST /admin/products/:id/reject. A note is required
// so shops always learn why.
func RejectProduct(svc *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		adminID, _ := c.Get("user_id").(int64)
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
		}

		var req rejectRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
		}
		if req.Note == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "a rejection note is required"})
		}

		_, err = svc.Reject(c.Request().Context(), id, adminID, req.Note)
		switch {
		case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrShopNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		case err != nil:
			log.Println("reject product:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not reject product"})
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "product rejected", "product_id": id})
	}
}

type bulkRequest struct {
	ProductIDs []int64 `json:"product_ids"`
	Note       string  `json:"note"`
}

// BulkApprove handles POST /admin/products/bulk-approve.
func BulkApprove(svc *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		adminID, _ := c.Get("user_id").(int64)
		var req bulkRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
		}
		if len(req.ProductIDs) == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_ids is required"})
		}

		res, err := svc.BulkApprove(c.Request().Context(), req.ProductIDs, adminID)
		if err != nil {
			log.Println("bulk approve:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not run bulk approve"})
		}
		return c.JSON(http.StatusOK, res)
	}
}

// BulkReject handles POST /admin/products/bulk-reject with a shared note.
func BulkReject(svc *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		adminID, _ := c.Get("user_id").(int64)
		var req bulkRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
		}
		if len(req.ProductIDs) == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_ids is required"})
		}
		if req.Note == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "a rejection note is required"})
		}

		res, err := svc.BulkReject(c.Request().Context(), req.ProductIDs, adminID, req.Note)
		if err != nil {
			log.Println("bulk reject:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not run bulk reject"})
		}
		return c.JSON(http.StatusOK, res)
	}
}
