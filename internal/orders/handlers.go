package orders

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vetra-app/vetra/internal/dispatch"
	"github.com/vetra-app/vetra/internal/settings"
)

type createOrderRequest struct {
	Items []Line `json:"items"`
}

// CreateOrder places a pending order for the calling user. Prices come from
// the catalog at submission time, not from the request.
func CreateOrder(store *Store, dispatcher *dispatch.Dispatcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, _ := c.Get("user_id").(int64)

		var req createOrderRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
		}

		o, err := store.Create(c.Request().Context(), userID, req.Items)
		switch {
		case errors.Is(err, ErrEmptyOrder):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "order needs at least one item"})
		case errors.Is(err, ErrProductUnavailable):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "one of the products is not available"})
		case err != nil:
			log.Println("create order:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create order"})
		}

		dispatcher.OrderCreated(o.ID, userID, o.Total, len(o.Items))
		return c.JSON(http.StatusCreated, o)
	}
}

// ListMyOrders returns the calling user's orders, newest first. A status
// query param narrows the list.
func ListMyOrders(store *Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, _ := c.Get("user_id").(int64)
		limit, offset := pagination(c, 20)

		items, err := store.ListByUser(c.Request().Context(), userID, c.QueryParam("status"), limit, offset)
		if err != nil {
			log.Println("list orders:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list orders"})
		}
		if items == nil {
			items = []Order{}
		}
		return c.JSON(http.StatusOK, echo.Map{"orders": items})
	}
}

// GetOrder returns one of the calling user's orders with its items.
func GetOrder(store *Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, _ := c.Get("user_id").(int64)
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
		}

		o, err := store.GetByID(c.Request().Context(), id, userID)
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		if err != nil {
			log.Println("get order:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load order"})
		}
		return c.JSON(http.StatusOK, o)
	}
}

// ConfirmOrder completes a pending order: each shop is credited its share of
// the sale minus the platform commission, and everyone involved is notified.
func ConfirmOrder(store *Store, platform *settings.Store, dispatcher *dispatch.Dispatcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, _ := c.Get("user_id").(int64)
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
		}

		rate, err := platform.GetFloat(c.Request().Context(), settings.KeyCommissionRate, 10.0)
		if err != nil {
			log.Println("load commission rate:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not confirm order"})
		}

		comp, err := store.Complete(c.Request().Context(), id, userID, rate)
		switch {
		case errors.Is(err, ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		case errors.Is(err, ErrNotPending):
			return c.JSON(http.StatusConflict, echo.Map{"error": "order is not pending"})
		case err != nil:
			log.Println("confirm order:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not confirm order"})
		}

		dispatcher.OrderCompleted(comp.OrderID, userID, comp.Total)
		for _, cr := range comp.Credits {
			dispatcher.ShopBalanceChanged(cr.ShopID, cr.OldBalance, cr.NewBalance, "sale")
		}

		return c.JSON(http.StatusOK, echo.Map{
			"id":     comp.OrderID,
			"status": StatusCompleted,
			"total":  comp.Total,
		})
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
