package billing

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vetra-app/vetra/internal/db"
	"github.com/vetra-app/vetra/internal/dispatch"
)

type TopupRequest struct {
	Amount float64 `json:"amount"`
}

type TopupResponse struct {
	TopupID string `json:"topup_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// TopupInit creates a new topup record (pending)
func TopupInit(c echo.Context) error {
	userID, _ := c.Get("user_id").(int64)
	shopID, ok := c.Get("shop_id").(int64)
	if !ok || shopID == 0 {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "shop account required"})
	}

	req := new(TopupRequest)
	if err := c.Bind(req); err != nil || req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	topupID := uuid.New().String()
	_, err := db.Conn.Exec(context.Background(),
		`INSERT INTO topups (id, user_id, shop_id, amount, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		topupID, userID, shopID, req.Amount, "pending", time.Now(),
	)
	if err != nil {
		log.Println("create topup:", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create topup"})
	}

	// mock payment URL, real provider integration comes later
	paymentURL := os.Getenv("MOCK_PAYMENT_URL")
	if paymentURL == "" {
		paymentURL = "https://pay.vetra.dev/mock/" + topupID
	}

	return c.JSON(http.StatusOK, TopupResponse{
		TopupID: topupID,
		Status:  "pending",
		Message: "Topup initialized. Complete payment at " + paymentURL,
	})
}

type ConfirmTopupRequest struct {
	TopupID   string `json:"topup_id"`
	Reference string `json:"reference"`
}

// ConfirmTopup marks a pending topup as completed and credits the shop's
// balance in the same transaction. The shop hears about the new balance over
// its websocket connection.
func ConfirmTopup(dispatcher *dispatch.Dispatcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		shopID, ok := c.Get("shop_id").(int64)
		if !ok || shopID == 0 {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "shop account required"})
		}

		var req ConfirmTopupRequest
		if err := c.Bind(&req); err != nil || req.TopupID == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
		}

		ctx := context.Background()
		tx, err := db.Conn.Begin(ctx)
		if err != nil {
			log.Println("confirm topup:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not confirm topup"})
		}
		defer tx.Rollback(ctx)

		var amount float64
		err = tx.QueryRow(ctx,
			`SELECT amount FROM topups WHERE id=$1 AND shop_id=$2 AND status='pending' FOR UPDATE`,
			req.TopupID, shopID,
		).Scan(&amount)
		if err != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pending topup not found"})
		}

		var oldBalance float64
		err = tx.QueryRow(ctx,
			`SELECT balance FROM shops WHERE id=$1 FOR UPDATE`, shopID).Scan(&oldBalance)
		if err != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "shop not found"})
		}

		if _, err := tx.Exec(ctx,
			`UPDATE topups SET status='completed' WHERE id=$1`, req.TopupID); err != nil {
			log.Println("confirm topup:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not confirm topup"})
		}
		if _, err := tx.Exec(ctx,
			`UPDATE shops SET balance = balance + $2 WHERE id=$1`, shopID, amount); err != nil {
			log.Println("confirm topup:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not confirm topup"})
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO transactions (shop_id, type, amount, status, reference)
			 VALUES ($1, 'topup', $2, 'completed', $3)`,
			shopID, amount, req.Reference); err != nil {
			log.Println("confirm topup:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not confirm topup"})
		}
		if err := tx.Commit(ctx); err != nil {
			log.Println("confirm topup:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not confirm topup"})
		}

		dispatcher.ShopBalanceChanged(shopID, oldBalance, oldBalance+amount, "topup")

		return c.JSON(http.StatusOK, echo.Map{
			"message": "topup confirmed",
			"balance": oldBalance + amount,
		})
	}
}
