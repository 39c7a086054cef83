package billing

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vetra-app/vetra/internal/db"
)

// Transaction model for responses
type Transaction struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TransactionsHandler returns the authenticated shop's ledger, fees and
// topups alike, newest first
func TransactionsHandler(c echo.Context) error {
	shopID, ok := c.Get("shop_id").(int64)
	if !ok || shopID == 0 {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "shop account required"})
	}

	rows, err := db.Conn.Query(context.Background(),
		`SELECT id, type, amount, status, COALESCE(reference, ''), created_at
		 FROM transactions
		 WHERE shop_id = $1
		 ORDER BY created_at DESC`,
		shopID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch transactions"})
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.Type, &t.Amount, &t.Status, &t.Reference, &t.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scan error"})
		}
		txs = append(txs, t)
	}
	if txs == nil {
		txs = []Transaction{}
	}

	return c.JSON(http.StatusOK, txs)
}

// AdminTransactions returns the full platform ledger for admins
func AdminTransactions(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(),
		`SELECT id, type, amount, status, COALESCE(reference, ''), created_at
		 FROM transactions
		 ORDER BY created_at DESC
		 LIMIT 200`,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch transactions"})
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.Type, &t.Amount, &t.Status, &t.Reference, &t.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scan error"})
		}
		txs = append(txs, t)
	}
	if txs == nil {
		txs = []Transaction{}
	}

	return c.JSON(http.StatusOK, txs)
}
