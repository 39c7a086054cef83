package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vetra-app/vetra/internal/db"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrShopNotFound      = errors.New("shop not found")
	ErrInsufficientFunds = errors.New("shop balance insufficient for approval fee")
)

// Decision is the result of one approve/reject transition, with everything
// the notification layer needs already resolved inside the transaction.
type Decision struct {
	ProductID   int64
	ProductName string
	ShopID      int64
	ShopName    string
	ShopEmail   string
	Status      string
	Notes       string
	Fee         float64
	OldBalance  float64
	NewBalance  float64

	// NoChange is set when the product was already in the requested state.
	// Nothing was charged and nothing should be announced.
	NoChange bool
}

// Store runs moderation transitions against Postgres. Each transition is a
// single transaction: product row and shop row are locked together so the fee
// charge and the status flip land atomically.
type Store struct {
	q db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{q: q}
}

// Approve moves a product into the approved state and activates it, charging
// fee to the owning shop's balance. Approving an already approved product is
// a no-op and charges nothing.
func (s *Store) Approve(ctx context.Context, productID int64, fee float64) (*Decision, error) {
	tx, err := s.q.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin approve tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var d Decision
	var status string
	err = tx.QueryRow(ctx, `
		SELECT id, shop_id, name, moderation_status FROM products WHERE id = $1 FOR UPDATE`,
		productID,
	).Scan(&d.ProductID, &d.ShopID, &d.ProductName, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock product %d: %w", productID, err)
	}

	err = tx.QueryRow(ctx, `
		SELECT shop_name, email, balance FROM shops WHERE id = $1 FOR UPDATE`,
		d.ShopID,
	).Scan(&d.ShopName, &d.ShopEmail, &d.OldBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrShopNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock shop %d: %w", d.ShopID, err)
	}

	if status == "approved" {
		d.Status = status
		d.NewBalance = d.OldBalance
		d.NoChange = true
		return &d, tx.Commit(ctx)
	}

	if d.OldBalance < fee {
		return nil, ErrInsufficientFunds
	}

	if _, err := tx.Exec(ctx,
		`UPDATE shops SET balance = balance - $2 WHERE id = $1`, d.ShopID, fee); err != nil {
		return nil, fmt.Errorf("charge approval fee: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO transactions (shop_id, type, amount, status, reference)
		VALUES ($1, 'approval_fee', $2, 'completed', $3)`,
		d.ShopID, fee, fmt.Sprintf("product:%d", productID)); err != nil {
		return nil, fmt.Errorf("record approval fee: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE products
		SET moderation_status = 'approved', is_active = TRUE, approval_fee = $2,
		    moderation_notes = NULL, updated_at = NOW()
		WHERE id = $1`, productID, fee); err != nil {
		return nil, fmt.Errorf("approve product: %w", err)
	}

	d.Status = "approved"
	d.Fee = fee
	d.NewBalance = d.OldBalance - fee
	return &d, tx.Commit(ctx)
}

// Reject moves a product into the rejected state and deactivates it. The note
// is stored so the shop can see why. No fee is involved in either direction.
func (s *Store) Reject(ctx context.Context, productID int64, note string) (*Decision, error) {
	tx, err := s.q.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reject tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var d Decision
	var status string
	err = tx.QueryRow(ctx, `
		SELECT id, shop_id, name, moderation_status FROM products WHERE id = $1 FOR UPDATE`,
		productID,
	).Scan(&d.ProductID, &d.ShopID, &d.ProductName, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock product %d: %w", productID, err)
	}

	err = tx.QueryRow(ctx, `SELECT shop_name, email FROM shops WHERE id = $1`, d.ShopID).
		Scan(&d.ShopName, &d.ShopEmail)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrShopNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load shop %d: %w", d.ShopID, err)
	}

	if status == "rejected" {
		d.Status = status
		d.NoChange = true
		return &d, tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE products
		SET moderation_status = 'rejected', is_active = FALSE, moderation_notes = $2, updated_at = NOW()
		WHERE id = $1`, productID, note); err != nil {
		return nil, fmt.Errorf("reject product: %w", err)
	}

	d.Status = "rejected"
	d.Notes = note
	return &d, tx.Commit(ctx)
}
