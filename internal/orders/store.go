package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vetra-app/vetra/internal/db"
)

var (
	ErrNotFound           = errors.New("order not found")
	ErrEmptyOrder         = errors.New("order has no items")
	ErrProductUnavailable = errors.New("product is not available")
	ErrNotPending         = errors.New("order is not pending")
)

// Statuses of an order. Completed orders are what pins a product's record in
// place: a product referenced by one is retired on delete, never destroyed.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Line is one requested product with a quantity, as submitted by the buyer.
type Line struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type OrderItem struct {
	ProductID int64   `json:"product_id"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type Order struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"user_id"`
	Status    string      `json:"status"`
	Total     float64     `json:"total"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
}

// ShopCredit is one shop's share of a completed order, after commission.
type ShopCredit struct {
	ShopID     int64
	Amount     float64
	OldBalance float64
	NewBalance float64
}

// Completion reports what a completed order moved.
type Completion struct {
	OrderID int64
	Total   float64
	Credits []ShopCredit
}

type Store struct {
	q db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{q: q}
}

// Create places a pending order for the given lines. Prices are captured at
// order time; inactive or missing products abort the whole order.
func (s *Store) Create(ctx context.Context, userID int64, lines []Line) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}

	tx, err := s.q.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin order tx: %w", err)
	}
	defer tx.Rollback(ctx)

	o := &Order{UserID: userID, Status: StatusPending}
	for _, l := range lines {
		if l.Quantity <= 0 {
			l.Quantity = 1
		}
		var price float64
		var active bool
		err := tx.QueryRow(ctx,
			`SELECT price, is_active FROM products WHERE id = $1`, l.ProductID,
		).Scan(&price, &active)
		if errors.Is(err, pgx.ErrNoRows) || (err == nil && !active) {
			return nil, ErrProductUnavailable
		}
		if err != nil {
			return nil, fmt.Errorf("load product %d: %w", l.ProductID, err)
		}
		o.Items = append(o.Items, OrderItem{ProductID: l.ProductID, Price: price, Quantity: l.Quantity})
		o.Total += price * float64(l.Quantity)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, status, total)
		VALUES ($1, 'pending', $2)
		RETURNING id, created_at`,
		userID, o.Total,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, price, quantity)
			VALUES ($1, $2, $3, $4)`,
			o.ID, it.ProductID, it.Price, it.Quantity); err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
	}
	return o, tx.Commit(ctx)
}

// GetByID returns the user's order with its items.
func (s *Store) GetByID(ctx context.Context, orderID, userID int64) (*Order, error) {
	o := &Order{ID: orderID}
	err := s.q.QueryRow(ctx, `
		SELECT user_id, status, total, created_at FROM orders WHERE id = $1 AND user_id = $2`,
		orderID, userID,
	).Scan(&o.UserID, &o.Status, &o.Total, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}

	rows, err := s.q.Query(ctx, `
		SELECT product_id, price, quantity FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ProductID, &it.Price, &it.Quantity); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

// ListByUser returns the user's orders, newest first, optionally filtered by
// status. Items are not loaded here.
func (s *Store) ListByUser(ctx context.Context, userID int64, status string, limit, offset int) ([]Order, error) {
	query := `SELECT id, user_id, status, total, created_at FROM orders WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Complete marks the buyer's pending order as completed and distributes each
// shop's share of the sale, minus the platform commission percentage, in one
// transaction. From this point the ordered products are pinned: deleting them
// only ever retires them.
func (s *Store) Complete(ctx context.Context, orderID, userID int64, commissionRate float64) (*Completion, error) {
	tx, err := s.q.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin complete tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var status string
	var total float64
	err = tx.QueryRow(ctx, `
		SELECT status, total FROM orders WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		orderID, userID,
	).Scan(&status, &total)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock order %d: %w", orderID, err)
	}
	if status != StatusPending {
		return nil, ErrNotPending
	}

	// Per-shop subtotals over the order's items. Items whose product has
	// since been hard-deleted have no shop left to credit.
	rows, err := tx.Query(ctx, `
		SELECT p.shop_id, SUM(oi.price * oi.quantity)
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		GROUP BY p.shop_id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("aggregate order shops: %w", err)
	}
	type share struct {
		shopID int64
		amount float64
	}
	var shares []share
	for rows.Next() {
		var sh share
		if err := rows.Scan(&sh.shopID, &sh.amount); err != nil {
			rows.Close()
			return nil, err
		}
		shares = append(shares, sh)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	comp := &Completion{OrderID: orderID, Total: total}
	for _, sh := range shares {
		credit := sh.amount * (1 - commissionRate/100)

		var oldBalance float64
		err := tx.QueryRow(ctx,
			`SELECT balance FROM shops WHERE id = $1 FOR UPDATE`, sh.shopID,
		).Scan(&oldBalance)
		if err != nil {
			return nil, fmt.Errorf("lock shop %d: %w", sh.shopID, err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE shops SET balance = balance + $2 WHERE id = $1`, sh.shopID, credit); err != nil {
			return nil, fmt.Errorf("credit shop %d: %w", sh.shopID, err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO transactions (shop_id, type, amount, status, reference)
			VALUES ($1, 'sale', $2, 'completed', $3)`,
			sh.shopID, credit, fmt.Sprintf("order:%d", orderID)); err != nil {
			return nil, fmt.Errorf("record sale: %w", err)
		}

		comp.Credits = append(comp.Credits, ShopCredit{
			ShopID:     sh.shopID,
			Amount:     credit,
			OldBalance: oldBalance,
			NewBalance: oldBalance + credit,
		})
	}

	if _, err := tx.Exec(ctx,
		`UPDATE orders SET status = 'completed' WHERE id = $1`, orderID); err != nil {
		return nil, fmt.Errorf("complete order: %w", err)
	}
	return comp, tx.Commit(ctx)
}
