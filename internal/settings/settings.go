package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/vetra-app/vetra/internal/db"
)

// Platform setting keys.
const (
	// KeyApprovalFee is the fee charged to a shop when a product is approved.
	KeyApprovalFee = "shop_approval_fee"
	// KeyCommissionRate is the platform's percentage cut of each sale.
	KeyCommissionRate = "shop_commission_rate"
)

// Store reads and writes platform settings.
type Store struct {
	q db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{q: q}
}

// Get returns the raw value for key, or "" if unset.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.q.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

// GetFloat returns the value parsed as float64, or fallback if unset or
// unparsable.
func (s *Store) GetFloat(ctx context.Context, key string, fallback float64) (float64, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback, nil
	}
	return f, nil
}

// Set upserts a setting and returns the previous value.
func (s *Store) Set(ctx context.Context, key, value string) (string, error) {
	old, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	_, err = s.q.Exec(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value,
	)
	if err != nil {
		return "", fmt.Errorf("set setting %s: %w", key, err)
	}
	return old, nil
}
