package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vetra-app/vetra/internal/db"
)

var (
	ErrNotFound  = errors.New("generation not found")
	ErrForbidden = errors.New("generation belongs to another user")
)

type Generation struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProductID *int64    `json:"product_id,omitempty"`
	ImageURL  string    `json:"image_url"`
	Cost      float64   `json:"cost"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the generations table access layer.
type Store struct {
	q db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{q: q}
}

func (s *Store) Insert(ctx context.Context, userID int64, productID *int64, cost float64) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx, `
		INSERT INTO generations (user_id, product_id, image_url, cost)
		VALUES ($1, $2, '', $3)
		RETURNING id`, userID, productID, cost,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert generation: %w", err)
	}
	return id, nil
}

// SetResult records the produced media reference once the job finishes.
func (s *Store) SetResult(ctx context.Context, id int64, imageURL string) error {
	_, err := s.q.Exec(ctx, `UPDATE generations SET image_url = $2 WHERE id = $1`, id, imageURL)
	if err != nil {
		return fmt.Errorf("set generation result: %w", err)
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Generation, error) {
	var g Generation
	err := s.q.QueryRow(ctx, `
		SELECT id, user_id, product_id, image_url, cost, created_at
		FROM generations WHERE id = $1`, id,
	).Scan(&g.ID, &g.UserID, &g.ProductID, &g.ImageURL, &g.Cost, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get generation: %w", err)
	}
	return &g, nil
}

// GenerationMedia resolves a generation's owner and media reference. Wardrobe
// item creation goes through this.
func (s *Store) GenerationMedia(ctx context.Context, id int64) (int64, string, error) {
	g, err := s.GetByID(ctx, id)
	if err != nil {
		return 0, "", err
	}
	if g.ImageURL == "" {
		return 0, "", fmt.Errorf("generation %d is not finished", id)
	}
	return g.UserID, g.ImageURL, nil
}

func (s *Store) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Generation, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, user_id, product_id, image_url, cost, created_at
		FROM generations WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer rows.Close()

	var items []Generation
	for rows.Next() {
		var g Generation
		if err := rows.Scan(&g.ID, &g.UserID, &g.ProductID, &g.ImageURL, &g.Cost, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan generation row: %w", err)
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM generations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete generation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
