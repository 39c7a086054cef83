package wardrobe

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vetra-app/vetra/internal/db"
)

const itemColumns = `id, user_id, source, product_id, generation_id, name,
	COALESCE(description, ''), images, is_favorite, COALESCE(folder, ''), created_at, updated_at`

// Store is the wardrobe_items table access layer.
type Store struct {
	q db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{q: q}
}

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.UserID, &it.Source, &it.ProductID, &it.GenerationID, &it.Name,
		&it.Description, &it.Images, &it.IsFavorite, &it.Folder, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan wardrobe item: %w", err)
	}
	return &it, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM wardrobe_items WHERE id = $1`, id)
	return scanItem(row)
}

func (s *Store) CountByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM wardrobe_items WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count wardrobe items: %w", err)
	}
	return n, nil
}

// CountByGeneration reports how many wardrobe items reference a generation.
// A nonzero count blocks deleting that generation.
func (s *Store) CountByGeneration(ctx context.Context, generationID int64) (int, error) {
	var n int
	err := s.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM wardrobe_items WHERE generation_id = $1`, generationID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count generation references: %w", err)
	}
	return n, nil
}

func (s *Store) Insert(ctx context.Context, it *Item) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx, `
		INSERT INTO wardrobe_items (user_id, source, product_id, generation_id, name, description, images, folder)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
		RETURNING id`,
		it.UserID, it.Source, it.ProductID, it.GenerationID, it.Name, it.Description, it.Images, it.Folder,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert wardrobe item: %w", err)
	}
	return id, nil
}

// SetImages replaces an item's media references after upload finishes.
func (s *Store) SetImages(ctx context.Context, id int64, images []string) error {
	_, err := s.q.Exec(ctx,
		`UPDATE wardrobe_items SET images = $2, updated_at = NOW() WHERE id = $1`, id, images)
	if err != nil {
		return fmt.Errorf("set wardrobe item images: %w", err)
	}
	return nil
}

// ItemUpdate carries the editable fields. Nil means leave unchanged.
type ItemUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Folder      *string `json:"folder"`
	IsFavorite  *bool   `json:"is_favorite"`
}

func (s *Store) Update(ctx context.Context, id int64, upd ItemUpdate) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE wardrobe_items
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    folder = COALESCE(NULLIF($4, ''), folder),
		    is_favorite = COALESCE($5, is_favorite),
		    updated_at = NOW()
		WHERE id = $1`,
		id, upd.Name, upd.Description, upd.Folder, upd.IsFavorite,
	)
	if err != nil {
		return fmt.Errorf("update wardrobe item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM wardrobe_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete wardrobe item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFilter narrows a wardrobe listing.
type ListFilter struct {
	Source        Provenance
	Folder        string
	FavoritesOnly bool
	Search        string
	Limit         int
	Offset        int
}

func (s *Store) List(ctx context.Context, userID int64, f ListFilter) ([]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM wardrobe_items WHERE user_id = $1`
	args := []any{userID}
	if f.Source != "" {
		args = append(args, f.Source)
		query += fmt.Sprintf(` AND source = $%d`, len(args))
	}
	if f.Folder != "" {
		args = append(args, f.Folder)
		query += fmt.Sprintf(` AND folder = $%d`, len(args))
	}
	if f.FavoritesOnly {
		query += ` AND is_favorite = TRUE`
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		query += fmt.Sprintf(` AND name ILIKE $%d`, len(args))
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list wardrobe items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.UserID, &it.Source, &it.ProductID, &it.GenerationID, &it.Name,
			&it.Description, &it.Images, &it.IsFavorite, &it.Folder, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan wardrobe row: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) Folders(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.q.Query(ctx, `
		SELECT DISTINCT folder FROM wardrobe_items
		WHERE user_id = $1 AND folder IS NOT NULL ORDER BY folder`, userID)
	if err != nil {
		return nil, fmt.Errorf("list wardrobe folders: %w", err)
	}
	defer rows.Close()

	var folders []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

func (s *Store) StatsForUser(ctx context.Context, userID int64) (*Stats, error) {
	st := &Stats{BySource: map[string]int{}}

	rows, err := s.q.Query(ctx, `
		SELECT source, COUNT(*), COUNT(*) FILTER (WHERE is_favorite)
		FROM wardrobe_items WHERE user_id = $1 GROUP BY source`, userID)
	if err != nil {
		return nil, fmt.Errorf("wardrobe stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var source string
		var count, favorites int
		if err := rows.Scan(&source, &count, &favorites); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		st.BySource[source] = count
		st.Total += count
		st.Favorites += favorites
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	st.Folders, err = s.Folders(ctx, userID)
	if err != nil {
		return nil, err
	}
	return st, nil
}
