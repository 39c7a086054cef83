package catalog

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/vetra-app/vetra/internal/db"
)

const productColumns = `id, shop_id, name, COALESCE(description, ''), price, images, is_active,
	moderation_status, COALESCE(moderation_notes, ''), approval_fee, views_count, created_at, updated_at`

// Store is the products table access layer.
type Store struct {
	q db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{q: q}
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.ShopID, &p.Name, &p.Description, &p.Price, &p.Images, &p.IsActive,
		&p.ModerationStatus, &p.ModerationNotes, &p.ApprovalFee, &p.ViewsCount, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Product, error) {
	row := s.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// Create inserts a new product in the initial moderation state: pending and
// inactive.
func (s *Store) Create(ctx context.Context, p *Product) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx, `
		INSERT INTO products (shop_id, name, description, price, images, is_active, moderation_status)
		VALUES ($1, $2, $3, $4, $5, FALSE, 'pending')
		RETURNING id`,
		p.ShopID, p.Name, p.Description, p.Price, p.Images,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create product: %w", err)
	}
	return id, nil
}

// ProductUpdate carries the editable product fields. Nil means keep.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	Images      *[]string
}

// Update edits a product owned by the shop. Unset fields are left alone.
func (s *Store) Update(ctx context.Context, id, shopID int64, u ProductUpdate) (*Product, error) {
	tag, err := s.q.Exec(ctx, `
		UPDATE products
		SET name = COALESCE($1, name),
		    description = COALESCE($2, description),
		    price = COALESCE($3, price),
		    images = COALESCE($4, images),
		    updated_at = NOW()
		WHERE id = $5 AND shop_id = $6`,
		u.Name, u.Description, u.Price, u.Images, id, shopID,
	)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// HasCompletedOrders reports whether any completed order references the
// product. Used by the deletion policy: referenced products are only ever
// retired, never destroyed.
func (s *Store) HasCompletedOrders(ctx context.Context, productID int64) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM order_items oi
			JOIN orders o ON o.id = oi.order_id
			WHERE oi.product_id = $1 AND o.status = 'completed'
		)`, productID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check order references: %w", err)
	}
	return exists, nil
}

// SoftDelete retires a product: deactivated, marked rejected, note attached.
// The record and its media stay, order history remains viewable.
func (s *Store) SoftDelete(ctx context.Context, id int64, note string) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE products
		SET is_active = FALSE, moderation_status = 'rejected', moderation_notes = $2, updated_at = NOW()
		WHERE id = $1`, id, note,
	)
	if err != nil {
		return fmt.Errorf("soft delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// HardDelete removes the product record permanently.
func (s *Store) HardDelete(ctx context.Context, id int64) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("hard delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PendingCount is the moderation backlog size.
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE moderation_status = 'pending'`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending products: %w", err)
	}
	return n, nil
}

// ListPending returns the moderation queue, oldest first.
func (s *Store) ListPending(ctx context.Context, limit, offset int) ([]Product, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE moderation_status = 'pending'
		ORDER BY created_at ASC LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// ListActive returns approved, active products for the public storefront.
func (s *Store) ListActive(ctx context.Context, search string, limit, offset int) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
		WHERE is_active = TRUE AND moderation_status = 'approved'`
	args := []any{}
	if search != "" {
		query += ` AND name ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// ListByShop returns everything a shop has submitted, newest first.
func (s *Store) ListByShop(ctx context.Context, shopID int64) ([]Product, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+productColumns+` FROM products WHERE shop_id = $1 ORDER BY created_at DESC`, shopID,
	)
	if err != nil {
		return nil, fmt.Errorf("list shop products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// SearchFilter narrows the admin product listing.
type SearchFilter struct {
	Status   string
	IsActive *bool
	ShopID   int64
	MinPrice *float64
	MaxPrice *float64
	SortBy   string
	SortDesc bool
	Limit    int
	Offset   int
}

// Search runs the admin product listing with dynamic filters and sorting.
func (s *Store) Search(ctx context.Context, f SearchFilter) ([]Product, int, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	base := psql.Select().From("products")
	if f.Status != "" && f.Status != "all" {
		base = base.Where(sq.Eq{"moderation_status": f.Status})
	}
	if f.IsActive != nil {
		base = base.Where(sq.Eq{"is_active": *f.IsActive})
	}
	if f.ShopID != 0 {
		base = base.Where(sq.Eq{"shop_id": f.ShopID})
	}
	if f.MinPrice != nil {
		base = base.Where(sq.GtOrEq{"price": *f.MinPrice})
	}
	if f.MaxPrice != nil {
		base = base.Where(sq.LtOrEq{"price": *f.MaxPrice})
	}

	countSQL, countArgs, err := base.Columns("COUNT(*)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := s.q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	sortCol := "created_at"
	switch f.SortBy {
	case "updated_at", "price", "name", "views_count":
		sortCol = f.SortBy
	}
	order := sortCol + " ASC"
	if f.SortDesc {
		order = sortCol + " DESC"
	}
	listSQL, listArgs, err := base.Columns(productColumns).
		OrderBy(order).
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build search query: %w", err)
	}

	rows, err := s.q.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()
	items, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	var items []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.ShopID, &p.Name, &p.Description, &p.Price, &p.Images, &p.IsActive,
			&p.ModerationStatus, &p.ModerationNotes, &p.ApprovalFee, &p.ViewsCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
