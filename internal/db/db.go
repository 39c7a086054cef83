package db

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var Conn *pgxpool.Pool

// Querier is the subset of pgxpool.Pool the stores depend on, so tests can
// substitute a pgxmock pool.
type Querier interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Init connects to Postgres and ensures the schema exists
func Init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_HOST"),
			os.Getenv("DB_PORT"),
			os.Getenv("DB_NAME"),
		)
	}

	var err error
	Conn, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}

	if err = Conn.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v\n", err)
	}

	log.Println("Connected to Postgres successfully")

	ensureSchema()
}

// ensureSchema creates the tables the handlers rely on. Idempotent, so a
// fresh database is usable without a separate migration step.
func ensureSchema() {
	ctx := context.Background()
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS shops (
			id BIGSERIAL PRIMARY KEY,
			owner_id BIGINT NOT NULL,
			shop_name TEXT NOT NULL,
			email TEXT NOT NULL,
			balance NUMERIC(12,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			shop_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			price NUMERIC(12,2) NOT NULL DEFAULT 0,
			images TEXT[] NOT NULL DEFAULT '{}',
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			moderation_status TEXT NOT NULL DEFAULT 'pending',
			moderation_notes TEXT,
			approval_fee NUMERIC(12,2),
			views_count BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			total NUMERIC(12,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id BIGSERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL,
			product_id BIGINT NOT NULL,
			price NUMERIC(12,2) NOT NULL DEFAULT 0,
			quantity INT NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS generations (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			product_id BIGINT,
			image_url TEXT NOT NULL,
			cost NUMERIC(12,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS wardrobe_items (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			source TEXT NOT NULL,
			product_id BIGINT,
			generation_id BIGINT,
			name TEXT NOT NULL,
			description TEXT,
			images TEXT[] NOT NULL DEFAULT '{}',
			is_favorite BOOLEAN NOT NULL DEFAULT FALSE,
			folder TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT,
			shop_id BIGINT,
			type TEXT NOT NULL,
			amount NUMERIC(12,2) NOT NULL,
			status TEXT NOT NULL DEFAULT 'completed',
			reference TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS topups (
			id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL,
			shop_id BIGINT,
			amount NUMERIC(12,2) NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_moderation ON products (moderation_status)`,
		`CREATE INDEX IF NOT EXISTS idx_wardrobe_user ON wardrobe_items (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_wardrobe_generation ON wardrobe_items (generation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items (product_id)`,
	}
	for _, stmt := range stmts {
		if _, err := Conn.Exec(ctx, stmt); err != nil {
			log.Fatalf("schema init failed: %v", err)
		}
	}
}
