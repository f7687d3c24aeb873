package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-seller-assistant/internal/migrate"
)

// Migrations holds the Postgres schema. Seller and buyer records are whole
// JSON documents keyed like the original Firebase tree.
var Migrations = []migrate.Migration{
	{
		Version: "1.0.0",
		Up: `
CREATE TABLE IF NOT EXISTS sellers (
    id         TEXT PRIMARY KEY,
    doc        JSONB NOT NULL DEFAULT '{}'::jsonb,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS buyers (
    phone      TEXT PRIMARY KEY,
    doc        JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Version: "1.1.0",
		Up: `
CREATE INDEX IF NOT EXISTS idx_sellers_orders
    ON sellers USING GIN ((doc -> 'orders') jsonb_path_ops);`,
	},
}

const schemaVersionDDL = `
CREATE TABLE IF NOT EXISTS schema_version (
    version    TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Migrate applies pending migrations, each in its own transaction.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaVersionDDL); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var current string
	err := pool.QueryRow(ctx, `SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1`).Scan(&current)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}

	pending, err := migrate.Pending(current, Migrations)
	if err != nil {
		return err
	}
	for _, m := range pending {
		if err := apply(ctx, pool, m); err != nil {
			return err
		}
		log.Printf("[postgres] applied migration %s", m.Version)
	}
	return nil
}

func apply(ctx context.Context, pool *pgxpool.Pool, m migrate.Migration) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, m.Up); err != nil {
		return fmt.Errorf("migration %s: %w", m.Version, err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_version(version) VALUES ($1)`, m.Version); err != nil {
		return fmt.Errorf("record migration %s: %w", m.Version, err)
	}
	return tx.Commit(ctx)
}
