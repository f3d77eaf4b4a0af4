package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema holds the two ledger collections: users/{userId} and
// purchases/{purchaseToken}. purchase_token is the idempotency key.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id    TEXT PRIMARY KEY,
		credits    INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS purchases (
		purchase_token TEXT PRIMARY KEY,
		user_id        TEXT NOT NULL,
		amount         INTEGER NOT NULL,
		platform       TEXT NOT NULL,
		package_name   TEXT NOT NULL,
		product_id     TEXT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS purchases_user_id_idx ON purchases (user_id)`,
}

// EnsureSchema creates the ledger tables if they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error applying schema: %w", err)
		}
	}
	return nil
}
