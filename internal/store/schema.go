package store

import (
	"context"
	"database/sql"
	"fmt"

	"product-store-service/internal/config"
)

// No foreign key on category_id: categories are owned by another service and
// a product may outlive its category.
var schemas = map[string][]string{
	config.DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS categories (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT NOT NULL,
			category_id INTEGER,
			price       REAL NOT NULL DEFAULT 0,
			stock       INTEGER NOT NULL DEFAULT 0,
			description TEXT
		)`,
	},
	config.DriverPostgres: postgresSchema,
	config.DriverPgx:      postgresSchema,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id   BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL,
		category_id BIGINT,
		price       NUMERIC(12, 2) NOT NULL DEFAULT 0,
		stock       BIGINT NOT NULL DEFAULT 0,
		description TEXT
	)`,
}

// Migrate creates the categories and products tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	statements, ok := schemas[driver]
	if !ok {
		return fmt.Errorf("store: no schema for driver %q", driver)
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: Migrate failed: %w", err)
		}
	}
	return nil
}
