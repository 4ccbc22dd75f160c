package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/lib/pq"              // registers "postgres"
	_ "github.com/mattn/go-sqlite3"    // registers "sqlite3"

	"product-store-service/internal/config"
)

// Open connects to the configured database, applies the pool settings and pings it.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*SQLConn, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", cfg.Driver, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		if cerr := db.Close(); cerr != nil {
			log.Printf("WARN: Error closing database after failed ping: %v", cerr)
		}
		return nil, fmt.Errorf("store: ping %s: %w", cfg.Driver, err)
	}
	return NewSQLConn(db, dialect), nil
}

// DB exposes the underlying pool, e.g. for schema bootstrap.
func (c *SQLConn) DB() *sql.DB {
	return c.db.DB
}

// Dialect reports which driver dialect the connection uses.
func (c *SQLConn) Dialect() Dialect {
	return c.dialect
}
