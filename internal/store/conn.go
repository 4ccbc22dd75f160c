package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"product-store-service/internal/config"
	"product-store-service/internal/metrics"
)

// Dialect describes how a driver differs from the `?`-placeholder SQL the repositories emit.
type Dialect struct {
	Name string
	// returningID runs INSERTs as queries with `RETURNING id`, for drivers without LastInsertId.
	returningID bool
}

var (
	DialectSQLite   = Dialect{Name: config.DriverSQLite}
	DialectPostgres = Dialect{Name: config.DriverPostgres, returningID: true}
	DialectPgx      = Dialect{Name: config.DriverPgx, returningID: true}
)

// DialectFor returns the dialect registered for a DB_DRIVER value.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case config.DriverSQLite:
		return DialectSQLite, nil
	case config.DriverPostgres:
		return DialectPostgres, nil
	case config.DriverPgx:
		return DialectPgx, nil
	default:
		return Dialect{}, fmt.Errorf("store: unsupported driver %q", driver)
	}
}

// Rebind rewrites `?` placeholders into the driver's bind style.
func (d Dialect) Rebind(query string) string {
	return sqlx.Rebind(sqlx.BindType(d.Name), query)
}

// statementKind returns the lower-cased leading verb of a statement:
// "select", "insert", "update", "delete", or "other".
func statementKind(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "other"
	}
	switch verb := strings.ToLower(fields[0]); verb {
	case "select", "insert", "update", "delete":
		return verb
	default:
		return "other"
	}
}

// SQLConn implements Conn on top of an sqlx handle.
type SQLConn struct {
	db      *sqlx.DB
	dialect Dialect
}

// NewSQLConn wraps db. The pool is shared by every caller and is safe for concurrent use.
func NewSQLConn(db *sql.DB, dialect Dialect) *SQLConn {
	return &SQLConn{db: sqlx.NewDb(db, dialect.Name), dialect: dialect}
}

func (c *SQLConn) Execute(ctx context.Context, query string, args ...any) (res Result, err error) {
	kind := statementKind(query)
	defer func(start time.Time) { metrics.ObserveDBQuery(kind, start, err) }(time.Now())

	if c.dialect.returningID && kind == "insert" {
		var id int64
		if err = c.db.QueryRowxContext(ctx, c.dialect.Rebind(query)+" RETURNING id", args...).Scan(&id); err != nil {
			return Result{}, err
		}
		return Result{LastInsertID: id, RowsAffected: 1}, nil
	}

	sqlRes, err := c.db.ExecContext(ctx, c.dialect.Rebind(query), args...)
	if err != nil {
		return Result{}, err
	}
	if res.RowsAffected, err = sqlRes.RowsAffected(); err != nil {
		return Result{}, err
	}
	if !c.dialect.returningID {
		if res.LastInsertID, err = sqlRes.LastInsertId(); err != nil {
			return Result{}, err
		}
	}
	return res, nil
}

func (c *SQLConn) QueryAll(ctx context.Context, query string, args ...any) (records []Record, err error) {
	defer func(start time.Time) { metrics.ObserveDBQuery(statementKind(query), start, err) }(time.Now())

	rows, err := c.db.QueryxContext(ctx, c.dialect.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records = make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *SQLConn) QueryOne(ctx context.Context, query string, args ...any) (rec Record, err error) {
	defer func(start time.Time) { metrics.ObserveDBQuery(statementKind(query), start, err) }(time.Now())

	rows, err := c.db.QueryxContext(ctx, c.dialect.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRecord(rows)
}

// Ping checks the pool can reach the database.
func (c *SQLConn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close releases the connection pool.
func (c *SQLConn) Close() error {
	return c.db.Close()
}

// scanRecord reads the current row by column name. Text that drivers hand
// back as []byte is stored as string.
func scanRecord(rows *sqlx.Rows) (Record, error) {
	rec := make(Record)
	if err := rows.MapScan(rec); err != nil {
		return nil, err
	}
	for col, v := range rec {
		if b, ok := v.([]byte); ok {
			rec[col] = string(b)
		}
	}
	return rec, nil
}
