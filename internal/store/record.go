package store

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Record is one row keyed by column name. Drivers disagree on the Go types they
// return (sqlite gives float64 for REAL, pq gives text for NUMERIC), so the
// accessors below accept every representation a supported driver produces.
type Record map[string]any

// Int64 reads a non-null integer column.
func (r Record) Int64(col string) (int64, error) {
	v, err := r.NullInt64(col)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, fmt.Errorf("store: column %q is null", col)
	}
	return *v, nil
}

// NullInt64 reads an integer column, returning nil for SQL NULL.
func (r Record) NullInt64(col string) (*int64, error) {
	var n int64
	switch v := r[col].(type) {
	case nil:
		return nil, nil
	case int64:
		n = v
	case int32:
		n = int64(v)
	case int:
		n = int64(v)
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("store: column %q: %v is not an integer", col, v)
		}
		n = int64(v)
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("store: column %q: %w", col, err)
		}
		n = parsed
	default:
		return nil, fmt.Errorf("store: column %q: unexpected type %T", col, v)
	}
	return &n, nil
}

// Text reads a text column; SQL NULL reads as "".
func (r Record) Text(col string) (string, error) {
	v, err := r.NullText(col)
	if err != nil || v == nil {
		return "", err
	}
	return *v, nil
}

// NullText reads a text column, returning nil for SQL NULL.
func (r Record) NullText(col string) (*string, error) {
	var s string
	switch v := r[col].(type) {
	case nil:
		return nil, nil
	case string:
		s = v
	case []byte:
		s = string(v)
	case time.Time:
		s = v.Format(time.RFC3339Nano)
	default:
		return nil, fmt.Errorf("store: column %q: unexpected type %T", col, v)
	}
	return &s, nil
}

// Decimal reads a numeric column; SQL NULL reads as zero.
func (r Record) Decimal(col string) (decimal.Decimal, error) {
	switch v := r[col].(type) {
	case nil:
		return decimal.Zero, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("store: column %q: %w", col, err)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("store: column %q: unexpected type %T", col, v)
	}
}
