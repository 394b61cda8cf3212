package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lib/pq"
)

type postgresLoader struct{}

func (postgresLoader) CanLoad(src Source) bool {
	return src.DSN != ""
}

// Load reads every row of src.Table. Column order follows the table definition.
func (postgresLoader) Load(ctx context.Context, src Source) (*Dataset, error) {
	if strings.TrimSpace(src.Table) == "" {
		return nil, fmt.Errorf("postgres: dataset_table is required with a DSN")
	}
	db, err := sql.Open("postgres", src.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteTable(src.Table))
	if err != nil {
		return nil, fmt.Errorf("postgres: query %s: %w", src.Table, err)
	}
	defer rows.Close()
	return scanRows(src.Table, rows)
}

// quoteTable quotes an optionally schema-qualified table name.
func quoteTable(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(strings.TrimSpace(p))
	}
	return strings.Join(parts, ".")
}

type rowScanner interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRows(name string, rs rowScanner) (*Dataset, error) {
	cols, err := rs.Columns()
	if err != nil {
		return nil, fmt.Errorf("postgres: columns: %w", err)
	}
	var out []Row
	for rs.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rs.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("postgres: scan row %d: %w", len(out)+1, err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = normalizeSQLValue(vals[i])
		}
		out = append(out, row)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate: %w", err)
	}
	return FromRows(name, cols, out), nil
}

// normalizeSQLValue maps driver values onto the Value scalar set.
// NUMERIC columns arrive as []byte and are kept as text; coercion parses them later.
func normalizeSQLValue(v any) Value {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case int64, bool, string:
		return x
	case time.Time:
		return x
	default:
		return fmt.Sprint(x)
	}
}
