package dataset

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Value is a single scalar cell: nil, float64, int64, string, bool or time.Time.
type Value = any

// Row maps column name to cell value.
type Row map[string]Value

// Dataset is an immutable in-memory snapshot of a tabular source.
// It is safe to share between goroutines once loaded.
type Dataset struct {
	ID       string
	Name     string
	Columns  []string
	Rows     []Row
	LoadedAt time.Time
}

// New builds a snapshot from a header and string records, the shape produced
// by CSV and spreadsheet readers. Blank headers become Column_N and short
// records are padded with nil cells.
func New(name string, header []string, records [][]string) *Dataset {
	cols := normalizeHeader(header)
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		if isBlankRecord(rec) {
			continue
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			if i < len(rec) {
				row[c] = inferCell(rec[i])
			} else {
				row[c] = nil
			}
		}
		rows = append(rows, row)
	}
	return FromRows(name, cols, rows)
}

// FromRows wraps already-typed rows. Columns keep the given order.
func FromRows(name string, columns []string, rows []Row) *Dataset {
	return &Dataset{
		ID:       uuid.NewString(),
		Name:     name,
		Columns:  columns,
		Rows:     rows,
		LoadedAt: time.Now(),
	}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// HasColumn reports whether a column with exactly this name exists.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

func (d *Dataset) String() string {
	return fmt.Sprintf("%s (%d rows, %d columns)", d.Name, len(d.Rows), len(d.Columns))
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		if n := seen[h]; n > 0 {
			seen[h] = n + 1
			h = fmt.Sprintf("%s_%d", h, n+1)
		} else {
			seen[h] = 1
		}
		out[i] = h
	}
	return out
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
