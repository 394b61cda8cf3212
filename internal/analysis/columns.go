package analysis

import (
	"strings"

	"github.com/KaramelBytes/estatelens-cli/internal/dataset"
)

// ComputedPriceColumn, when present in a dataset, is used as the only price column.
const ComputedPriceColumn = "computedPrice"

var (
	locationHints = []string{"location", "area", "city"}
	priceHints    = []string{"price", "cost", "rate", "value"}
)

// Columns records which dataset columns play the location, price and year roles.
// Year is empty when no column qualifies.
type Columns struct {
	Location []string `json:"location"`
	Price    []string `json:"price"`
	Year     string   `json:"year,omitempty"`
}

// HasPrice reports whether any price column was resolved.
func (c Columns) HasPrice() bool { return len(c.Price) > 0 }

// HasYear reports whether a year column was resolved.
func (c Columns) HasYear() bool { return c.Year != "" }

// ResolveColumns classifies columns by name heuristics. The year column is an
// exact "year"/"yr" match or, failing that, the first column whose numeric
// values are mostly whole calendar years.
func ResolveColumns(ds *dataset.Dataset) Columns {
	var out Columns
	if ds == nil {
		return out
	}
	for _, c := range ds.Columns {
		lc := strings.ToLower(c)
		if containsAny(lc, locationHints) {
			out.Location = append(out.Location, c)
		}
		if containsAny(lc, priceHints) {
			out.Price = append(out.Price, c)
		}
	}
	if ds.HasColumn(ComputedPriceColumn) {
		out.Price = []string{ComputedPriceColumn}
	}
	out.Year = resolveYear(ds)
	return out
}

func resolveYear(ds *dataset.Dataset) string {
	for _, c := range ds.Columns {
		lc := strings.ToLower(strings.TrimSpace(c))
		if lc == "year" || lc == "yr" {
			return c
		}
	}
	for _, c := range ds.Columns {
		numeric, years := 0, 0
		for _, r := range ds.Rows {
			if _, ok := dataset.Year(r[c]); ok {
				numeric++
				years++
			} else if _, ok := dataset.Number(r[c]); ok {
				numeric++
			}
		}
		if numeric > 0 && years*2 > numeric {
			return c
		}
	}
	return ""
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
