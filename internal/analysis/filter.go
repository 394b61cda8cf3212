package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/KaramelBytes/estatelens-cli/internal/dataset"
)

// MatchMode controls how an area is matched against location values.
type MatchMode string

const (
	// MatchSubstring matches when the location text contains the area anywhere.
	MatchSubstring MatchMode = "substring"
	// MatchWord requires the area to start and end on word boundaries.
	MatchWord MatchMode = "word"
)

// ParseMatchMode maps a config value to a MatchMode. Empty means substring.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchSubstring:
		return MatchSubstring, nil
	case MatchWord:
		return MatchWord, nil
	default:
		return "", fmt.Errorf("unknown match mode %q (use substring or word)", s)
	}
}

// FilterOptions tunes Filter.
type FilterOptions struct {
	MatchMode MatchMode
	// LookbackYears keeps only rows within this many years of the latest
	// matching year when HasLookback is set. Zero keeps the latest year only.
	LookbackYears int
	HasLookback   bool
	// Where drops rows the predicate rejects. Nil keeps all rows.
	Where *Predicate
}

// FilteredRow is a matching dataset row with its derived price and year.
type FilteredRow struct {
	Row     dataset.Row
	Price   *float64
	Year    int
	HasYear bool
}

// Contributes reports whether the row feeds the yearly series.
func (r FilteredRow) Contributes() bool {
	return r.Price != nil && r.HasYear
}

// Record returns the original row plus a computedPrice field for table output.
// The source row is not modified.
func (r FilteredRow) Record() map[string]any {
	out := make(map[string]any, len(r.Row)+1)
	for k, v := range r.Row {
		out[k] = v
	}
	if r.Price != nil {
		out[ComputedPriceColumn] = *r.Price
	} else {
		out[ComputedPriceColumn] = nil
	}
	return out
}

// FilterResult is the per-area output of Filter.
type FilterResult struct {
	Area         string
	Rows         []FilteredRow
	Chart        []ChartPoint
	PriceColumns []string
	// Skipped counts rows dropped because the Where predicate failed to evaluate.
	Skipped int
}

// Records returns up to limit table records. A non-positive limit returns all.
func (fr FilterResult) Records(limit int) []map[string]any {
	n := len(fr.Rows)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]map[string]any, 0, n)
	for _, r := range fr.Rows[:n] {
		out = append(out, r.Record())
	}
	return out
}

// Filter selects rows whose location matches area, derives each row's price
// and year, applies the optional lookback window and predicate, and builds
// the yearly series. It never mutates ds.
func Filter(ds *dataset.Dataset, cols Columns, area string, opts FilterOptions) FilterResult {
	res := FilterResult{Area: area, PriceColumns: cols.Price}
	needle := strings.ToLower(strings.TrimSpace(area))
	if ds == nil || needle == "" || len(cols.Location) == 0 {
		return res
	}
	match := substringMatcher(needle)
	if opts.MatchMode == MatchWord {
		match = wordMatcher(needle)
	}

	var rows []FilteredRow
	maxYear, anyYear := 0, false
	for _, row := range ds.Rows {
		if !locationMatches(row, cols.Location, match) {
			continue
		}
		fr := FilteredRow{Row: row, Price: RowPrice(row, cols.Price)}
		if cols.HasYear() {
			fr.Year, fr.HasYear = dataset.Year(row[cols.Year])
		}
		if fr.HasYear && (!anyYear || fr.Year > maxYear) {
			maxYear, anyYear = fr.Year, true
		}
		rows = append(rows, fr)
	}

	if opts.HasLookback && opts.LookbackYears >= 0 && anyYear {
		cutoff := maxYear - opts.LookbackYears
		kept := rows[:0:0]
		for _, fr := range rows {
			if fr.HasYear && fr.Year < cutoff {
				continue
			}
			kept = append(kept, fr)
		}
		rows = kept
	}

	if opts.Where != nil {
		kept := rows[:0:0]
		for _, fr := range rows {
			ok, err := opts.Where.Match(fr)
			if err != nil {
				res.Skipped++
				continue
			}
			if ok {
				kept = append(kept, fr)
			}
		}
		rows = kept
	}

	res.Rows = rows
	res.Chart = YearlySeries(rows)
	return res
}

// RowPrice averages the numeric values found in priceCols. It returns nil
// when none of them holds a number.
func RowPrice(row dataset.Row, priceCols []string) *float64 {
	sum, n := 0.0, 0
	for _, c := range priceCols {
		if f, ok := dataset.Number(row[c]); ok {
			sum += f
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

func locationMatches(row dataset.Row, locCols []string, match func(string) bool) bool {
	for _, c := range locCols {
		s, ok := dataset.Text(row[c])
		if !ok {
			continue
		}
		if match(strings.ToLower(s)) {
			return true
		}
	}
	return false
}

func substringMatcher(needle string) func(string) bool {
	return func(s string) bool { return strings.Contains(s, needle) }
}

func wordMatcher(needle string) func(string) bool {
	re := regexp.MustCompile(`(^|[^\p{L}\p{N}])` + regexp.QuoteMeta(needle) + `($|[^\p{L}\p{N}])`)
	return re.MatchString
}
