package insights

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/estatelens-cli/internal/analysis"
	"github.com/KaramelBytes/estatelens-cli/internal/dataset"
)

// AreaCount is the number of rows carrying one location value.
type AreaCount struct {
	Area string `json:"area"`
	Rows int    `json:"rows"`
}

// Profile describes the loaded dataset: its shape, the resolved column roles,
// overall price statistics and the most frequent location values.
type Profile struct {
	Name     string           `json:"name"`
	Rows     int              `json:"rows"`
	Columns  []string         `json:"columns"`
	Resolved analysis.Columns `json:"resolved"`
	Stats    analysis.Stats   `json:"stats"`
	TopAreas []AreaCount      `json:"topAreas"`
	Areas    int              `json:"distinctAreas"`
}

// Profile summarizes the dataset. Areas are keyed on the first location
// column, case-insensitively, and the top n are returned by row count.
func (s *Service) Profile(n int) Profile {
	p := Profile{
		Name:     s.ds.Name,
		Rows:     s.ds.Len(),
		Columns:  nonNil(s.ds.Columns),
		Resolved: s.cols,
		TopAreas: []AreaCount{},
	}

	rows := make([]analysis.FilteredRow, 0, len(s.ds.Rows))
	counts := map[string]*AreaCount{}
	for _, row := range s.ds.Rows {
		fr := analysis.FilteredRow{Row: row, Price: analysis.RowPrice(row, s.cols.Price)}
		if s.cols.HasYear() {
			fr.Year, fr.HasYear = dataset.Year(row[s.cols.Year])
		}
		rows = append(rows, fr)

		if len(s.cols.Location) == 0 || row[s.cols.Location[0]] == nil {
			continue
		}
		name := strings.TrimSpace(fmt.Sprint(row[s.cols.Location[0]]))
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if c, ok := counts[key]; ok {
			c.Rows++
		} else {
			counts[key] = &AreaCount{Area: name, Rows: 1}
		}
	}
	p.Stats = analysis.PriceStats(rows)
	p.Areas = len(counts)

	for _, c := range counts {
		p.TopAreas = append(p.TopAreas, *c)
	}
	sort.Slice(p.TopAreas, func(i, j int) bool {
		a, b := p.TopAreas[i], p.TopAreas[j]
		if a.Rows != b.Rows {
			return a.Rows > b.Rows
		}
		return a.Area < b.Area
	})
	if n > 0 && len(p.TopAreas) > n {
		p.TopAreas = p.TopAreas[:n]
	}
	return p
}
