package analysis

import "sort"

// ChartPoint is the mean price for one year.
type ChartPoint struct {
	Year     int     `json:"year"`
	AvgPrice float64 `json:"avgPrice"`
}

// AreaPoint is a ChartPoint tagged with the area it belongs to.
type AreaPoint struct {
	Area     string  `json:"area"`
	Year     int     `json:"year"`
	AvgPrice float64 `json:"avgPrice"`
}

// Tag labels every point of series with area.
func Tag(area string, series []ChartPoint) []AreaPoint {
	out := make([]AreaPoint, 0, len(series))
	for _, p := range series {
		out = append(out, AreaPoint{Area: area, Year: p.Year, AvgPrice: p.AvgPrice})
	}
	return out
}

// YearlySeries groups contributing rows by year and averages their price.
// Years are ascending; years without data are absent.
func YearlySeries(rows []FilteredRow) []ChartPoint {
	type acc struct {
		sum float64
		n   int
	}
	byYear := map[int]*acc{}
	for _, r := range rows {
		if !r.Contributes() {
			continue
		}
		a := byYear[r.Year]
		if a == nil {
			a = &acc{}
			byYear[r.Year] = a
		}
		a.sum += *r.Price
		a.n++
	}
	out := make([]ChartPoint, 0, len(byYear))
	for y, a := range byYear {
		out = append(out, ChartPoint{Year: y, AvgPrice: a.sum / float64(a.n)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// Condense returns the yearly series limited to the n most recent years, ascending.
func Condense(rows []FilteredRow, n int) []ChartPoint {
	return LastN(YearlySeries(rows), n)
}

// LastN keeps the trailing n points of an ascending series.
func LastN(series []ChartPoint, n int) []ChartPoint {
	if n <= 0 || len(series) <= n {
		return series
	}
	return series[len(series)-n:]
}

// Stats summarizes the rows of one area. Priced counts rows with a
// resolvable price.
type Stats struct {
	Count   int     `json:"count"`
	Priced  int     `json:"priced"`
	HasYear bool    `json:"-"`
	MinYear int     `json:"minYear,omitempty"`
	MaxYear int     `json:"maxYear,omitempty"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// HasPrices reports whether any row carried a price.
func (s Stats) HasPrices() bool { return s.Priced > 0 }

// PriceStats computes count, year span and price statistics over rows.
// Price fields are zero when no row has a price.
func PriceStats(rows []FilteredRow) Stats {
	st := Stats{Count: len(rows)}
	var prices []float64
	for _, r := range rows {
		if r.HasYear {
			if !st.HasYear || r.Year < st.MinYear {
				st.MinYear = r.Year
			}
			if !st.HasYear || r.Year > st.MaxYear {
				st.MaxYear = r.Year
			}
			st.HasYear = true
		}
		if r.Price != nil {
			prices = append(prices, *r.Price)
		}
	}
	st.Priced = len(prices)
	if len(prices) == 0 {
		return st
	}
	sort.Float64s(prices)
	sum := 0.0
	for _, p := range prices {
		sum += p
	}
	st.Mean = sum / float64(len(prices))
	st.Min = prices[0]
	st.Max = prices[len(prices)-1]
	st.Median = quantile(prices, 0.5)
	return st
}

// quantile interpolates linearly on an ascending slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	frac := pos - float64(lo)
	if lo+1 < len(sorted) {
		return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
	}
	return sorted[lo]
}
