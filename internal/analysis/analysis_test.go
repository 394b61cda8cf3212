package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/estatelens-cli/internal/dataset"
)

func wakadDataset() *dataset.Dataset {
	return dataset.FromRows("sample", []string{"location", "year", "price"}, []dataset.Row{
		{"location": "Wakad", "year": int64(2021), "price": "50,000"},
		{"location": "Wakad", "year": int64(2021), "price": int64(60000)},
		{"location": "Wakad", "year": int64(2022), "price": int64(70000)},
	})
}

func TestWakadYearlySeries(t *testing.T) {
	ds := wakadDataset()
	cols := ResolveColumns(ds)
	res := Filter(ds, cols, "Wakad", FilterOptions{})
	require.Len(t, res.Rows, 3)
	assert.Equal(t, []ChartPoint{{Year: 2021, AvgPrice: 55000}, {Year: 2022, AvgPrice: 70000}}, res.Chart)
	assert.Equal(t, []string{"price"}, res.PriceColumns)
}

func TestResolveColumnsHeuristics(t *testing.T) {
	ds := dataset.FromRows("pune", []string{"final location", "City", "Sale Year", "flat - weighted average rate", "total_sales - igr", "carpet value"}, []dataset.Row{
		{"final location": "Aundh", "Sale Year": int64(2020)},
		{"final location": "Baner", "Sale Year": int64(2021)},
		{"final location": "Baner", "Sale Year": "n/a"},
	})
	cols := ResolveColumns(ds)
	assert.Equal(t, []string{"final location", "City"}, cols.Location)
	assert.Equal(t, []string{"flat - weighted average rate", "carpet value"}, cols.Price)
	assert.Equal(t, "Sale Year", cols.Year)
}

func TestResolveColumnsPrefersComputedPriceAndExactYear(t *testing.T) {
	ds := dataset.FromRows("x", []string{"area", "price", ComputedPriceColumn, "built", "yr"}, []dataset.Row{
		{"area": "Ravet", "built": int64(1999), "yr": int64(2020)},
	})
	cols := ResolveColumns(ds)
	assert.Equal(t, []string{ComputedPriceColumn}, cols.Price)
	assert.Equal(t, "yr", cols.Year)
}

func TestResolveColumnsYearMajority(t *testing.T) {
	ds := dataset.FromRows("x", []string{"area", "units", "period"}, []dataset.Row{
		{"area": "A", "units": int64(2020), "period": int64(2019)},
		{"area": "A", "units": int64(12), "period": int64(2020)},
		{"area": "A", "units": int64(5), "period": 2021.5},
		{"area": "A", "units": "-", "period": int64(2022)},
	})
	// units: 1 of 3 numeric values is a year; period: 3 of 4
	assert.Equal(t, "period", ResolveColumns(ds).Year)

	none := dataset.FromRows("x", []string{"area", "price"}, []dataset.Row{{"area": "A", "price": int64(100)}})
	cols := ResolveColumns(none)
	assert.False(t, cols.HasYear())
}

func TestFilterDegradedWithoutPriceColumns(t *testing.T) {
	ds := dataset.FromRows("x", []string{"location", "year"}, []dataset.Row{
		{"location": "Hinjewadi", "year": int64(2020)},
	})
	cols := ResolveColumns(ds)
	require.False(t, cols.HasPrice())
	res := Filter(ds, cols, "hinjewadi", FilterOptions{})
	require.Len(t, res.Rows, 1)
	assert.Nil(t, res.Rows[0].Price)
	assert.Empty(t, res.Chart)
	rec := res.Records(0)[0]
	assert.Contains(t, rec, ComputedPriceColumn)
	assert.Nil(t, rec[ComputedPriceColumn])
}

func TestFilterAveragesPriceColumnsAndSkipsAbsent(t *testing.T) {
	ds := dataset.FromRows("x", []string{"location", "year", "flat rate", "shop rate"}, []dataset.Row{
		{"location": "Akurdi", "year": int64(2020), "flat rate": "4,000", "shop rate": int64(6000)},
		{"location": "Akurdi", "year": int64(2021), "flat rate": "NA", "shop rate": int64(7000)},
		{"location": "Akurdi", "year": nil, "flat rate": int64(9000), "shop rate": nil},
		{"location": nil, "year": int64(2021), "flat rate": int64(1), "shop rate": int64(1)},
	})
	res := Filter(ds, ResolveColumns(ds), "AKURDI", FilterOptions{})
	require.Len(t, res.Rows, 3)
	assert.InDelta(t, 5000, *res.Rows[0].Price, 1e-9)
	assert.InDelta(t, 7000, *res.Rows[1].Price, 1e-9)
	assert.False(t, res.Rows[2].HasYear)
	// the row without a year is kept but does not reach the chart
	assert.Equal(t, []ChartPoint{{2020, 5000}, {2021, 7000}}, res.Chart)
}

func TestFilterMatchModes(t *testing.T) {
	ds := dataset.FromRows("x", []string{"location", "year", "price"}, []dataset.Row{
		{"location": "Wakad Phase 2", "year": int64(2021), "price": int64(1)},
		{"location": "Wakadewadi", "year": int64(2021), "price": int64(2)},
	})
	cols := ResolveColumns(ds)
	assert.Len(t, Filter(ds, cols, "Wakad", FilterOptions{}).Rows, 2)
	word := Filter(ds, cols, "Wakad", FilterOptions{MatchMode: MatchWord})
	require.Len(t, word.Rows, 1)
	assert.Equal(t, "Wakad Phase 2", word.Rows[0].Row["location"])

	mode, err := ParseMatchMode("WORD")
	require.NoError(t, err)
	assert.Equal(t, MatchWord, mode)
	_, err = ParseMatchMode("fuzzy")
	assert.Error(t, err)
}

func TestFilterLookbackKeepsRowsWithoutYear(t *testing.T) {
	rows := []dataset.Row{}
	for y := int64(2015); y <= 2023; y++ {
		rows = append(rows, dataset.Row{"location": "Baner", "year": y, "price": y * 10})
	}
	rows = append(rows, dataset.Row{"location": "Baner", "year": "unknown", "price": int64(5)})
	ds := dataset.FromRows("x", []string{"location", "year", "price"}, rows)
	res := Filter(ds, ResolveColumns(ds), "Baner", FilterOptions{LookbackYears: 3, HasLookback: true})
	// 2020..2023 plus the yearless row
	assert.Len(t, res.Rows, 5)
	require.Len(t, res.Chart, 4)
	assert.Equal(t, 2020, res.Chart[0].Year)
	assert.Equal(t, 2023, res.Chart[3].Year)
}

func TestFilterZeroLookbackKeepsLatestYear(t *testing.T) {
	ds := wakadDataset()
	cols := ResolveColumns(ds)
	res := Filter(ds, cols, "Wakad", FilterOptions{HasLookback: true})
	require.Len(t, res.Rows, 1)
	assert.Equal(t, []ChartPoint{{Year: 2022, AvgPrice: 70000}}, res.Chart)

	// without HasLookback a zero window is no window
	assert.Len(t, Filter(ds, cols, "Wakad", FilterOptions{}).Rows, 3)
}

func TestFilterWherePredicate(t *testing.T) {
	ds := wakadDataset()
	cols := ResolveColumns(ds)
	where, err := CompilePredicate("year == 2022 or price == 50000")
	require.NoError(t, err)
	res := Filter(ds, cols, "Wakad", FilterOptions{Where: where})
	require.Len(t, res.Rows, 2)
	assert.Equal(t, []ChartPoint{{2021, 50000}, {2022, 70000}}, res.Chart)

	byCol, err := CompilePredicate(`location matches "^Wak" and year != 2022`)
	require.NoError(t, err)
	res = Filter(ds, cols, "Wakad", FilterOptions{Where: byCol})
	assert.Len(t, res.Rows, 2)
	assert.Zero(t, res.Skipped)

	// regex against a number cannot be evaluated; those rows are dropped
	bad, err := CompilePredicate(`price matches "5"`)
	require.NoError(t, err)
	res = Filter(ds, cols, "Wakad", FilterOptions{Where: bad})
	assert.Empty(t, res.Rows)
	assert.Equal(t, 3, res.Skipped)

	none, err := CompilePredicate("  ")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = CompilePredicate("year ==")
	assert.Error(t, err)
}

func TestSelectorName(t *testing.T) {
	assert.Equal(t, "flat_weighted_average_rate", SelectorName("Flat - Weighted Average Rate"))
	assert.Equal(t, "total_sales_igr", SelectorName(" total_sales - igr "))
	assert.Equal(t, "", SelectorName("--"))
}

func TestFilterDoesNotMutateDataset(t *testing.T) {
	ds := wakadDataset()
	res := Filter(ds, ResolveColumns(ds), "Wakad", FilterOptions{})
	_ = res.Records(0)
	for _, r := range ds.Rows {
		assert.NotContains(t, r, ComputedPriceColumn)
	}
}

func TestPriceStatsAndCondense(t *testing.T) {
	p := func(f float64) *float64 { return &f }
	rows := []FilteredRow{
		{Price: p(100), Year: 2018, HasYear: true},
		{Price: p(300), Year: 2019, HasYear: true},
		{Price: p(200), Year: 2020, HasYear: true},
		{Price: nil, Year: 2021, HasYear: true},
		{Price: p(400)},
	}
	st := PriceStats(rows)
	assert.Equal(t, 5, st.Count)
	assert.Equal(t, 4, st.Priced)
	assert.Equal(t, 2018, st.MinYear)
	assert.Equal(t, 2021, st.MaxYear)
	assert.InDelta(t, 250, st.Mean, 1e-9)
	assert.InDelta(t, 250, st.Median, 1e-9)
	assert.Equal(t, 100.0, st.Min)
	assert.Equal(t, 400.0, st.Max)

	assert.Equal(t, []ChartPoint{{2019, 300}, {2020, 200}}, Condense(rows, 2))
	assert.Len(t, Condense(rows, 0), 3)

	empty := PriceStats(nil)
	assert.False(t, empty.HasPrices())
	assert.False(t, empty.HasYear)
}

func TestTag(t *testing.T) {
	got := Tag("Aundh", []ChartPoint{{2020, 1}})
	assert.Equal(t, []AreaPoint{{Area: "Aundh", Year: 2020, AvgPrice: 1}}, got)
}
