package summary

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/estatelens-cli/internal/ai"
	"github.com/KaramelBytes/estatelens-cli/internal/analysis"
	"github.com/KaramelBytes/estatelens-cli/internal/log"
)

type fakeNarrator struct {
	mu      sync.Mutex
	text    string
	err     error
	block   bool
	prompts []string
	tokens  []int
	temps   []float64
}

func (f *fakeNarrator) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.tokens = append(f.tokens, maxTokens)
	f.temps = append(f.temps, temperature)
	f.mu.Unlock()
	if f.block {
		// ignores ctx on purpose
		time.Sleep(2 * time.Second)
	}
	return f.text, f.err
}

func price(v float64) *float64 { return &v }

func rows(points ...[2]float64) []analysis.FilteredRow {
	out := make([]analysis.FilteredRow, 0, len(points))
	for _, p := range points {
		out = append(out, analysis.FilteredRow{Price: price(p[1]), Year: int(p[0]), HasYear: true})
	}
	return out
}

func TestSummarizeNarrativeSimpleFlow(t *testing.T) {
	n := &fakeNarrator{text: "  Wakad prices climbed.  "}
	g := NewGenerator(n, Options{}, log.Nop())
	res := g.Summarize(context.Background(), AreaRequest{Area: "Wakad", Rows: rows([2]float64{2021, 50000}, [2]float64{2022, 70000})})
	assert.Equal(t, Result{Text: "Wakad prices climbed.", Tier: TierNarrative}, res)
	require.Len(t, n.prompts, 1)
	assert.Contains(t, n.prompts[0], "Area: Wakad")
	assert.Contains(t, n.prompts[0], "Year Range: 2021 to 2022")
	assert.Contains(t, n.prompts[0], `{"year":2022,"avg_price":70000}`)
	assert.Equal(t, 220, n.tokens[0])
	assert.Equal(t, 0.5, n.temps[0])
}

func TestSummarizeCustomFlowLimitsYears(t *testing.T) {
	n := &fakeNarrator{text: "answer"}
	g := NewGenerator(n, Options{}, log.Nop())
	var rs []analysis.FilteredRow
	for y := 2010; y <= 2021; y++ {
		rs = append(rs, rows([2]float64{float64(y), float64(y)})...)
	}
	q := "How did Baner prices move recently?"
	require.Equal(t, FlowCustom, FlowFor(q))
	res := g.Summarize(context.Background(), AreaRequest{Area: "Baner", Question: q, Rows: rs, Flow: FlowCustom})
	assert.Equal(t, TierNarrative, res.Tier)
	p := n.prompts[0]
	assert.Contains(t, p, "User question: "+q)
	assert.NotContains(t, p, `"year":2013`)
	assert.Contains(t, p, `"year":2014`)
	assert.Equal(t, 350, n.tokens[0])
	assert.Equal(t, 0.6, n.temps[0])
}

func TestSummarizeFallsBackToStatistics(t *testing.T) {
	n := &fakeNarrator{err: &ai.ServerError{APIError: &ai.APIError{StatusCode: 503}}}
	g := NewGenerator(n, Options{}, log.Nop())
	rs := rows([2]float64{2019, 100000}, [2]float64{2020, 250000.5}, [2]float64{2021, 40000})
	rs = append(rs, analysis.FilteredRow{})
	res := g.Summarize(context.Background(), AreaRequest{Area: "Akurdi", Rows: rs})
	// mean of the three priced rows: 390000.5 / 3
	assert.Equal(t, TierStatistical, res.Tier)
	assert.Equal(t, "Found 4 records for Akurdi from 2019 to 2021. Average price: ₹130,000.17. Price range: ₹40,000.00 to ₹250,000.50.", res.Text)
}

func TestSummarizeWithoutNarrator(t *testing.T) {
	g := NewGenerator(nil, Options{}, nil)
	res := g.Summarize(context.Background(), AreaRequest{Area: "Ravet", Rows: []analysis.FilteredRow{{Year: 2020, HasYear: true}}})
	assert.Equal(t, TierStatistical, res.Tier)
	assert.Equal(t, "Found 1 records for Ravet. Insufficient numeric data to compute price statistics.", res.Text)

	noYear := g.Summarize(context.Background(), AreaRequest{Area: "Ravet", Rows: []analysis.FilteredRow{{Price: price(10)}}})
	assert.Equal(t, "Found 1 records for Ravet. Average price: ₹10.00. Price range: ₹10.00 to ₹10.00.", noYear.Text)
}

func TestSummarizeEmptyRowsIsMinimal(t *testing.T) {
	n := &fakeNarrator{text: "should not be used"}
	g := NewGenerator(n, Options{}, log.Nop())
	res := g.Summarize(context.Background(), AreaRequest{Area: "Nowhere", Flow: FlowCustom, Question: "tell me about Nowhere please"})
	assert.Equal(t, Result{Text: `No data found for "Nowhere".`, Tier: TierMinimal}, res)
	assert.Empty(t, n.prompts)
}

func TestSummarizeEmptyReplyFallsThrough(t *testing.T) {
	g := NewGenerator(&fakeNarrator{text: "   "}, Options{}, log.Nop())
	res := g.Summarize(context.Background(), AreaRequest{Area: "Wakad", Rows: rows([2]float64{2021, 1})})
	assert.Equal(t, TierStatistical, res.Tier)
}

func TestNarrativeTimeoutIsEnforced(t *testing.T) {
	g := NewGenerator(&fakeNarrator{text: "late", block: true}, Options{NarrativeTimeout: 50 * time.Millisecond}, log.Nop())
	start := time.Now()
	res := g.Summarize(context.Background(), AreaRequest{Area: "Wakad", Rows: rows([2]float64{2021, 1})})
	assert.Equal(t, TierStatistical, res.Tier)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPromptIsTruncated(t *testing.T) {
	n := &fakeNarrator{text: "ok"}
	g := NewGenerator(n, Options{PromptTokenLimit: 50}, log.Nop())
	g.Summarize(context.Background(), AreaRequest{Area: strings.Repeat("Long", 100), Rows: rows([2]float64{2021, 1})})
	require.Len(t, n.prompts, 1)
	assert.LessOrEqual(t, len([]rune(n.prompts[0])), 200)
}

func TestCompareNarrative(t *testing.T) {
	n := &fakeNarrator{text: "Wakad leads."}
	g := NewGenerator(n, Options{}, log.Nop())
	res := g.Compare(context.Background(), CompareRequest{Areas: []AreaRows{
		{Area: "Wakad", Rows: rows([2]float64{2021, 1})},
		{Area: "Akurdi", Rows: rows([2]float64{2021, 2})},
	}})
	assert.Equal(t, Result{Text: "Wakad leads.", Tier: TierNarrative}, res)
	assert.Contains(t, n.prompts[0], "Task: "+DefaultComparisonTask)
	assert.Contains(t, n.prompts[0], `"Akurdi":[{"year":2021,"avg_price":2}]`)
	assert.Equal(t, 400, n.tokens[0])
}

func TestCompareFallback(t *testing.T) {
	g := NewGenerator(&fakeNarrator{err: errors.New("boom")}, Options{}, log.Nop())
	res := g.Compare(context.Background(), CompareRequest{Areas: []AreaRows{
		{Area: "Wakad", Rows: rows([2]float64{2019, 10}, [2]float64{2020, 20}, [2]float64{2022, 1234.567})},
		{Area: "Akurdi", Rows: []analysis.FilteredRow{{}, {}}},
	}, Prompt: "Which is cheaper?"})
	assert.Equal(t, TierStatistical, res.Tier)
	assert.Equal(t, "Wakad: 3 records. Latest avg: ₹1,234.57 | Akurdi: 2 records.", res.Text)

	empty := g.Compare(context.Background(), CompareRequest{})
	assert.Equal(t, Result{Text: NoComparisonData, Tier: TierMinimal}, empty)
}

func TestFormatINR(t *testing.T) {
	cases := map[float64]string{
		0:           "₹0.00",
		999.999:     "₹1,000.00",
		55000:       "₹55,000.00",
		1234567.891: "₹1,234,567.89",
		-1500.5:     "-₹1,500.50",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatINR(in), "FormatINR(%v)", in)
	}
}

func TestFlowFor(t *testing.T) {
	assert.Equal(t, FlowSimple, FlowFor("Wakad"))
	assert.Equal(t, FlowSimple, FlowFor("Wakad prices"))
	assert.Equal(t, FlowCustom, FlowFor("Wakad prices lately"))
}

type panickingNarrator struct{}

func (panickingNarrator) Complete(context.Context, string, int, float64) (string, error) {
	panic("decoder blew up")
}

func TestSummarizeNarratorPanicFallsBack(t *testing.T) {
	g := NewGenerator(panickingNarrator{}, Options{}, log.Nop())
	res := g.Summarize(context.Background(), AreaRequest{Area: "Wakad", Rows: rows([2]float64{2021, 100})})
	assert.Equal(t, TierStatistical, res.Tier)
	assert.True(t, strings.HasPrefix(res.Text, "Found 1 records for Wakad"))
}
