package summary

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/estatelens-cli/internal/analysis"
	"github.com/KaramelBytes/estatelens-cli/internal/utils"
)

// params are the per-flow narrative knobs.
type params struct {
	years       int
	sample      int
	maxTokens   int
	temperature float64
}

var (
	simpleParams  = params{years: 6, sample: 5, maxTokens: 220, temperature: 0.5}
	customParams  = params{years: 8, sample: 5, maxTokens: 350, temperature: 0.6}
	compareParams = params{years: 6, maxTokens: 400, temperature: 0.6}
)

// DefaultComparisonTask is used when a comparison has no user prompt.
const DefaultComparisonTask = "Compare the listed areas in terms of recent price trends, relative growth, " +
	"and notable differences. Provide a concise comparison and highlight any area with exceptional behavior."

type yearlyAvg struct {
	Year     int     `json:"year"`
	AvgPrice float64 `json:"avg_price"`
}

func condensedContext(rows []analysis.FilteredRow, years int) []yearlyAvg {
	series := analysis.Condense(rows, years)
	out := make([]yearlyAvg, 0, len(series))
	for _, p := range series {
		out = append(out, yearlyAvg{Year: p.Year, AvgPrice: round2(p.AvgPrice)})
	}
	return out
}

func sampleRows(rows []analysis.FilteredRow, n int) []map[string]any {
	if n > len(rows) {
		n = len(rows)
	}
	out := make([]map[string]any, 0, n)
	for _, r := range rows[:n] {
		out = append(out, r.Record())
	}
	return out
}

func mustJSON(v any) string {
	s, err := utils.CompactJSON(v)
	if err != nil {
		return "[]"
	}
	return s
}

// simplePrompt asks for a short market overview from aggregate statistics.
func simplePrompt(area string, rows []analysis.FilteredRow) string {
	st := analysis.PriceStats(rows)
	condensed := condensedContext(rows, simpleParams.years)
	yearRange := "N/A"
	if len(condensed) > 0 {
		yearRange = fmt.Sprintf("%d to %d", condensed[0].Year, condensed[len(condensed)-1].Year)
	}
	var b strings.Builder
	b.WriteString("Provide a concise 3-4 sentence data-driven summary of the real estate market using the statistics and yearly averages below.\n\n")
	fmt.Fprintf(&b, "Area: %s\n", area)
	fmt.Fprintf(&b, "Total Records: %d\n", st.Count)
	fmt.Fprintf(&b, "Year Range: %s\n", yearRange)
	fmt.Fprintf(&b, "Average Price: %s\n", FormatINR(st.Mean))
	fmt.Fprintf(&b, "Price Range: %s to %s\n\n", FormatINR(st.Min), FormatINR(st.Max))
	fmt.Fprintf(&b, "Yearly Averages (ascending): %s\n", mustJSON(condensed))
	fmt.Fprintf(&b, "Sample Rows: %s\n\n", mustJSON(sampleRows(rows, simpleParams.sample)))
	b.WriteString("Cover the overall market, notable price trends, and one or two key insights or cautions. Keep it professional.")
	return b.String()
}

// customPrompt answers the user's own question against a JSON context.
func customPrompt(question string, rows []analysis.FilteredRow) string {
	ctx := map[string]any{
		"description":      "Condensed yearly averages and a small sample of rows for the user's query.",
		"condensed_yearly": condensedContext(rows, customParams.years),
		"sample_rows":      sampleRows(rows, customParams.sample),
	}
	return strings.Join([]string{
		"Use the JSON context to answer the user's question precisely and concisely.",
		"User question: " + question,
		"Context JSON:",
		mustJSON(ctx),
	}, "\n\n")
}

// comparePrompt frames a multi-area comparison.
func comparePrompt(task string, areas []AreaRows) string {
	condensed := make(map[string][]yearlyAvg, len(areas))
	for _, a := range areas {
		condensed[a.Area] = condensedContext(a.Rows, compareParams.years)
	}
	if strings.TrimSpace(task) == "" {
		task = DefaultComparisonTask
	}
	ctx := map[string]any{
		"description": "Yearly averages for each area (compact).",
		"areas":       condensed,
	}
	return strings.Join([]string{
		"Task: " + task,
		"Context JSON:",
		mustJSON(ctx),
	}, "\n\n")
}

func truncatePrompt(prompt string, limit int) string {
	if utils.CountTokens(prompt) <= limit {
		return prompt
	}
	return utils.TruncateToTokenLimit(prompt, limit)
}
