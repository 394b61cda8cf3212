package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/KaramelBytes/estatelens-cli/internal/analysis"
)

// Flow selects the narrative prompt for a single-area summary.
type Flow int

const (
	// FlowSimple summarizes aggregate statistics for the area.
	FlowSimple Flow = iota
	// FlowCustom answers the user's free-text question with a JSON context.
	FlowCustom
)

// FlowFor picks the custom flow for free-text questions longer than two words.
func FlowFor(question string) Flow {
	if len(strings.Fields(question)) > 2 {
		return FlowCustom
	}
	return FlowSimple
}

// AreaRequest is the input of Summarize.
type AreaRequest struct {
	Area     string
	Question string
	Rows     []analysis.FilteredRow
	Flow     Flow
	// RequestID is attached to log lines.
	RequestID string
}

// Summarize produces the summary for one area.
func (g *Generator) Summarize(ctx context.Context, req AreaRequest) Result {
	logger := g.logger.With("request_id", req.RequestID, "area", req.Area)
	p, prompt := simpleParams, ""
	if len(req.Rows) > 0 {
		switch req.Flow {
		case FlowCustom:
			q := req.Question
			if strings.TrimSpace(q) == "" {
				q = req.Area
			}
			p, prompt = customParams, customPrompt(q, req.Rows)
		default:
			prompt = simplePrompt(req.Area, req.Rows)
		}
	}
	return g.runChain(ctx, "area", logger, []tier{
		{name: TierNarrative, run: func(ctx context.Context) (string, error) {
			if len(req.Rows) == 0 {
				return "", errNoRows
			}
			return g.narrate(ctx, prompt, p)
		}},
		{name: TierStatistical, run: func(context.Context) (string, error) {
			return StatisticalSummary(req.Area, req.Rows)
		}},
		{name: TierMinimal, run: func(context.Context) (string, error) {
			return MinimalSummary(req.Area), nil
		}},
	})
}

// StatisticalSummary renders the deterministic statistics sentence. It fails
// only when rows is empty.
func StatisticalSummary(area string, rows []analysis.FilteredRow) (string, error) {
	if len(rows) == 0 {
		return "", errNoRows
	}
	st := analysis.PriceStats(rows)
	if !st.HasPrices() {
		return fmt.Sprintf("Found %d records for %s. Insufficient numeric data to compute price statistics.", st.Count, area), nil
	}
	span := ""
	if st.HasYear {
		span = fmt.Sprintf(" from %d to %d", st.MinYear, st.MaxYear)
	}
	return fmt.Sprintf("Found %d records for %s%s. Average price: %s. Price range: %s to %s.",
		st.Count, area, span, FormatINR(st.Mean), FormatINR(st.Min), FormatINR(st.Max)), nil
}

// MinimalSummary is the terminal fallback text.
func MinimalSummary(area string) string {
	return fmt.Sprintf("No data found for %q.", area)
}
