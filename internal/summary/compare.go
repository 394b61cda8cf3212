package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/KaramelBytes/estatelens-cli/internal/analysis"
)

// AreaRows pairs an area label with its filtered rows.
type AreaRows struct {
	Area string
	Rows []analysis.FilteredRow
}

// NoComparisonData is the minimal text for an empty comparison.
const NoComparisonData = "No area data provided for comparison."

// CompareRequest is the input of Compare. Areas keep their processing order.
type CompareRequest struct {
	Areas     []AreaRows
	Prompt    string
	RequestID string
}

// Compare produces the summary for a multi-area comparison.
func (g *Generator) Compare(ctx context.Context, req CompareRequest) Result {
	labels := make([]string, 0, len(req.Areas))
	for _, a := range req.Areas {
		labels = append(labels, a.Area)
	}
	logger := g.logger.With("request_id", req.RequestID, "areas", strings.Join(labels, ","))
	return g.runChain(ctx, "compare", logger, []tier{
		{name: TierNarrative, run: func(ctx context.Context) (string, error) {
			if len(req.Areas) == 0 {
				return "", errNoRows
			}
			return g.narrate(ctx, comparePrompt(req.Prompt, req.Areas), compareParams)
		}},
		{name: TierStatistical, run: func(context.Context) (string, error) {
			return ComparisonStatistics(req.Areas)
		}},
		{name: TierMinimal, run: func(context.Context) (string, error) {
			return NoComparisonData, nil
		}},
	})
}

// ComparisonStatistics renders one line per area joined by " | ". The latest
// average comes from the three most recent years with data.
func ComparisonStatistics(areas []AreaRows) (string, error) {
	if len(areas) == 0 {
		return "", errNoRows
	}
	lines := make([]string, 0, len(areas))
	for _, a := range areas {
		condensed := analysis.Condense(a.Rows, 3)
		if len(condensed) == 0 {
			lines = append(lines, fmt.Sprintf("%s: %d records.", a.Area, len(a.Rows)))
			continue
		}
		latest := condensed[len(condensed)-1].AvgPrice
		lines = append(lines, fmt.Sprintf("%s: %d records. Latest avg: %s", a.Area, len(a.Rows), FormatINR(latest)))
	}
	return strings.Join(lines, " | "), nil
}
