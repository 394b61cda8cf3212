package insights

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/estatelens-cli/internal/analysis"
	"github.com/KaramelBytes/estatelens-cli/internal/query"
	"github.com/KaramelBytes/estatelens-cli/internal/summary"
)

// AnalyzeRequest is the input of Analyze. Query is preferred over Area.
type AnalyzeRequest struct {
	Query string `json:"query"`
	Area  string `json:"area"`
	// Where is an optional row predicate, e.g. `year == 2022`.
	Where string `json:"where,omitempty"`
}

// AnalyzeResponse is the result of Analyze.
type AnalyzeResponse struct {
	Summary          string           `json:"summary"`
	SummaryTier      summary.TierName `json:"summaryTier"`
	Chart            ChartSeries      `json:"chart"`
	Table            []map[string]any `json:"table"`
	UsedPriceColumns []string         `json:"usedPriceColumns"`
	FoundColumns     []string         `json:"foundColumns"`
	QueryType        string           `json:"queryType"`
	QueryKind        string           `json:"queryKind"`
	Area             string           `json:"area,omitempty"`
	Areas            []string         `json:"areas,omitempty"`
	RecordCount      int              `json:"recordCount"`
	RequestID        string           `json:"requestId"`
	Lookback         *int             `json:"lookbackYears,omitempty"`
	Skipped          int              `json:"skippedRows,omitempty"`
	Guidance         bool             `json:"guidance,omitempty"`
}

// Analyze answers a free-text query or an explicit area.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (resp *AnalyzeResponse, err error) {
	reqID := uuid.NewString()
	logger := s.logger.With("request_id", reqID, "operation", "analyze")
	start, outcome := time.Now(), outcomeOK
	defer s.finish("analyze", logger, start, &outcome, &err)

	text, area := strings.TrimSpace(req.Query), strings.TrimSpace(req.Area)
	if text == "" && area == "" {
		return nil, InputErr("query or area is required", nil)
	}
	where, err := analysis.CompilePredicate(req.Where)
	if err != nil {
		return nil, InputErr("invalid where expression", map[string]any{"where": req.Where, "error": err})
	}

	var q query.Query
	if text != "" {
		q = query.Interpret(text)
	} else {
		q = query.FromArea(area)
	}
	logger.Debug("query interpreted", "kind", q.Kind, "areas", q.Areas, "lookback", q.LookbackYears)

	if q.Empty() {
		outcome = outcomeGuidance
		return &AnalyzeResponse{
			Summary:          query.GuidanceMessage,
			SummaryTier:      summary.TierMinimal,
			Table:            []map[string]any{},
			UsedPriceColumns: nonNil(s.cols.Price),
			FoundColumns:     nonNil(s.ds.Columns),
			QueryType:        queryType(q),
			QueryKind:        q.Kind.String(),
			RequestID:        reqID,
			Guidance:         true,
		}, nil
	}

	if q.Kind == query.Comparison {
		cmp := s.compare(ctx, reqID, q.Areas, text, where, logger)
		return &AnalyzeResponse{
			Summary:          cmp.Summary,
			SummaryTier:      cmp.SummaryTier,
			Chart:            ChartSeries{Tagged: cmp.Chart},
			Table:            cmp.Table,
			UsedPriceColumns: cmp.UsedPriceColumns,
			FoundColumns:     nonNil(s.ds.Columns),
			QueryType:        queryType(q),
			QueryKind:        q.Kind.String(),
			Areas:            cmp.Areas,
			RecordCount:      cmp.recordCount,
			RequestID:        reqID,
			Skipped:          cmp.skipped,
		}, nil
	}

	target := q.Area()
	opts := analysis.FilterOptions{MatchMode: s.opts.MatchMode, Where: where}
	var lookback *int
	if q.Kind == query.TimeWindowed && q.HasLookback {
		opts.LookbackYears, opts.HasLookback = q.LookbackYears, true
		lookback = &q.LookbackYears
	}
	res := analysis.Filter(s.ds, s.cols, target, opts)
	if res.Skipped > 0 {
		logger.Warn("rows skipped by where expression", "area", target, "skipped", res.Skipped)
	}

	flow := summary.FlowSimple
	if text != "" {
		flow = summary.FlowFor(text)
	}
	sum := s.gen.Summarize(ctx, summary.AreaRequest{
		Area:      target,
		Question:  text,
		Rows:      res.Rows,
		Flow:      flow,
		RequestID: reqID,
	})
	logger.Info("analyze complete", "area", target, "rows", len(res.Rows), "tier", sum.Tier,
		"duration", time.Since(start))

	return &AnalyzeResponse{
		Summary:          sum.Text,
		SummaryTier:      sum.Tier,
		Chart:            ChartSeries{Points: nonNil(res.Chart)},
		Table:            res.Records(s.opts.TableLimit),
		UsedPriceColumns: nonNil(res.PriceColumns),
		FoundColumns:     nonNil(s.ds.Columns),
		QueryType:        queryType(q),
		QueryKind:        q.Kind.String(),
		Area:             target,
		RecordCount:      len(res.Rows),
		RequestID:        reqID,
		Lookback:         lookback,
		Skipped:          res.Skipped,
	}, nil
}

// queryType is "comparison" for comparison queries and "analysis" otherwise.
// QueryKind carries the finer single/time_windowed distinction.
func queryType(q query.Query) string {
	if q.Kind == query.Comparison {
		return "comparison"
	}
	return "analysis"
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
