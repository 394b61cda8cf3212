package insights

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/KaramelBytes/estatelens-cli/internal/analysis"
	"github.com/KaramelBytes/estatelens-cli/internal/log"
	"github.com/KaramelBytes/estatelens-cli/internal/query"
	"github.com/KaramelBytes/estatelens-cli/internal/summary"
)

// CompareRequest is the input of Compare. Areas is a comma-separated list.
type CompareRequest struct {
	Areas  string `json:"areas"`
	Prompt string `json:"prompt,omitempty"`
	Where  string `json:"where,omitempty"`
}

// CompareResponse is the result of Compare. Areas lists only the processed
// areas that had matching rows, in request order. Data holds up to
// Options.TableLimit rows per area; Table takes PerAreaTableLimit rows from
// each area up to CompareTableLimit.
type CompareResponse struct {
	Areas            []string                    `json:"areas"`
	Data             map[string][]map[string]any `json:"data"`
	Chart            []analysis.AreaPoint        `json:"chart"`
	Table            []map[string]any            `json:"table"`
	UsedPriceColumns []string                    `json:"usedPriceColumns"`
	Summary          string                      `json:"summary"`
	SummaryTier      summary.TierName            `json:"summaryTier"`
	RequestID        string                      `json:"requestId"`
	Requested        []string                    `json:"requestedAreas"`

	recordCount int
	skipped     int
}

// Compare filters and summarizes up to CompareMaxAreas areas side by side.
func (s *Service) Compare(ctx context.Context, req CompareRequest) (resp *CompareResponse, err error) {
	reqID := uuid.NewString()
	logger := s.logger.With("request_id", reqID, "operation", "compare")
	start, outcome := time.Now(), outcomeOK
	defer s.finish("compare", logger, start, &outcome, &err)

	areas := query.SplitAreas(req.Areas)
	if len(areas) == 0 {
		return nil, InputErr("areas is required", map[string]any{"areas": req.Areas})
	}
	where, err := analysis.CompilePredicate(req.Where)
	if err != nil {
		return nil, InputErr("invalid where expression", map[string]any{"where": req.Where, "error": err})
	}
	resp = s.compare(ctx, reqID, areas, req.Prompt, where, logger)
	logger.Info("compare complete", "areas", resp.Areas, "tier", resp.SummaryTier, "duration", time.Since(start))
	return resp, nil
}

// NoDataMessage is the summary of a comparison where no area matched. It
// names every requested area, including those dropped by truncation.
func NoDataMessage(areas []string) string {
	return "No data found for areas: " + strings.Join(areas, ", ")
}

// compare runs the comparison pipeline shared by Compare and comparison-kind
// Analyze queries.
func (s *Service) compare(ctx context.Context, reqID string, areas []string, prompt string, where *analysis.Predicate, logger log.Logger) *CompareResponse {
	areas = dedupeAreas(areas)
	requested := areas
	if len(areas) > s.opts.CompareMaxAreas {
		logger.Info("comparison truncated", "requested", len(areas), "max", s.opts.CompareMaxAreas)
		areas = areas[:s.opts.CompareMaxAreas]
	}

	results := s.filterAreas(areas, where)

	resp := &CompareResponse{
		Areas:            []string{},
		Data:             make(map[string][]map[string]any, len(results)),
		Chart:            []analysis.AreaPoint{},
		Table:            []map[string]any{},
		UsedPriceColumns: nonNil(s.cols.Price),
		RequestID:        reqID,
		Requested:        areas,
	}
	var present []summary.AreaRows
	for _, res := range results {
		resp.skipped += res.Skipped
		if len(res.Rows) == 0 {
			logger.Debug("area has no rows", "area", res.Area)
			continue
		}
		records := res.Records(PerAreaTableLimit)
		resp.Areas = append(resp.Areas, res.Area)
		resp.Data[res.Area] = res.Records(s.opts.TableLimit)
		resp.Chart = append(resp.Chart, analysis.Tag(res.Area, res.Chart)...)
		for _, r := range records {
			if len(resp.Table) == CompareTableLimit {
				break
			}
			resp.Table = append(resp.Table, r)
		}
		resp.recordCount += len(res.Rows)
		present = append(present, summary.AreaRows{Area: res.Area, Rows: res.Rows})
	}
	if resp.skipped > 0 {
		logger.Warn("rows skipped by where expression", "skipped", resp.skipped)
	}

	if len(present) == 0 {
		resp.Summary, resp.SummaryTier = NoDataMessage(requested), summary.TierMinimal
		return resp
	}
	sum := s.gen.Compare(ctx, summary.CompareRequest{Areas: present, Prompt: prompt, RequestID: reqID})
	resp.Summary, resp.SummaryTier = sum.Text, sum.Tier
	return resp
}

// dedupeAreas drops repeated areas, compared case-insensitively, keeping the
// first spelling and order.
func dedupeAreas(areas []string) []string {
	seen := make(map[string]bool, len(areas))
	out := make([]string, 0, len(areas))
	for _, a := range areas {
		key := strings.ToLower(a)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

// filterAreas filters every area on a bounded pool and returns results in
// the order of areas.
func (s *Service) filterAreas(areas []string, where *analysis.Predicate) []analysis.FilterResult {
	type indexed struct {
		i   int
		res analysis.FilterResult
	}
	p := pool.NewWithResults[indexed]().WithMaxGoroutines(s.opts.CompareWorkers)
	for i, area := range areas {
		i, area := i, area
		p.Go(func() indexed {
			res := analysis.Filter(s.ds, s.cols, area, analysis.FilterOptions{
				MatchMode: s.opts.MatchMode,
				Where:     where,
			})
			return indexed{i: i, res: res}
		})
	}
	out := make([]analysis.FilterResult, len(areas))
	for _, r := range p.Wait() {
		out[r.i] = r.res
	}
	return out
}
