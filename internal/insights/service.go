// Package insights wires query interpretation, filtering, aggregation and
// summaries into the analyze and compare operations.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/KaramelBytes/estatelens-cli/internal/analysis"
	"github.com/KaramelBytes/estatelens-cli/internal/dataset"
	"github.com/KaramelBytes/estatelens-cli/internal/log"
	"github.com/KaramelBytes/estatelens-cli/internal/metrics"
	"github.com/KaramelBytes/estatelens-cli/internal/summary"
)

// Limits applied to table output and comparisons.
const (
	MinTableLimit      = 20
	MaxTableLimit      = 200
	DefaultCompareMax  = 3
	DefaultWorkers     = 3
	PerAreaTableLimit  = 10
	CompareTableLimit  = 30
	outcomeOK          = "ok"
	outcomeGuidance    = "guidance"
	outcomeInputError  = "input_error"
	outcomeServerError = "error"
)

// Options tunes a Service.
type Options struct {
	// TableLimit caps single-area table rows; clamped to [MinTableLimit, MaxTableLimit].
	TableLimit      int
	CompareMaxAreas int
	CompareWorkers  int
	MatchMode       analysis.MatchMode
	Summary         summary.Options
}

func (o Options) withDefaults() Options {
	switch {
	case o.TableLimit < MinTableLimit:
		o.TableLimit = MinTableLimit
	case o.TableLimit > MaxTableLimit:
		o.TableLimit = MaxTableLimit
	}
	if o.CompareMaxAreas <= 0 {
		o.CompareMaxAreas = DefaultCompareMax
	}
	if o.CompareWorkers <= 0 {
		o.CompareWorkers = DefaultWorkers
	}
	if o.MatchMode == "" {
		o.MatchMode = analysis.MatchSubstring
	}
	return o
}

// Service answers analyze and compare requests against one dataset snapshot.
// Columns are resolved once at construction; a reloaded dataset needs a new Service.
type Service struct {
	ds     *dataset.Dataset
	cols   analysis.Columns
	gen    *summary.Generator
	opts   Options
	logger log.Logger
}

// NewService resolves columns for ds and returns a ready Service. A nil
// narrator disables the narrative summary tier.
func NewService(ds *dataset.Dataset, narrator summary.Narrator, opts Options, logger log.Logger) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	if ds == nil {
		ds = dataset.FromRows("empty", nil, nil)
	}
	opts = opts.withDefaults()
	cols := analysis.ResolveColumns(ds)
	logger.Info("dataset ready", "dataset", ds.Name, "rows", ds.Len(),
		"location_columns", cols.Location, "price_columns", cols.Price, "year_column", cols.Year)
	if !cols.HasPrice() {
		logger.Warn("no price columns resolved; charts will be empty", "dataset", ds.Name)
	}
	if len(cols.Location) == 0 {
		logger.Warn("no location columns resolved; no area will match", "dataset", ds.Name)
	}
	metrics.SetDatasetRows(ds.Len())
	return &Service{
		ds:     ds,
		cols:   cols,
		gen:    summary.NewGenerator(narrator, opts.Summary, logger),
		opts:   opts,
		logger: logger,
	}
}

// Open loads src and builds a Service over it. Load failures are DatasetErr.
func Open(ctx context.Context, src dataset.Source, narrator summary.Narrator, opts Options, logger log.Logger) (*Service, error) {
	ds, err := dataset.Load(ctx, src)
	if err != nil {
		return nil, DatasetErr("failed to load dataset", map[string]any{"source": src.String(), "error": err})
	}
	return NewService(ds, narrator, opts, logger), nil
}

// finish converts a panic into an InternalErr and records the outcome.
func (s *Service) finish(op string, logger log.Logger, start time.Time, outcome *string, err *error) {
	if r := recover(); r != nil {
		logger.Error("pipeline panic", "panic", r, "stack", string(debug.Stack()))
		*err = InternalErr("unexpected failure while processing request", map[string]any{"panic": fmt.Sprint(r)})
	}
	if *err != nil {
		if ErrIs(*err, CodeInput) {
			*outcome = outcomeInputError
		} else {
			*outcome = outcomeServerError
		}
	}
	metrics.ObserveRequest(op, *outcome)
	logger.Debug("request finished", "outcome", *outcome, "duration", time.Since(start))
}

// ChartSeries marshals as a JSON array of plain points or, for comparisons,
// area-tagged points.
type ChartSeries struct {
	Points []analysis.ChartPoint
	Tagged []analysis.AreaPoint
}

// Len returns the number of points.
func (c ChartSeries) Len() int { return len(c.Points) + len(c.Tagged) }

func (c ChartSeries) MarshalJSON() ([]byte, error) {
	switch {
	case c.Tagged != nil:
		return json.Marshal(c.Tagged)
	case c.Points != nil:
		return json.Marshal(c.Points)
	}
	return []byte("[]"), nil
}

func (c *ChartSeries) UnmarshalJSON(b []byte) error {
	var pts []analysis.AreaPoint
	if err := json.Unmarshal(b, &pts); err != nil {
		return err
	}
	*c = ChartSeries{}
	for _, p := range pts {
		if p.Area != "" {
			c.Tagged = pts
			return nil
		}
	}
	c.Points = make([]analysis.ChartPoint, 0, len(pts))
	for _, p := range pts {
		c.Points = append(c.Points, analysis.ChartPoint{Year: p.Year, AvgPrice: p.AvgPrice})
	}
	return nil
}
