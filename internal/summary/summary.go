// Package summary produces the narrative text attached to analyze and
// compare responses. Each request walks an ordered chain of tiers and keeps
// the first one that succeeds: a narrative from the language model, a
// deterministic statistics sentence, and a minimal no-data sentence.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/estatelens-cli/internal/ai"
	"github.com/KaramelBytes/estatelens-cli/internal/log"
	"github.com/KaramelBytes/estatelens-cli/internal/metrics"
)

// Narrator produces free text for a prompt. ai.Narrator implements it.
type Narrator interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

// TierName identifies which tier produced a summary.
type TierName string

const (
	TierNarrative   TierName = "narrative"
	TierStatistical TierName = "statistical"
	TierMinimal     TierName = "minimal"
)

// Result is a generated summary and the tier that produced it.
type Result struct {
	Text string   `json:"text"`
	Tier TierName `json:"tier"`
}

// Options tunes the generator.
type Options struct {
	// NarrativeTimeout bounds each narrative call. Zero means DefaultNarrativeTimeout.
	NarrativeTimeout time.Duration
	// PromptTokenLimit caps prompt size. Zero means DefaultPromptTokenLimit.
	PromptTokenLimit int
}

const (
	DefaultNarrativeTimeout = 20 * time.Second
	DefaultPromptTokenLimit = 6000
)

var (
	errNoNarrator = errors.New("narrative generation disabled")
	errNoRows     = errors.New("no rows")
)

// Generator runs the tier chain. It is safe for concurrent use.
type Generator struct {
	narrator Narrator
	opts     Options
	logger   log.Logger
}

// NewGenerator returns a Generator. A nil narrator skips the narrative tier.
func NewGenerator(narrator Narrator, opts Options, logger log.Logger) *Generator {
	if opts.NarrativeTimeout <= 0 {
		opts.NarrativeTimeout = DefaultNarrativeTimeout
	}
	if opts.PromptTokenLimit <= 0 {
		opts.PromptTokenLimit = DefaultPromptTokenLimit
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Generator{narrator: narrator, opts: opts, logger: logger}
}

type tier struct {
	name TierName
	run  func(ctx context.Context) (string, error)
}

// runChain returns the first successful tier. The last tier of every chain
// is infallible, so the zero Result is never returned in practice.
func (g *Generator) runChain(ctx context.Context, variant string, logger log.Logger, tiers []tier) Result {
	for _, t := range tiers {
		text, err := t.run(ctx)
		if err != nil {
			if !errors.Is(err, errNoNarrator) && !errors.Is(err, errNoRows) {
				logger.Warn("summary tier failed", "variant", variant, "tier", t.name, "err", err)
			}
			continue
		}
		metrics.ObserveTier(variant, string(t.name))
		logger.Debug("summary produced", "variant", variant, "tier", t.name)
		return Result{Text: text, Tier: t.name}
	}
	return Result{}
}

// narrate calls the narrator under the configured timeout. A narrator that
// ignores its context is abandoned when the timeout fires.
func (g *Generator) narrate(ctx context.Context, prompt string, p params) (string, error) {
	if g.narrator == nil {
		return "", errNoNarrator
	}
	ctx, cancel := context.WithTimeout(ctx, g.opts.NarrativeTimeout)
	defer cancel()
	prompt = truncatePrompt(prompt, g.opts.PromptTokenLimit)

	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)
	start := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: fmt.Errorf("narrator panic: %v", r)}
			}
		}()
		text, err := g.narrator.Complete(ctx, prompt, p.maxTokens, p.temperature)
		done <- reply{text, err}
	}()

	var r reply
	select {
	case r = <-done:
	case <-ctx.Done():
		r.err = ctx.Err()
	}
	if r.err == nil && strings.TrimSpace(r.text) == "" {
		r.err = ai.ErrEmptyCompletion
	}
	metrics.ObserveNarrative(time.Since(start), ai.Kind(r.err))
	if r.err != nil {
		return "", r.err
	}
	return strings.TrimSpace(r.text), nil
}
