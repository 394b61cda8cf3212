package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/KaramelBytes/estatelens-cli/internal/ai"
	"github.com/KaramelBytes/estatelens-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/estatelens-cli/internal/config"
	"github.com/KaramelBytes/estatelens-cli/internal/dataset"
	"github.com/KaramelBytes/estatelens-cli/internal/insights"
	"github.com/KaramelBytes/estatelens-cli/internal/summary"
	"github.com/KaramelBytes/estatelens-cli/internal/utils"
)

// narrativeReserve is the completion budget subtracted from the model's
// context window when sizing prompts; it covers the largest flow.
const narrativeReserve = 400

// buildRuntime resolves the provider and returns its runtime. Provider "none"
// returns a nil runtime and no error.
func buildRuntime(cfg *cfgpkg.Global) (ai.Runtime, string, error) {
	httpTimeout := 60 * time.Second
	retryMax := 3
	baseDelay := 500 * time.Millisecond
	maxDelay := 4 * time.Second
	if cfg.HTTPTimeoutSec > 0 {
		httpTimeout = time.Duration(cfg.HTTPTimeoutSec) * time.Second
	}
	if cfg.RetryMaxAttempts > 0 {
		retryMax = cfg.RetryMaxAttempts
	}
	if cfg.RetryBaseDelayMs > 0 {
		baseDelay = time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond
	}
	if cfg.RetryMaxDelayMs > 0 {
		maxDelay = time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond
	}

	providerName := normalizeProvider(cfg.DefaultProvider)
	if providerName == ai.ProviderNone {
		return nil, providerName, nil
	}

	rc := ai.RuntimeConfig{
		HTTPTimeout: httpTimeout,
		RetryMax:    retryMax,
		BaseDelay:   baseDelay,
		MaxDelay:    maxDelay,
		APIKey:      cfg.APIKey,
	}
	switch providerName {
	case ai.ProviderOpenRouter:
		if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
			rc.APIKey = v
		}
	case ai.ProviderGroq:
		if v := os.Getenv("GROQ_API_KEY"); v != "" {
			rc.APIKey = v
		}
	case ai.ProviderOllama:
		rc.Host = strings.TrimSpace(cfg.OllamaHost)
		if rc.Host == "" {
			rc.Host = ai.DefaultOllamaHost
		}
		if cfg.OllamaTimeoutSec > 0 {
			rc.HTTPTimeout = time.Duration(cfg.OllamaTimeoutSec) * time.Second
		}
	}

	client, ok := ai.GetRuntime(providerName, rc)
	if !ok {
		return nil, providerName, fmt.Errorf("provider not supported: %s (use %s or none)", providerName, strings.Join(ai.Providers(), ", "))
	}
	return client, providerName, nil
}

func normalizeProvider(name string) string {
	p := strings.ToLower(strings.TrimSpace(name))
	switch p {
	case "":
		return ai.ProviderOpenRouter
	case "local":
		return ai.ProviderOllama
	case "off", "offline", "disabled":
		return ai.ProviderNone
	}
	return p
}

// selectModel prefers the configured model, then the provider default.
func selectModel(cfg *cfgpkg.Global, provider string) string {
	if m := strings.TrimSpace(cfg.DefaultModel); m != "" {
		return m
	}
	return ai.DefaultModel(provider)
}

// buildNarrator returns the narrator for the configured provider, or nil when
// narration is disabled. Hosted providers without a key are disabled with a
// warning rather than failing every request.
func buildNarrator(cfg *cfgpkg.Global) (summary.Narrator, string, error) {
	rt, provider, err := buildRuntime(cfg)
	if err != nil {
		return nil, "", err
	}
	if rt == nil {
		logger.Info("narrative summaries disabled", "provider", provider)
		return nil, "", nil
	}
	if provider != ai.ProviderOllama && cfg.APIKey == "" && os.Getenv(keyEnvFor(provider)) == "" {
		logger.Warn("no API key configured; narrative summaries disabled", "provider", provider, "env", keyEnvFor(provider))
		return nil, "", nil
	}
	model := selectModel(cfg, provider)
	logger.Debug("narrator ready", "provider", provider, "model", model)
	return ai.NewNarrator(rt, model), model, nil
}

func keyEnvFor(provider string) string {
	if provider == ai.ProviderGroq {
		return "GROQ_API_KEY"
	}
	return "OPENROUTER_API_KEY"
}

// datasetSource maps config to a dataset source. A DSN wins over a path.
func datasetSource(cfg *cfgpkg.Global) (dataset.Source, error) {
	src := dataset.Source{Path: cfg.DatasetPath, Sheet: cfg.DatasetSheet}
	if cfg.DatasetDSN != "" {
		src = dataset.Source{DSN: cfg.DatasetDSN, Table: cfg.DatasetTable}
	}
	if src.Path == "" && src.DSN == "" {
		return src, fmt.Errorf("no dataset configured: pass --data <file> or set dataset_path / dataset_dsn")
	}
	return src, nil
}

// serviceOptions maps config to insights options.
func serviceOptions(cfg *cfgpkg.Global, model string) (insights.Options, error) {
	mode, err := analysis.ParseMatchMode(cfg.MatchMode)
	if err != nil {
		return insights.Options{}, err
	}
	limit := cfg.PromptTokenLimit
	if model != "" {
		limit = ai.PromptBudget(model, narrativeReserve, limit)
	}
	return insights.Options{
		TableLimit:      cfg.TableLimit,
		CompareMaxAreas: cfg.CompareMaxAreas,
		CompareWorkers:  cfg.CompareWorkers,
		MatchMode:       mode,
		Summary: summary.Options{
			NarrativeTimeout: time.Duration(cfg.NarrativeTimeoutSec) * time.Second,
			PromptTokenLimit: limit,
		},
	}, nil
}

// openService loads the dataset and wires the narrator. Dataset failures are
// fatal for the calling command.
func openService(ctx context.Context) (*insights.Service, error) {
	if cfg == nil {
		cfg = &cfgpkg.Global{}
	}
	src, err := datasetSource(cfg)
	if err != nil {
		return nil, err
	}
	narrator, model, err := buildNarrator(cfg)
	if err != nil {
		return nil, err
	}
	opts, err := serviceOptions(cfg, model)
	if err != nil {
		return nil, err
	}
	return insights.Open(ctx, src, narrator, opts, logger)
}

type outputOptions struct {
	JSON       bool
	OutputPath string
	Quiet      bool
	Writer     io.Writer
}

// writeResult prints a response as JSON or via render, and optionally saves
// the JSON form to OutputPath.
func writeResult(v any, render func(io.Writer), opts outputOptions) error {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	if opts.JSON {
		fmt.Fprintln(w, string(b))
	} else {
		render(w)
	}
	if opts.OutputPath == "" {
		return nil
	}
	if err := utils.SafeWriteFile(opts.OutputPath, append(b, '\n')); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if !opts.Quiet {
		fmt.Fprintf(w, "\n💾 Saved output to %s\n", opts.OutputPath)
	}
	return nil
}
