package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/estatelens-cli/internal/config"
	"github.com/KaramelBytes/estatelens-cli/internal/log"
)

var (
	cfgFile string
	debug   bool
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int
	// Dataset and narrative flags (override config if set)
	flagData     string
	flagSheet    string
	flagProvider string
	flagModel    string
	flagOffline  bool

	// Loaded configuration
	cfg *cfgpkg.Global
	// logger writes to stderr; stdout is reserved for command output.
	logger = log.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "estatelens",
	Short: "EstateLens: price trends and comparisons for real-estate areas",
	Long: `EstateLens answers natural-language questions about area price trends in a
tabular real-estate dataset (CSV, TSV, XLSX or a Postgres table): yearly average
price charts, filtered rows, multi-area comparisons, and a short narrative summary
from a hosted or local language model with deterministic fallbacks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.estatelens/config.yaml)")
	pf.BoolVar(&debug, "debug", false, "enable debug logging and detailed errors")
	pf.IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	pf.IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	pf.IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	pf.IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
	pf.StringVar(&flagData, "data", "", "dataset file: .csv, .tsv or .xlsx (overrides dataset_path)")
	pf.StringVar(&flagSheet, "sheet", "", "XLSX sheet name (overrides dataset_sheet)")
	pf.StringVar(&flagProvider, "provider", "", "narrative provider: openrouter|groq|ollama|none")
	pf.StringVar(&flagModel, "model", "", "narrative model (default depends on provider)")
	pf.BoolVar(&flagOffline, "offline", false, "skip the language model; use statistical summaries only")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{}
	}
	cfg = c
	applyFlagOverrides(cfg)

	level := cfg.LogLevel
	if debug {
		level = "debug"
		cfg.DebugErrors = true
	}
	logger = log.New(os.Stderr, log.Config{Level: level, Format: cfg.LogFormat})
}

func applyFlagOverrides(c *cfgpkg.Global) {
	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		c.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		c.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		c.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		c.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
	if f.Changed("data") {
		// an explicit file wins over a configured Postgres source
		c.DatasetPath, c.DatasetDSN = flagData, ""
	}
	if f.Changed("sheet") {
		c.DatasetSheet = flagSheet
	}
	if f.Changed("provider") {
		c.DefaultProvider = flagProvider
	}
	if f.Changed("model") {
		c.DefaultModel = flagModel
	}
	if flagOffline {
		c.DefaultProvider = "none"
	}
}
