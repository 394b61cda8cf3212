package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/estatelens-cli/internal/insights"
	"github.com/KaramelBytes/estatelens-cli/internal/summary"
)

var (
	anaArea       string
	anaWhere      string
	anaJSON       bool
	anaOutputPath string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [query...]",
	Short: "Analyze price trends for an area from a free-text query",
	Example: `  estatelens analyze --data prices.xlsx "Give me analysis of Wakad"
  estatelens analyze --data prices.csv "Show price growth for Akurdi over the last 3 years"
  estatelens analyze --data prices.csv --area Wakad --where 'year == 2022' --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := strings.TrimSpace(strings.Join(args, " "))
		if q == "" && strings.TrimSpace(anaArea) == "" {
			return fmt.Errorf("provide a query or --area")
		}
		svc, err := openService(cmd.Context())
		if err != nil {
			return cliError(err)
		}
		resp, err := svc.Analyze(cmd.Context(), insights.AnalyzeRequest{Query: q, Area: anaArea, Where: anaWhere})
		if err != nil {
			return cliError(err)
		}
		return writeResult(resp, func(w io.Writer) { renderAnalyze(w, resp) }, outputOptions{
			JSON:       anaJSON,
			OutputPath: anaOutputPath,
			Writer:     cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&anaArea, "area", "", "explicit area (used verbatim; comma-separated list compares)")
	analyzeCmd.Flags().StringVar(&anaWhere, "where", "", `row filter expression, e.g. 'year == 2022 and location matches "^Wakad"'`)
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "print the full response as JSON")
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the JSON response")
}

func renderAnalyze(w io.Writer, r *insights.AnalyzeResponse) {
	if r.Guidance {
		fmt.Fprintln(w, r.Summary)
		return
	}
	if r.QueryType == "comparison" {
		fmt.Fprintf(w, "=== Comparison: %s ===\n", strings.Join(r.Areas, ", "))
	} else {
		fmt.Fprintf(w, "=== %s (%d records) ===\n", r.Area, r.RecordCount)
	}
	renderSummary(w, r.Summary, r.SummaryTier)
	if len(r.Chart.Points) > 0 {
		fmt.Fprintln(w, "\nYearly average price:")
		for _, p := range r.Chart.Points {
			fmt.Fprintf(w, "  %d  %s\n", p.Year, summary.FormatINR(p.AvgPrice))
		}
	}
	if len(r.Chart.Tagged) > 0 {
		fmt.Fprintln(w, "\nYearly average price:")
		for _, p := range r.Chart.Tagged {
			fmt.Fprintf(w, "  %-16s %d  %s\n", p.Area, p.Year, summary.FormatINR(p.AvgPrice))
		}
	}
	if len(r.UsedPriceColumns) > 0 {
		fmt.Fprintf(w, "\nPrice columns: %s\n", strings.Join(r.UsedPriceColumns, ", "))
	}
	if r.Skipped > 0 {
		fmt.Fprintf(w, "⚠ %d rows skipped: --where could not be evaluated on them\n", r.Skipped)
	}
}

func renderSummary(w io.Writer, text string, tier summary.TierName) {
	fmt.Fprintln(w, text)
	if tier != summary.TierNarrative {
		fmt.Fprintf(w, "(%s summary)\n", tier)
	}
}

// cliError hides internal error detail unless debug output is enabled.
func cliError(err error) error {
	var e insights.Err
	if !errors.As(err, &e) || e.Code != insights.CodeInternal {
		return err
	}
	if cfg != nil && cfg.DebugErrors {
		return err
	}
	return errors.New(e.Title + " (re-run with --debug for details)")
}
