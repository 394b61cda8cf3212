package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/estatelens-cli/internal/insights"
	"github.com/KaramelBytes/estatelens-cli/internal/summary"
)

var (
	cmpAreas      string
	cmpPrompt     string
	cmpWhere      string
	cmpJSON       bool
	cmpOutputPath string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare price trends across up to three areas",
	Example: `  estatelens compare --data prices.csv --areas "Wakad,Akurdi,Aundh"
  estatelens compare --data prices.csv --areas "Baner, Ravet" --prompt "Which grew faster since 2019?"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(cmpAreas) == "" {
			return fmt.Errorf("--areas is required")
		}
		svc, err := openService(cmd.Context())
		if err != nil {
			return cliError(err)
		}
		resp, err := svc.Compare(cmd.Context(), insights.CompareRequest{Areas: cmpAreas, Prompt: cmpPrompt, Where: cmpWhere})
		if err != nil {
			return cliError(err)
		}
		return writeResult(resp, func(w io.Writer) { renderCompare(w, resp) }, outputOptions{
			JSON:       cmpJSON,
			OutputPath: cmpOutputPath,
			Writer:     cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().StringVar(&cmpAreas, "areas", "", "comma-separated areas to compare")
	compareCmd.Flags().StringVar(&cmpPrompt, "prompt", "", "optional comparison question for the narrative")
	compareCmd.Flags().StringVar(&cmpWhere, "where", "", "row filter expression applied to every area")
	compareCmd.Flags().BoolVar(&cmpJSON, "json", false, "print the full response as JSON")
	compareCmd.Flags().StringVarP(&cmpOutputPath, "output", "o", "", "optional path to write the JSON response")
}

func renderCompare(w io.Writer, r *insights.CompareResponse) {
	if len(r.Areas) == 0 {
		fmt.Fprintln(w, r.Summary)
		return
	}
	fmt.Fprintf(w, "=== Comparison: %s ===\n", strings.Join(r.Areas, ", "))
	renderSummary(w, r.Summary, r.SummaryTier)
	if missing := len(r.Requested) - len(r.Areas); missing > 0 {
		fmt.Fprintf(w, "⚠ %d requested area(s) had no matching rows\n", missing)
	}
	if len(r.Chart) > 0 {
		fmt.Fprintln(w, "\nYearly average price:")
		for _, p := range r.Chart {
			fmt.Fprintf(w, "  %-16s %d  %s\n", p.Area, p.Year, summary.FormatINR(p.AvgPrice))
		}
	}
}
