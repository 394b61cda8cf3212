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
	inspectTop  int
	inspectJSON bool
	inspectOut  string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Describe the dataset: columns, resolved roles and top areas",
	Long: `Loads the dataset and reports which columns were resolved as location, price
and year, the overall price range, and the locations with the most rows.
Use it to check a new file before asking questions about it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return cliError(err)
		}
		p := svc.Profile(inspectTop)
		return writeResult(p, func(w io.Writer) { renderProfile(w, p) }, outputOptions{
			JSON:       inspectJSON,
			OutputPath: inspectOut,
			Writer:     cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().IntVar(&inspectTop, "top", 10, "number of areas to list")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print the profile as JSON")
	inspectCmd.Flags().StringVarP(&inspectOut, "output", "o", "", "save the JSON profile to a file")
}

func renderProfile(w io.Writer, p insights.Profile) {
	fmt.Fprintf(w, "=== %s (%d rows, %d columns) ===\n", p.Name, p.Rows, len(p.Columns))
	fmt.Fprintf(w, "Columns:  %s\n", strings.Join(p.Columns, ", "))
	fmt.Fprintf(w, "Location: %s\n", orNone(strings.Join(p.Resolved.Location, ", ")))
	fmt.Fprintf(w, "Price:    %s\n", orNone(strings.Join(p.Resolved.Price, ", ")))
	fmt.Fprintf(w, "Year:     %s\n", orNone(p.Resolved.Year))
	if p.Stats.HasYear {
		fmt.Fprintf(w, "Years:    %d to %d\n", p.Stats.MinYear, p.Stats.MaxYear)
	}
	if p.Stats.HasPrices() {
		fmt.Fprintf(w, "Prices:   %d priced rows, %s to %s (median %s)\n", p.Stats.Priced,
			summary.FormatINR(p.Stats.Min), summary.FormatINR(p.Stats.Max), summary.FormatINR(p.Stats.Median))
	}
	if len(p.TopAreas) == 0 {
		return
	}
	fmt.Fprintf(w, "\nTop areas (%d distinct):\n", p.Areas)
	for _, a := range p.TopAreas {
		fmt.Fprintf(w, "  %-24s %d\n", a.Area, a.Rows)
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
