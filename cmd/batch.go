package cmd

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/estatelens-cli/internal/insights"
	"github.com/KaramelBytes/estatelens-cli/internal/utils"
)

var (
	batchOutputPath string
	batchQuiet      bool
)

// batchLine is one JSON Lines record of batch output.
type batchLine struct {
	Line     int                       `json:"line"`
	Query    string                    `json:"query"`
	Response *insights.AnalyzeResponse `json:"response,omitempty"`
	Error    string                    `json:"error,omitempty"`
}

var batchCmd = &cobra.Command{
	Use:   "batch <queries-file>",
	Short: "Run one analyze query per line and emit JSON Lines",
	Long: `Reads queries from a file (one per line; blank lines and lines starting with
'#' are skipped) and writes one JSON object per query. A failing query is
reported in its record and does not stop the batch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queries, err := readQueries(args[0])
		if err != nil {
			return err
		}
		if len(queries) == 0 {
			return fmt.Errorf("no queries found in %s", args[0])
		}
		svc, err := openService(cmd.Context())
		if err != nil {
			return cliError(err)
		}

		var buf bytes.Buffer
		failed := runBatch(cmd.Context(), svc, queries, &buf, cmd.ErrOrStderr())
		if batchOutputPath != "" {
			if err := utils.SafeWriteFile(batchOutputPath, buf.Bytes()); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			if !batchQuiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote %d results to %s\n", len(queries), batchOutputPath)
			}
		} else if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
			return err
		}
		if failed > 0 && !batchQuiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %d of %d queries failed\n", failed, len(queries))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringVarP(&batchOutputPath, "output", "o", "", "write JSON Lines to this file instead of stdout")
	batchCmd.Flags().BoolVar(&batchQuiet, "quiet", false, "suppress progress output")
}

type batchQuery struct {
	line int
	text string
}

func readQueries(path string) ([]batchQuery, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open queries: %w", err)
	}
	defer f.Close()
	var out []batchQuery
	sc := bufio.NewScanner(f)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, batchQuery{line: n, text: line})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}
	return out, nil
}

// runBatch writes one record per query to out and returns the failure count.
func runBatch(ctx context.Context, svc *insights.Service, queries []batchQuery, out, progress io.Writer) int {
	failed := 0
	total := len(queries)
	for i, q := range queries {
		if !batchQuiet {
			fmt.Fprintf(progress, "[%d/%d] Processing %q...\n", i+1, total, q.text)
		}
		rec := batchLine{Line: q.line, Query: q.text}
		resp, err := svc.Analyze(ctx, insights.AnalyzeRequest{Query: q.text})
		if err != nil {
			failed++
			rec.Error = cliError(err).Error()
		} else {
			rec.Response = resp
		}
		s, err := utils.CompactJSON(rec)
		if err != nil {
			failed++
			s = fmt.Sprintf(`{"line":%d,"error":%q}`, q.line, err.Error())
		}
		fmt.Fprintln(out, s)
	}
	return failed
}
