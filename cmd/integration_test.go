package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const sampleCSV = `location,year,price
Wakad,2021,"50,000"
Wakad,2021,60000
Wakad,2022,70000
Akurdi,2022,40000
`

// resetFlags restores every flag to its default so bound variables and
// Changed state do not leak between invocations.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		_ = fl.Value.Set(fl.DefValue)
		fl.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

// isolate points HOME at a temp dir and writes the sample dataset.
func isolate(t *testing.T) (home, data string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("ESTATELENS_API_KEY", "")
	data = filepath.Join(home, "prices.csv")
	if err := os.WriteFile(data, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}
	return home, data
}

func TestCLI_AnalyzeJSON(t *testing.T) {
	_, data := isolate(t)
	out := mustRun(t, "analyze", "--data", data, "--offline", "--json", "Give me analysis of Wakad")

	var resp struct {
		Area        string `json:"area"`
		QueryType   string `json:"queryType"`
		SummaryTier string `json:"summaryTier"`
		Chart       []struct {
			Year     int     `json:"year"`
			AvgPrice float64 `json:"avgPrice"`
		} `json:"chart"`
		RecordCount int `json:"recordCount"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if resp.Area != "Wakad" || resp.QueryType != "analysis" || resp.RecordCount != 3 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(resp.Chart) != 2 || resp.Chart[0].AvgPrice != 55000 || resp.Chart[1].AvgPrice != 70000 {
		t.Fatalf("unexpected chart: %+v", resp.Chart)
	}
	if resp.SummaryTier != "statistical" {
		t.Fatalf("expected statistical tier offline, got %q", resp.SummaryTier)
	}
}

func TestCLI_AnalyzeTextAndOutputFile(t *testing.T) {
	home, data := isolate(t)
	outPath := filepath.Join(home, "out", "wakad.json")
	out := mustRun(t, "analyze", "--data", data, "--offline", "--area", "Wakad", "-o", outPath)
	if !strings.Contains(out, "=== Wakad (3 records) ===") || !strings.Contains(out, "2022  ₹70,000.00") {
		t.Fatalf("unexpected text output:\n%s", out)
	}
	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read saved output: %v", err)
	}
	if !strings.Contains(string(b), `"requestId"`) {
		t.Fatalf("saved output is not the JSON response:\n%s", b)
	}
}

func TestCLI_AnalyzeGuidance(t *testing.T) {
	_, data := isolate(t)
	out := mustRun(t, "analyze", "--data", data, "--offline", "show me trends")
	if !strings.Contains(out, "Please specify an area name") {
		t.Fatalf("expected guidance, got:\n%s", out)
	}
}

func TestCLI_AnalyzeRequiresDataset(t *testing.T) {
	isolate(t)
	_, err := runCmd(t, "analyze", "--offline", "Wakad")
	if err == nil || !strings.Contains(err.Error(), "no dataset configured") {
		t.Fatalf("expected missing dataset error, got %v", err)
	}
	_, err = runCmd(t, "analyze", "--offline", "--data", "/nonexistent/prices.csv", "Wakad")
	if err == nil || !strings.Contains(err.Error(), "DatasetErr") {
		t.Fatalf("expected dataset load error, got %v", err)
	}
}

func TestCLI_CompareText(t *testing.T) {
	_, data := isolate(t)
	out := mustRun(t, "compare", "--data", data, "--offline", "--areas", "Wakad,Akurdi,Baner")
	if !strings.Contains(out, "=== Comparison: Wakad, Akurdi ===") {
		t.Fatalf("unexpected compare output:\n%s", out)
	}
	if !strings.Contains(out, "1 requested area(s) had no matching rows") {
		t.Fatalf("expected missing-area notice:\n%s", out)
	}
	if _, err := runCmd(t, "compare", "--data", data, "--offline"); err == nil {
		t.Fatal("expected error without --areas")
	}
}

func TestCLI_BatchJSONLines(t *testing.T) {
	home, data := isolate(t)
	queries := filepath.Join(home, "queries.txt")
	if err := os.WriteFile(queries, []byte("# weekly\nWakad\n\nCompare Wakad and Akurdi\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	outPath := filepath.Join(home, "results.jsonl")
	mustRun(t, "batch", queries, "--data", data, "--offline", "--quiet", "-o", outPath)

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("open results: %v", err)
	}
	defer f.Close()
	var lines []batchLine
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		var rec batchLine
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		lines = append(lines, rec)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 records, got %d", len(lines))
	}
	if lines[0].Line != 2 || lines[0].Query != "Wakad" || lines[0].Response == nil || lines[0].Response.Area != "Wakad" {
		t.Fatalf("unexpected first record: %+v", lines[0])
	}
	if lines[1].Response == nil || lines[1].Response.QueryType != "comparison" {
		t.Fatalf("unexpected second record: %+v", lines[1])
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home, _ := isolate(t)
	cfgPath := filepath.Join(home, "cfg", "config.yaml")
	mustRun(t, "--config", cfgPath, "config", "set", "table_limit", "50")
	mustRun(t, "--config", cfgPath, "config", "set", "api_key", "sk-abcdef123456")
	mustRun(t, "--config", cfgPath, "config", "set", "default_provider", "local")

	out := mustRun(t, "--config", cfgPath, "config", "show")
	for _, want := range []string{"table_limit: 50", "default_provider: ollama", "api_key: sk-****456"} {
		if !strings.Contains(out, want) {
			t.Fatalf("config show missing %q:\n%s", want, out)
		}
	}
	if _, err := runCmd(t, "--config", cfgPath, "config", "set", "default_provider", "bogus"); err == nil {
		t.Fatal("expected invalid provider error")
	}
	if _, err := runCmd(t, "--config", cfgPath, "config", "set", "max_tokens", "10"); err == nil {
		t.Fatal("expected unknown key error")
	}
}

func TestCLI_ModelsShow(t *testing.T) {
	isolate(t)
	out := mustRun(t, "--provider", "groq", "models", "show")
	if !strings.Contains(out, "* groq") || !strings.Contains(out, "llama-3.3-70b-versatile") {
		t.Fatalf("unexpected models output:\n%s", out)
	}
}

func TestCLI_Inspect(t *testing.T) {
	_, data := isolate(t)
	out := mustRun(t, "inspect", "--data", data, "--offline")
	for _, want := range []string{"(4 rows, 3 columns)", "Location: location", "Year:     year", "Wakad                    3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("inspect output missing %q:\n%s", want, out)
		}
	}
}
