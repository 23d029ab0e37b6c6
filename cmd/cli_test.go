package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/chartloom/internal/analysis"
	cfgpkg "github.com/KaramelBytes/chartloom/internal/config"
)

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and sticky flags cleared.
func runCmd(t *testing.T, args ...string) error {
	t.Helper()
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func mustRun(t *testing.T, args ...string) {
	t.Helper()
	if err := runCmd(t, args...); err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
}

// isolatedHome points HOME at a temp dir so config and shares stay local.
func isolatedHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CHARTLOOM_AI_PROVIDER", "none")
	return home
}

func writeSales(t *testing.T, path string) {
	t.Helper()
	var b strings.Builder
	b.WriteString("date,revenue,region\n")
	regions := []string{"North", "South", "East"}
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, "2024-02-%02d,%d,%s\n", i+1, 200+i*9, regions[i%3])
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
}

func TestCLI_AnalyzeJSON(t *testing.T) {
	home := isolatedHome(t)
	in := filepath.Join(home, "sales.csv")
	writeSales(t, in)
	out := filepath.Join(home, "out", "sales.json")

	mustRun(t, "analyze", in, "--format", "json", "--skip-ai", "--top", "2", "-o", out)

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var res analysis.Result
	if err := json.Unmarshal(b, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.RecommendedChart.XColumn != "date" || res.RecommendedChart.YColumn != "revenue" {
		t.Fatalf("unexpected recommendation %+v", res.RecommendedChart)
	}
	if len(res.Alternatives) > 2 {
		t.Fatalf("--top 2 kept %d alternatives", len(res.Alternatives))
	}
}

func TestCLI_AnalyzeStoryMarkdown(t *testing.T) {
	home := isolatedHome(t)
	in := filepath.Join(home, "q1_sales.csv")
	writeSales(t, in)
	out := filepath.Join(home, "story.md")

	mustRun(t, "analyze", in, "--story", "--skip-ai", "-o", out)

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(b), "# Q1 Sales - Insights & Trends") {
		t.Fatalf("unexpected story:\n%s", b)
	}
}

func TestCLI_AnalyzeRejectsBadFlags(t *testing.T) {
	home := isolatedHome(t)
	in := filepath.Join(home, "sales.csv")
	writeSales(t, in)
	if err := runCmd(t, "analyze", in, "--format", "pdf"); err == nil {
		t.Fatalf("expected error for --format pdf")
	}
	if err := runCmd(t, "analyze", in, "--delimiter", "#"); err == nil {
		t.Fatalf("expected error for --delimiter #")
	}
	if err := runCmd(t, "analyze", filepath.Join(home, "notes.pdf")); err == nil {
		t.Fatalf("expected error for missing pdf")
	}
}

func TestCLI_AnalyzeBatchCollisionSafe(t *testing.T) {
	home := isolatedHome(t)
	// Two CSV files with the same basename in different directories
	writeSales(t, filepath.Join(home, "d1", "metrics.csv"))
	writeSales(t, filepath.Join(home, "d2", "metrics.csv"))
	outDir := filepath.Join(home, "reports")

	mustRun(t, "analyze-batch", filepath.Join(home, "d*", "metrics.csv"), "--out-dir", outDir, "--skip-ai", "-q")

	first := filepath.Join(outDir, "metrics.md")
	second := filepath.Join(outDir, "metrics__2.md")
	for _, p := range []string{first, second} {
		b, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("missing report: %v", err)
		}
		if !strings.Contains(string(b), "[RECOMMENDED CHART]") {
			t.Fatalf("%s is not a report:\n%s", p, b)
		}
	}
}

func TestCLI_AnalyzeBatchContinueOnError(t *testing.T) {
	home := isolatedHome(t)
	writeSales(t, filepath.Join(home, "in", "good.csv"))
	if err := os.WriteFile(filepath.Join(home, "in", "empty.csv"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(home, "reports")
	glob := filepath.Join(home, "in", "*.csv")

	if err := runCmd(t, "analyze-batch", glob, "--out-dir", outDir, "--skip-ai", "-q"); err == nil {
		t.Fatalf("expected the empty file to stop the batch")
	}
	mustRun(t, "analyze-batch", glob, "--out-dir", outDir, "--skip-ai", "-q", "--continue-on-error", "--format", "json")
	if _, err := os.Stat(filepath.Join(outDir, "good.json")); err != nil {
		t.Fatalf("good file not reported: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "empty.json")); err == nil {
		t.Fatalf("empty file should have no report")
	}
}

func TestCLI_ConfigSet(t *testing.T) {
	home := isolatedHome(t)
	path := filepath.Join(home, "chartloom.yaml")

	mustRun(t, "--config", path, "config", "set", "max_dataset_rows", "42")
	mustRun(t, "--config", path, "config", "set", "share_ttl_hours", "6")
	if err := runCmd(t, "--config", path, "config", "set", "max_dataset_rows", "many"); err == nil {
		t.Fatalf("expected error for a non-numeric value")
	}
	mustRun(t, "--config", path, "config", "show")

	c, err := cfgpkg.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.MaxDatasetRows != 42 || c.ShareTTLHours != 6 {
		t.Fatalf("values not saved: %+v", c)
	}
}

func TestCLI_ShareCreateShow(t *testing.T) {
	home := isolatedHome(t)
	in := filepath.Join(home, "sales.csv")
	writeSales(t, in)
	result := filepath.Join(home, "sales.json")
	mustRun(t, "analyze", in, "--format", "json", "--skip-ai", "-o", result)

	mustRun(t, "share", "create", result, "--hours", "3")

	entries, err := os.ReadDir(filepath.Join(home, ".chartloom", "shares"))
	if err != nil {
		t.Fatalf("read shares dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one stored share, got %d", len(entries))
	}
	token := strings.TrimSuffix(entries[0].Name(), ".json")
	mustRun(t, "share", "show", token)
	mustRun(t, "share", "show", token, "--markdown")

	if err := runCmd(t, "share", "show", "00000000-0000-0000-0000-000000000000"); err == nil {
		t.Fatalf("expected error for an unknown token")
	}
	if err := runCmd(t, "share", "create", result, "--hours", "500"); err == nil {
		t.Fatalf("expected error for --hours 500")
	}
}
