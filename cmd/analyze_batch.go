package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/chartloom/internal/utils"
	"github.com/spf13/cobra"
)

var (
	abOutDir          string
	abFormat          string
	abSkipAI          bool
	abSheetName       string
	abDelimiter       string
	abMaxRows         int
	abStory           bool
	abTop             int
	abQuiet           bool
	abContinueOnError bool
)

// expandInputs resolves globs and literal paths, dropping duplicates.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// slug keeps lowercase letters and digits and turns separators into '-'.
func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else if r == ' ' || r == '-' || r == '_' {
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// reportPath picks outDir/<base>[__sheet-x][__N]<ext> without overwriting
// an existing report.
func reportPath(outDir, input, sheet, ext string) (string, bool) {
	base := filepath.Base(input)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if sheet != "" {
		ss := slug(sheet)
		if ss == "" {
			ss = "sheet"
		}
		name += "__sheet-" + ss
	}
	out := filepath.Join(outDir, name+ext)
	if _, err := os.Stat(out); err != nil {
		return out, false
	}
	for idx := 2; ; idx++ {
		cand := filepath.Join(outDir, fmt.Sprintf("%s__%d%s", name, idx, ext))
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand, true
		}
	}
}

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze many CSV/TSV/XLSX files and write one report per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		rf := reportFlags{
			format:    strings.ToLower(abFormat),
			skipAI:    abSkipAI,
			sheet:     abSheetName,
			delimiter: abDelimiter,
			maxRows:   abMaxRows,
			story:     abStory,
			top:       abTop,
		}
		if err := rf.validate(); err != nil {
			return err
		}
		opt, err := rf.options()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(abOutDir, 0o755); err != nil {
			return fmt.Errorf("mkdir out dir: %w", err)
		}
		az, _, err := newAnalyzer(cfg, logger)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		total := len(files)
		failed := 0
		for i, path := range files {
			if !abQuiet {
				fmt.Fprintf(os.Stderr, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			res, err := az.AnalyzeFile(ctx, path, opt)
			if err != nil {
				if !abContinueOnError {
					return fmt.Errorf("%s: %w", path, err)
				}
				failed++
				fmt.Fprintf(os.Stderr, "⚠ Warning: skipped %s: %v\n", path, err)
				continue
			}
			out, err := rf.render(res)
			if err != nil {
				return err
			}
			outFile, renamed := reportPath(abOutDir, path, abSheetName, rf.ext())
			if renamed && !abQuiet {
				fmt.Fprintf(os.Stderr, "⚠ Detected existing report, writing to %s to avoid overwrite.\n", filepath.Base(outFile))
			}
			if err := utils.SafeWriteFile(outFile, out); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			if !abQuiet {
				fmt.Fprintf(os.Stderr, "✓ %s -> %s (%s)\n", filepath.Base(path), outFile, res.RecommendedChart.ChartType)
			}
		}
		if failed > 0 {
			fmt.Fprintf(os.Stderr, "⚠ Warning: %d of %d files failed\n", failed, total)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "reports", "directory to write reports into")
	analyzeBatchCmd.Flags().StringVarP(&abFormat, "format", "f", "markdown", "report format: json|markdown")
	analyzeBatchCmd.Flags().BoolVar(&abSkipAI, "skip-ai", false, "skip AI insights and cleaning suggestions")
	analyzeBatchCmd.Flags().StringVar(&abSheetName, "sheet", "", "XLSX: sheet name to analyze (default: largest sheet)")
	analyzeBatchCmd.Flags().StringVar(&abDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | 'pipe' (sniffed if omitted)")
	analyzeBatchCmd.Flags().IntVar(&abMaxRows, "max-rows", 0, "maximum rows to read per file (0 = unlimited)")
	analyzeBatchCmd.Flags().BoolVar(&abStory, "story", false, "write narrative reports")
	analyzeBatchCmd.Flags().IntVar(&abTop, "top", 0, "keep at most N alternative charts (0 = all)")
	analyzeBatchCmd.Flags().BoolVarP(&abQuiet, "quiet", "q", false, "suppress progress output")
	analyzeBatchCmd.Flags().BoolVar(&abContinueOnError, "continue-on-error", false, "skip files that fail instead of stopping")
}
