package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/KaramelBytes/chartloom/internal/analysis"
	"github.com/KaramelBytes/chartloom/internal/utils"
	"github.com/spf13/cobra"
)

var (
	anaFormat     string
	anaOutputPath string
	anaSkipAI     bool
	anaSheetName  string
	anaDelimiter  string
	anaMaxRows    int
	anaStory      bool
	anaTop        int
)

// reportFlags is what analyze and analyze-batch share.
type reportFlags struct {
	format    string
	skipAI    bool
	sheet     string
	delimiter string
	maxRows   int
	story     bool
	top       int
}

func (f reportFlags) validate() error {
	switch f.format {
	case "json", "markdown", "md":
		return nil
	}
	return fmt.Errorf("unsupported --format: %s (use json|markdown)", f.format)
}

func (f reportFlags) ext() string {
	if f.format == "json" {
		return ".json"
	}
	return ".md"
}

func (f reportFlags) options() (analysis.Options, error) {
	c, err := requireConfig()
	if err != nil {
		return analysis.Options{}, err
	}
	opt := analysisOptions(c)
	opt.SkipAI = f.skipAI
	opt.Parser.Sheet = f.sheet
	if f.maxRows > 0 {
		opt.Parser.MaxRows = f.maxRows
	}
	d, err := parseDelimiter(f.delimiter)
	if err != nil {
		return analysis.Options{}, err
	}
	opt.Parser.Delimiter = d
	return opt, nil
}

// render turns a result into the requested report body.
func (f reportFlags) render(res *analysis.Result) ([]byte, error) {
	if f.top > 0 && len(res.Alternatives) > f.top {
		res.Alternatives = res.Alternatives[:f.top]
	}
	if f.story {
		st := res.Story()
		if f.format == "json" {
			return utils.PrettyJSON(st)
		}
		return []byte(st.Markdown()), nil
	}
	if f.format == "json" {
		return utils.PrettyJSON(res)
	}
	return []byte(res.Markdown()), nil
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|url>",
	Short: "Profile a CSV/TSV/XLSX file and recommend charts",
	Long: `Profile a dataset and print the recommended chart, alternatives, insights and
the most surprising finding. The input may be a local path or any URL the
storage layer understands (file://, http(s)://, s3://, gs://).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rf := reportFlags{
			format:    strings.ToLower(anaFormat),
			skipAI:    anaSkipAI,
			sheet:     anaSheetName,
			delimiter: anaDelimiter,
			maxRows:   anaMaxRows,
			story:     anaStory,
			top:       anaTop,
		}
		if err := rf.validate(); err != nil {
			return err
		}
		opt, err := rf.options()
		if err != nil {
			return err
		}
		az, _, err := newAnalyzer(cfg, logger)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		res, err := az.AnalyzeFile(ctx, args[0], opt)
		if err != nil {
			return err
		}
		out, err := rf.render(res)
		if err != nil {
			return err
		}
		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaFormat, "format", "f", "markdown", "output format: json|markdown")
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report")
	analyzeCmd.Flags().BoolVar(&anaSkipAI, "skip-ai", false, "skip AI insights and cleaning suggestions")
	analyzeCmd.Flags().StringVar(&anaSheetName, "sheet", "", "XLSX: sheet name to analyze (default: largest sheet)")
	analyzeCmd.Flags().StringVar(&anaDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | 'pipe' (sniffed if omitted)")
	analyzeCmd.Flags().IntVar(&anaMaxRows, "max-rows", 0, "maximum rows to read (0 = unlimited)")
	analyzeCmd.Flags().BoolVar(&anaStory, "story", false, "render a narrative report instead of the full analysis")
	analyzeCmd.Flags().IntVar(&anaTop, "top", 0, "keep at most N alternative charts (0 = all)")
}
