package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/chartloom/internal/chart"
	"github.com/KaramelBytes/chartloom/internal/profile"
)

// sampleRowsInReport is how many dataset rows Markdown prints.
const sampleRowsInReport = 5

// Markdown renders the result as a plain-text report for terminals and files.
func (r *Result) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Filename != "" {
		fmt.Fprintf(&b, "File: %s\n", r.Filename)
	}
	if r.Profile != nil {
		fmt.Fprintf(&b, "Rows: %d\n", r.Profile.RowCount)
		if n := len(r.Dataset); n > 0 && n < r.Profile.RowCount {
			fmt.Fprintf(&b, "Rows in response: %d\n", n)
		}
		fmt.Fprintf(&b, "Columns: %d\n\n", r.Profile.ColCount)

		b.WriteString("[SCHEMA]\n")
		for _, c := range r.Profile.Columns {
			writeColumn(&b, c, r.Profile.RowCount)
		}
	}

	b.WriteString("\n[RECOMMENDED CHART]\n")
	writeCandidate(&b, r.RecommendedChart)
	if len(r.Alternatives) > 0 {
		b.WriteString("\n[ALTERNATIVES]\n")
		for _, c := range r.Alternatives {
			writeCandidate(&b, c)
		}
	}

	if len(r.Insights) > 0 {
		b.WriteString("\n[INSIGHTS]\n")
		for _, s := range r.Insights {
			b.WriteString("- ")
			b.WriteString(strings.ReplaceAll(s, "\n", "\n  "))
			b.WriteString("\n")
		}
	}
	if r.Surprise != nil {
		b.WriteString("\n[SURPRISE]\n")
		fmt.Fprintf(&b, "- %s (%s chart of %s", r.Surprise.Kind, r.Surprise.ChartType, safeName(r.Surprise.XColumn))
		if r.Surprise.YColumn != "" {
			fmt.Fprintf(&b, " vs %s", safeName(r.Surprise.YColumn))
		}
		b.WriteString(")\n  ")
		b.WriteString(strings.ReplaceAll(r.Surprise.Insight, "\n", "\n  "))
		b.WriteString("\n")
	}

	if len(r.Dataset) > 0 && r.Profile != nil {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		cols := r.Profile.Columns
		b.WriteString("| ")
		for i, c := range cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for n, row := range r.Dataset {
			if n == sampleRowsInReport {
				break
			}
			b.WriteString("| ")
			for i, c := range cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if v := row[c.Name]; v != nil {
					val = fmt.Sprint(v)
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	return b.String()
}

func writeColumn(b *strings.Builder, c *profile.ColumnProfile, rows int) {
	missPct := 0.0
	if rows > 0 {
		missPct = float64(c.NullCount) * 100.0 / float64(rows)
	}
	fmt.Fprintf(b, "- %s: %s (unique %d, missing %.1f%%)", safeName(c.Name), c.Dtype, c.UniqueCount, missPct)
	switch c.Dtype {
	case profile.Numeric:
		if c.Mean != nil {
			fmt.Fprintf(b, "; min %v, max %v, mean %.4g", c.Min, c.Max, *c.Mean)
		}
	case profile.Temporal:
		if c.Min != nil {
			fmt.Fprintf(b, "; from %v to %v", c.Min, c.Max)
		}
	default:
		if len(c.Examples) > 0 {
			b.WriteString("; e.g., ")
			for i, ex := range c.Examples {
				if i > 0 {
					b.WriteString(" | ")
				}
				b.WriteString(safeVal(fmt.Sprint(ex)))
			}
		}
	}
	var tags []string
	if c.IsLikert {
		tags = append(tags, "likert")
	}
	if c.IsCheckbox {
		tags = append(tags, "checkbox")
	}
	if c.IsOther {
		tags = append(tags, "other")
	}
	if c.GridGroup != "" {
		tags = append(tags, "grid: "+safeVal(c.GridGroup))
	}
	if len(tags) > 0 {
		fmt.Fprintf(b, " [%s]", strings.Join(tags, ", "))
	}
	b.WriteString("\n")
}

func writeCandidate(b *strings.Builder, c chart.Candidate) {
	fmt.Fprintf(b, "- %s (%s, score %.2f): %s\n", c.Title, c.ChartType, c.Score, c.Description)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
