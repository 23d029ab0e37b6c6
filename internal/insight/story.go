package insight

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/KaramelBytes/chartloom/internal/chart"
	"github.com/KaramelBytes/chartloom/internal/profile"
)

// StoryChart is the part of a chart candidate a story shows.
type StoryChart struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ChartType   chart.ChartType `json:"chart_type"`
}

type StoryMetadata struct {
	RowCount int    `json:"row_count"`
	ColCount int    `json:"col_count"`
	Filename string `json:"filename"`
}

// Story is a one-page narrative of an analysis.
type Story struct {
	Title      string        `json:"title"`
	Summary    string        `json:"summary"`
	Insights   []string      `json:"insights"`
	Charts     []StoryChart  `json:"charts"`
	Conclusion string        `json:"conclusion"`
	Metadata   StoryMetadata `json:"metadata"`
}

var printer = message.NewPrinter(language.English)

// StoryTitle derives a report title from the file name.
func StoryTitle(p *profile.DatasetProfile, filename string) string {
	base := filepath.Base(filename)
	for _, ext := range []string{".csv", ".tsv", ".xlsx", ".xlsm", ".xls"} {
		base = strings.ReplaceAll(base, ext, "")
	}
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	base = cases.Title(language.English).String(strings.TrimSpace(base))
	if p.RowCount > 1000 {
		return base + " - Data Analysis Report"
	}
	return base + " - Insights & Trends"
}

func executiveSummary(p *profile.DatasetProfile, insights []string, rec chart.Candidate) string {
	parts := []string{printer.Sprintf("This report analyzes %d data points across %d dimensions.", p.RowCount, p.ColCount)}
	if len(insights) > 0 {
		parts = append(parts, "Key findings include: "+strings.ToLower(insights[0]))
		if len(insights) > 1 {
			parts = append(parts, "Additionally, "+strings.ToLower(insights[1]))
		}
	}
	parts = append(parts, fmt.Sprintf("The recommended visualization is a %s chart showing %s.",
		rec.ChartType, strings.ToLower(rec.Title)))
	return strings.Join(parts, " ")
}

// BuildStory assembles the story for a finished analysis: the recommended
// chart plus the first two alternatives, and at most three insights.
func BuildStory(p *profile.DatasetProfile, recommended chart.Candidate, alternatives []chart.Candidate, insights []string, filename string) Story {
	charts := []StoryChart{{Title: recommended.Title, Description: recommended.Description, ChartType: recommended.ChartType}}
	for _, c := range alternatives[:min(2, len(alternatives))] {
		charts = append(charts, StoryChart{Title: c.Title, Description: c.Description, ChartType: c.ChartType})
	}
	top := insights
	if len(top) > MaxInsights {
		top = top[:MaxInsights]
	}
	if top == nil {
		top = []string{}
	}
	return Story{
		Title:    StoryTitle(p, filename),
		Summary:  executiveSummary(p, insights, recommended),
		Insights: top,
		Charts:   charts,
		Conclusion: printer.Sprintf("Based on the analysis of %d records, the data reveals important patterns and trends. "+
			"The visualizations above highlight the key relationships and insights. "+
			"Consider these findings when making data-driven decisions.", p.RowCount),
		Metadata: StoryMetadata{RowCount: p.RowCount, ColCount: p.ColCount, Filename: filename},
	}
}

// Markdown renders the story as a standalone document.
func (s Story) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", s.Title)
	fmt.Fprintf(&b, "## Executive Summary\n\n%s\n\n", s.Summary)
	if len(s.Insights) > 0 {
		b.WriteString("## Key Insights\n\n")
		for _, in := range s.Insights {
			fmt.Fprintf(&b, "- %s\n", strings.ReplaceAll(in, "\n", " "))
		}
		b.WriteString("\n")
	}
	b.WriteString("## Charts\n\n")
	for i, c := range s.Charts {
		fmt.Fprintf(&b, "%d. **%s** (%s): %s\n", i+1, c.Title, c.ChartType, c.Description)
	}
	fmt.Fprintf(&b, "\n## Conclusion\n\n%s\n\n", s.Conclusion)
	printer.Fprintf(&b, "_%s: %d rows, %d columns_\n", s.Metadata.Filename, s.Metadata.RowCount, s.Metadata.ColCount)
	return b.String()
}
