package ai

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/KaramelBytes/chartloom/internal/chart"
)

var instructionPatterns = []string{"SYSTEM:", "USER:", "ASSISTANT:", "IGNORE", "FORGET", "NEW INSTRUCTION"}

// SanitizeForPrompt prepares user-controlled text (column names, cell
// values) for inclusion in a prompt: control characters are dropped, the
// text is cut to maxLen runes, and instruction-like words are bracketed.
func SanitizeForPrompt(text string, maxLen int) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range text {
		if r == '\n' || r == '\r' || r == '\t' || !unicode.IsPrint(r) {
			continue
		}
		b.WriteRune(r)
	}
	s := b.String()
	if r := []rune(s); maxLen > 0 && len(r) > maxLen {
		s = string(r[:maxLen]) + "..."
	}
	for _, p := range instructionPatterns {
		s = strings.ReplaceAll(s, p, "["+p+"]")
	}
	return s
}

var metaPhrases = []string{"here are", "based on", "insights:", "analysis:"}

// FormatResponse turns free-form model output into at most four "• " bullet
// lines, dropping markdown emphasis and preamble lines.
func FormatResponse(text string) string {
	if text == "" {
		return ""
	}
	clean := strings.NewReplacer("**", "", "__", "", "*", "").Replace(text)
	var lines []string
	for _, line := range strings.Split(clean, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		skip := false
		for _, m := range metaPhrases {
			if strings.Contains(lower, m) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, "-"), "•"))
		lines = append(lines, "• "+line)
		if len(lines) == 4 {
			break
		}
	}
	return strings.Join(lines, "\n")
}

// Section is one dashboard section proposed by the model.
type Section struct {
	Title   string   `json:"title"`
	Columns []string `json:"columns"`
	Type    string   `json:"type"`
}

// ParseSections reads {"sections":[...]} from a reply that may be wrapped
// in a markdown code fence.
func ParseSections(reply string) ([]Section, error) {
	s := strings.TrimSpace(reply)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.TrimSpace(strings.ReplaceAll(s, "```", ""))
	if i, j := strings.Index(s, "{"), strings.LastIndex(s, "}"); i >= 0 && j > i {
		s = s[i : j+1]
	}
	var doc struct {
		Sections []Section `json:"sections"`
	}
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return nil, fmt.Errorf("parse sections: %w", err)
	}
	return doc.Sections, nil
}

// GridGroups keeps the sections marked as grids with at least two columns.
func GridGroups(sections []Section) []chart.Group {
	var out []chart.Group
	for _, s := range sections {
		if strings.EqualFold(s.Type, "grid") && len(s.Columns) >= 2 && strings.TrimSpace(s.Title) != "" {
			out = append(out, chart.Group{Name: s.Title, Columns: s.Columns})
		}
	}
	return out
}

var chartQuestions = map[chart.ChartType]string{
	chart.Bar:       "Bar chart of '%[1]s'. Key patterns?",
	chart.Donut:     "Pie chart of '%[1]s'. Largest segments?",
	chart.Line:      "Line: '%[2]s' over '%[1]s'. Trends?",
	chart.Area:      "Area: '%[2]s' over '%[1]s'. Trends?",
	chart.Scatter:   "Scatter: '%[1]s' vs '%[2]s'. Correlation?",
	chart.Histogram: "Histogram of '%[1]s'. Distribution shape?",
	chart.Heatmap:   "Heatmap of '%[1]s' x '%[2]s'. Hotspots?",
}

func chartQuestion(t chart.ChartType, x, y string) string {
	if q, ok := chartQuestions[t]; ok {
		return fmt.Sprintf(q, x, y)
	}
	return fmt.Sprintf("%s of '%s'", t, x)
}
