package insight

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/chartloom/internal/profile"
)

const maxSuggestions = 5

// CleanDataMessage is returned when no rule fires.
const CleanDataMessage = "✅ Data looks clean, no obvious issues found"

// SuggestCleaning lists rule-based data quality fixes, at most five.
func SuggestCleaning(p *profile.DatasetProfile) []string {
	var out []string
	for _, c := range p.Columns {
		pct := 0.0
		if p.RowCount > 0 {
			pct = float64(c.NullCount) / float64(p.RowCount) * 100
		}
		switch {
		case pct > 20:
			out = append(out, fmt.Sprintf("⚠️ High missing data: '%s' has %.0f%% missing values. Consider filling with mean/mode or removing rows.", c.Name, pct))
		case pct > 0:
			out = append(out, fmt.Sprintf("📝 '%s' has %d missing values (%.1f%%)", c.Name, c.NullCount, pct))
		}
		if c.UniqueCount == p.RowCount && c.Dtype == profile.Nominal {
			out = append(out, fmt.Sprintf("🔑 '%s' is likely an ID column (all values unique)", c.Name))
		}
		if c.UniqueCount == 1 {
			out = append(out, fmt.Sprintf("⚡ '%s' has only 1 unique value, consider removing it (no variation)", c.Name))
		}
	}
	if len(out) == 0 {
		return []string{CleanDataMessage}
	}
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// WithAdvice puts free-form advice, already formatted as bullet lines, in
// front of the rule-based suggestions.
func WithAdvice(suggestions []string, advice string) []string {
	advice = strings.TrimSpace(advice)
	if advice == "" {
		return suggestions
	}
	block := "🤖 " + strings.ReplaceAll(advice, "\n", "\n   ")
	return append([]string{block}, suggestions...)
}
