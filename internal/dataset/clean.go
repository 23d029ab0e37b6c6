package dataset

import (
	"regexp"
	"strings"
)

// Clean drops all-null rows and columns, normalizes column names and strips
// example parentheticals ("(e.g., A, B)") from string cells. The table is
// modified in place and returned for chaining.
func Clean(t *Table) *Table {
	if t == nil {
		return t
	}
	cols := t.Columns[:0]
	for _, c := range t.Columns {
		if c.NullCount() < len(c.Cells) {
			cols = append(cols, c)
		}
	}
	t.Columns = cols

	keep := make([]int, 0, t.RowCount())
	for i := 0; i < t.RowCount(); i++ {
		for _, c := range t.Columns {
			if !c.Cells[i].Null {
				keep = append(keep, i)
				break
			}
		}
	}
	if len(keep) < t.RowCount() {
		for _, c := range t.Columns {
			cells := make([]Cell, len(keep))
			for k, i := range keep {
				cells[k] = c.Cells[i]
			}
			c.Cells = cells
		}
	}

	for _, c := range t.Columns {
		c.Name = SanitizeName(c.Name)
		if c.Kind != KindString {
			continue
		}
		for i, v := range c.Cells {
			if v.Null {
				continue
			}
			s := StripExamples(v.Raw)
			if s == "" {
				c.Cells[i] = NullCell()
				continue
			}
			c.Cells[i].Raw = s
		}
	}
	return t
}

// SanitizeName turns line breaks into spaces and collapses whitespace.
func SanitizeName(s string) string {
	s = strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

var examplesRe = regexp.MustCompile(`(?i)\s*\(\s*(?:e\.g\.|i\.e\.|eg\b|ie\b)[^)]*\)`)

// StripExamples removes "(e.g., ...)" and "(i.e., ...)" groups so commas
// inside them do not read as multi-select separators.
func StripExamples(s string) string {
	if !strings.Contains(s, "(") {
		return s
	}
	return strings.TrimSpace(examplesRe.ReplaceAllString(s, ""))
}
