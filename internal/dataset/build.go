package dataset

import (
	"fmt"
	"strings"
)

// FromRecords builds a table from a header and string rows. Short rows are
// padded with nulls and long rows truncated. Each column is stored as
// integer when every non-null value parses as an integer, float when every
// non-null value parses as a number, and string otherwise.
func FromRecords(name string, header []string, rows [][]string) *Table {
	names := repairHeader(header)
	t := &Table{Name: name, Columns: make([]*Column, len(names))}
	for j, n := range names {
		cells := make([]Cell, len(rows))
		for i, rec := range rows {
			if j >= len(rec) || IsNullToken(rec[j]) {
				cells[i] = NullCell()
				continue
			}
			cells[i] = Cell{Raw: strings.TrimSpace(rec[j])}
		}
		col := &Column{Name: n, Kind: KindString, Cells: cells}
		InferKind(col)
		t.Columns[j] = col
	}
	return t
}

// InferKind promotes a string column to integer or float storage when every
// non-null value parses. Columns without values stay strings.
func InferKind(c *Column) {
	if c.Kind != KindString {
		return
	}
	allInt, allNum, found := true, true, false
	for _, v := range c.Cells {
		if v.Null {
			continue
		}
		found = true
		if allInt {
			if _, ok := ParseInt(v.Raw); !ok {
				allInt = false
			}
		}
		if _, ok := ParseFloat(v.Raw); !ok {
			allNum = false
			break
		}
	}
	if !found || !allNum {
		return
	}
	kind := KindFloat
	if allInt {
		kind = KindInteger
	}
	for i, v := range c.Cells {
		if v.Null {
			continue
		}
		f, _ := ParseFloat(v.Raw)
		c.Cells[i].Num = f
	}
	c.Kind = kind
}

// repairHeader fills blank names and disambiguates duplicates the way
// spreadsheet readers usually do ("Unnamed: 3", "score.1").
func repairHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, ok := seen[h]; ok {
			seen[h] = n + 1
			h = fmt.Sprintf("%s.%d", h, n+1)
		} else {
			seen[h] = 0
		}
		out[i] = h
	}
	return out
}
