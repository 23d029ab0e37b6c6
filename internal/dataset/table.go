package dataset

import (
	"strconv"
	"time"
)

// Kind is the storage type of a column, decided once at ingestion.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindFloat
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindDate:
		return "date"
	default:
		return "string"
	}
}

// IsNumeric reports whether values are stored as numbers.
func (k Kind) IsNumeric() bool { return k == KindInteger || k == KindFloat }

// Cell is a single value. Raw keeps the source text; Num and Time are only
// meaningful for the matching column kind.
type Cell struct {
	Raw  string
	Null bool
	Num  float64
	Time time.Time
}

// NullCell returns an empty cell.
func NullCell() Cell { return Cell{Null: true} }

// Column is a named sequence of cells sharing one storage kind.
type Column struct {
	Name  string
	Kind  Kind
	Cells []Cell
}

// Table is an in-memory dataset. Columns keep source order.
type Table struct {
	Name    string
	Columns []*Column
}

// RowCount returns the number of rows (length of the first column).
func (t *Table) RowCount() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Cells)
}

// ColCount returns the number of columns.
func (t *Table) ColCount() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// Column looks up a column by exact name.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// NonNull returns the non-null cells in order.
func (c *Column) NonNull() []Cell {
	out := make([]Cell, 0, len(c.Cells))
	for _, v := range c.Cells {
		if !v.Null {
			out = append(out, v)
		}
	}
	return out
}

// NullCount counts null cells.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.Cells {
		if v.Null {
			n++
		}
	}
	return n
}

// UniqueCount counts distinct non-null values by their canonical key.
func (c *Column) UniqueCount() int {
	seen := make(map[string]struct{})
	for _, v := range c.Cells {
		if v.Null {
			continue
		}
		seen[c.Key(v)] = struct{}{}
	}
	return len(seen)
}

// Numbers returns the non-null numeric values of a numeric column.
func (c *Column) Numbers() []float64 {
	if !c.Kind.IsNumeric() {
		return nil
	}
	out := make([]float64, 0, len(c.Cells))
	for _, v := range c.Cells {
		if !v.Null {
			out = append(out, v.Num)
		}
	}
	return out
}

// Key returns the canonical distinct-value key of a cell for this column.
func (c *Column) Key(v Cell) string {
	if v.Null {
		return ""
	}
	switch c.Kind {
	case KindInteger, KindFloat:
		return FormatNumber(v.Num)
	case KindDate:
		return v.Time.Format(time.RFC3339Nano)
	default:
		return v.Raw
	}
}

// Value returns the cell as a JSON-friendly Go value: nil, float64/int64,
// an ISO timestamp string, or the raw string.
func (c *Column) Value(v Cell) any {
	if v.Null {
		return nil
	}
	switch c.Kind {
	case KindInteger:
		return int64(v.Num)
	case KindFloat:
		return v.Num
	case KindDate:
		return FormatTime(v.Time)
	default:
		return v.Raw
	}
}

// Records returns up to limit rows as name -> value maps. limit <= 0 means all.
func (t *Table) Records(limit int) []map[string]any {
	n := t.RowCount()
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		row := make(map[string]any, len(t.Columns))
		for _, c := range t.Columns {
			row[c.Name] = c.Value(c.Cells[i])
		}
		out[i] = row
	}
	return out
}

// Head returns a shallow table view limited to the first n rows.
func (t *Table) Head(n int) *Table {
	if n <= 0 || n >= t.RowCount() {
		return t
	}
	out := &Table{Name: t.Name, Columns: make([]*Column, len(t.Columns))}
	for i, c := range t.Columns {
		out.Columns[i] = &Column{Name: c.Name, Kind: c.Kind, Cells: c.Cells[:n]}
	}
	return out
}

// Clone deep-copies the table so callers can mutate it safely.
func (t *Table) Clone() *Table {
	out := &Table{Name: t.Name, Columns: make([]*Column, len(t.Columns))}
	for i, c := range t.Columns {
		cells := make([]Cell, len(c.Cells))
		copy(cells, c.Cells)
		out.Columns[i] = &Column{Name: c.Name, Kind: c.Kind, Cells: cells}
	}
	return out
}

// FormatNumber renders integral values without a fractional part.
func FormatNumber(f float64) string {
	if f == float64(int64(f)) && f < 1e15 && f > -1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// FormatTime renders timestamps as ISO-8601 in UTC without a zone suffix.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05")
}
