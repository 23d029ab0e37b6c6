package profile

import "encoding/json"

// Dtype is the semantic type assigned to a column.
type Dtype string

const (
	Numeric  Dtype = "numeric"
	Temporal Dtype = "temporal"
	Nominal  Dtype = "nominal"
	Ordinal  Dtype = "ordinal"
)

// IsCategorical reports whether the dtype groups rows into categories.
func (d Dtype) IsCategorical() bool { return d == Nominal || d == Ordinal }

// ColumnProfile describes one column. Min/Max hold float64 for numeric
// columns, ISO strings for temporal ones, and nil otherwise.
type ColumnProfile struct {
	Name         string   `json:"name"`
	OriginalName string   `json:"original_name"`
	Dtype        Dtype    `json:"dtype"`
	NullCount    int      `json:"null_count"`
	UniqueCount  int      `json:"unique_count"`
	Examples     []any    `json:"examples"`
	Min          any      `json:"min"`
	Max          any      `json:"max"`
	Mean         *float64 `json:"mean"`

	IsCheckbox  bool     `json:"is_checkbox"`
	IsLikert    bool     `json:"is_likert"`
	LikertOrder []string `json:"likert_order"`
	GridGroup   string   `json:"grid_group"`
	IsOther     bool     `json:"is_other"`
}

// MarshalJSON writes an empty grid group as null.
func (c ColumnProfile) MarshalJSON() ([]byte, error) {
	type plain ColumnProfile
	var group *string
	if c.GridGroup != "" {
		group = &c.GridGroup
	}
	return json.Marshal(struct {
		plain
		GridGroup *string `json:"grid_group"`
	}{plain(c), group})
}

// MaxFloat returns Max as a number when the column is numeric.
func (c *ColumnProfile) MaxFloat() (float64, bool) {
	f, ok := c.Max.(float64)
	return f, ok
}

// DatasetProfile is the profile of a whole table.
type DatasetProfile struct {
	RowCount int              `json:"row_count"`
	ColCount int              `json:"col_count"`
	Columns  []*ColumnProfile `json:"columns"`
}

// Column looks up a column profile by name.
func (p *DatasetProfile) Column(name string) *ColumnProfile {
	for _, c := range p.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ByDtype returns the columns of the given dtype in source order.
func (p *DatasetProfile) ByDtype(d Dtype) []*ColumnProfile {
	var out []*ColumnProfile
	for _, c := range p.Columns {
		if c.Dtype == d {
			out = append(out, c)
		}
	}
	return out
}

// Categorical returns nominal columns followed by ordinal columns.
func (p *DatasetProfile) Categorical() []*ColumnProfile {
	return append(p.ByDtype(Nominal), p.ByDtype(Ordinal)...)
}

// IsIDLike reports whether a column looks like a row identifier: its name
// contains "id" and every row has a distinct value.
func (p *DatasetProfile) IsIDLike(c *ColumnProfile) bool {
	return containsFold(c.Name, "id") && c.UniqueCount == p.RowCount
}
