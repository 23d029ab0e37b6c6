package chart

import "encoding/json"

// ChartType names a rendering family.
type ChartType string

const (
	Bar               ChartType = "bar"
	Line              ChartType = "line"
	Area              ChartType = "area"
	Scatter           ChartType = "scatter"
	Histogram         ChartType = "histogram"
	Donut             ChartType = "donut"
	Heatmap           ChartType = "heatmap"
	StackedBar        ChartType = "stacked_bar"
	CorrelationMatrix ChartType = "correlation_matrix"
	Tick              ChartType = "tick"
	Table             ChartType = "table"
)

// Spec is a Vega-Lite specification as a JSON object.
type Spec = map[string]any

// Candidate is one recommended chart. Score is a heuristic ranking weight in
// [0,1], not a probability.
type Candidate struct {
	ChartType   ChartType `json:"chart_type"`
	XColumn     string    `json:"x_column"`
	YColumn     string    `json:"y_column"`
	ColorColumn string    `json:"color_column"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Score       float64   `json:"score"`
	Spec        Spec      `json:"spec"`
	GroupName   string    `json:"group_name,omitempty"`
}

// MarshalJSON writes empty y and color columns as null.
func (c Candidate) MarshalJSON() ([]byte, error) {
	type plain Candidate
	return json.Marshal(struct {
		plain
		YColumn     *string `json:"y_column"`
		ColorColumn *string `json:"color_column"`
	}{plain(c), optional(c.YColumn), optional(c.ColorColumn)})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Group is a set of columns answered on one shared scale, for example the
// rows of a survey matrix question.
type Group struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}
