package chart

import (
	"fmt"
	"strings"
)

const (
	schemaURL   = "https://vega.github.io/schema/vega-lite/v6.json"
	fontFamily  = "Inter, sans-serif"
	accentColor = "#2563eb"
	maxTitleLen = 60
)

// SpecOptions describes one chart to render.
type SpecOptions struct {
	Type  ChartType
	X     string
	Y     string
	Color string
	Title string
	// XType and YType are Vega-Lite measurement types; empty means nominal
	// and quantitative.
	XType string
	YType string
	// Aggregate applies sum, mean, min or max to Y in bar charts.
	Aggregate string
}

var fieldEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `.`, `\.`, `[`, `\[`, `]`, `\]`)

// SanitizeFieldName makes a column name safe as a Vega-Lite field reference:
// line breaks become spaces, whitespace collapses, and backslashes, quotes,
// dots and brackets are escaped so they are not read as path syntax.
func SanitizeFieldName(field string) string {
	if field == "" {
		return field
	}
	s := strings.NewReplacer("\n", " ", "\r", " ").Replace(field)
	s = strings.Join(strings.Fields(s), " ")
	return fieldEscaper.Replace(s)
}

// displayTitle shortens long titles to 57 characters plus an ellipsis.
func displayTitle(title string) string {
	r := []rune(title)
	if len(r) <= maxTitleLen {
		return title
	}
	return string(r[:maxTitleLen-3]) + "..."
}

func baseSpec(title string) Spec {
	return Spec{
		"$schema": schemaURL,
		"title": map[string]any{
			"text":       displayTitle(title),
			"fontSize":   18,
			"anchor":     "start",
			"font":       fontFamily,
			"fontWeight": 600,
			"color":      "#111827",
			"limit":      500,
		},
		"width":  "container",
		"height": 400,
		"config": map[string]any{
			"font": fontFamily,
			"axis": map[string]any{
				"labelFontSize":   11,
				"titleFontSize":   13,
				"titleFontWeight": 500,
				"titleColor":      "#6b7280",
				"labelColor":      "#6b7280",
				"grid":            true,
				"gridColor":       "#f3f4f6",
				"gridDash":        []int{4, 4},
				"labelLimit":      120,
				"titleLimit":      200,
				"labelOverlap":    "parity",
				"domain":          false,
				"tickColor":       "#e5e7eb",
			},
			"view": map[string]any{"stroke": "transparent"},
		},
		"data": map[string]any{"name": "table"},
	}
}

func field(name, typ string) map[string]any {
	return map[string]any{"field": name, "type": typ}
}

func countDef() map[string]any {
	return map[string]any{"aggregate": "count", "title": "Count"}
}

func hoverOpacity() map[string]any {
	return map[string]any{
		"condition": map[string]any{"param": "hover", "value": 1},
		"value":     0,
	}
}

// BuildSpec renders a Vega-Lite specification in the house style.
func BuildSpec(o SpecOptions) Spec {
	x := SanitizeFieldName(o.X)
	y := SanitizeFieldName(o.Y)
	color := SanitizeFieldName(o.Color)
	xType, yType := o.XType, o.YType
	if xType == "" {
		xType = "nominal"
	}
	if yType == "" {
		yType = "quantitative"
	}

	spec := baseSpec(o.Title)
	var enc map[string]any

	switch o.Type {
	case Area:
		spec["layer"] = areaLayers(x, y, xType, yType)
	case Line:
		spec["mark"] = map[string]any{"type": "line", "color": accentColor, "strokeWidth": 3, "point": true}
		enc = map[string]any{
			"x":       field(x, xType),
			"y":       field(y, yType),
			"tooltip": []any{field(x, xType), map[string]any{"field": y, "type": yType, "format": ","}},
		}
		if y == "" {
			enc["y"] = countDef()
			enc["tooltip"] = []any{field(x, xType), countDef()}
		}
	case Bar:
		spec["mark"] = map[string]any{
			"type":            "bar",
			"cornerRadiusEnd": 6,
			"color":           accentColor,
			"width":           map[string]any{"band": 0.6},
		}
		enc = barEncoding(x, y, xType, yType, o.Aggregate)
	case Donut:
		spec["mark"] = map[string]any{"type": "arc", "innerRadius": 50, "outerRadius": 100}
		enc = map[string]any{
			"theta": map[string]any{"aggregate": "count", "stack": true},
			"color": map[string]any{
				"field":  x,
				"type":   "nominal",
				"legend": map[string]any{"title": nil, "orient": "right"},
				"scale":  map[string]any{"scheme": "category10"},
			},
			"order": map[string]any{"aggregate": "count", "sort": "descending"},
			"tooltip": []any{
				field(x, "nominal"),
				map[string]any{"aggregate": "count", "title": "Count", "format": ","},
			},
		}
	case Scatter:
		spec["mark"] = map[string]any{"type": "circle", "size": 80, "opacity": 0.6, "color": accentColor}
		tooltip := []any{field(x, xType)}
		enc = map[string]any{"x": field(x, xType)}
		if y != "" {
			enc["y"] = field(y, yType)
			tooltip = append(tooltip, map[string]any{"field": y, "type": yType, "format": ","})
		}
		enc["tooltip"] = tooltip
	case Histogram:
		spec["mark"] = map[string]any{"type": "bar", "color": accentColor, "cornerRadiusEnd": 4}
		enc = map[string]any{
			"x": map[string]any{"field": x, "bin": map[string]any{"maxbins": 20}, "title": x},
			"y": map[string]any{"aggregate": "count", "title": "Frequency"},
			"tooltip": []any{
				map[string]any{"field": x, "bin": true, "title": x},
				countDef(),
			},
		}
	case StackedBar:
		spec["mark"] = map[string]any{"type": "bar", "cornerRadiusEnd": 4}
		colorField := color
		if colorField == "" {
			colorField = x
		}
		enc = map[string]any{
			"x": map[string]any{"field": x, "type": xType, "axis": map[string]any{"labelAngle": 0}},
			"color": map[string]any{
				"field":  colorField,
				"type":   "nominal",
				"scale":  map[string]any{"scheme": "tableau10"},
				"legend": map[string]any{"title": nil, "orient": "top"},
			},
		}
		tooltip := []any{field(x, xType), field(colorField, "nominal")}
		if y != "" {
			enc["y"] = field(y, yType)
			tooltip = append(tooltip, map[string]any{"field": y, "type": yType, "format": ","})
		} else {
			enc["y"] = countDef()
			tooltip = append(tooltip, countDef())
		}
		enc["tooltip"] = tooltip
	case Heatmap:
		spec["mark"] = map[string]any{"type": "rect"}
		second := field(x, xType)
		if y != "" {
			second = field(y, yType)
		}
		enc = map[string]any{
			"x": map[string]any{"field": x, "type": xType, "axis": map[string]any{"labelAngle": 0}},
			"y": second,
			"color": map[string]any{
				"aggregate": "count",
				"scale":     map[string]any{"scheme": "blues"},
				"legend":    map[string]any{"title": "Count"},
			},
			"tooltip": []any{field(x, xType), second, countDef()},
		}
	case Tick:
		spec["mark"] = map[string]any{"type": "tick", "color": "#ef4444", "thickness": 2, "size": 25}
		enc = map[string]any{
			"x":       map[string]any{"field": x, "type": xType, "axis": map[string]any{"title": x}},
			"tooltip": []any{field(x, xType)},
		}
	}

	if enc != nil {
		if color != "" && o.Type != StackedBar && o.Type != Heatmap && o.Type != Donut {
			enc["color"] = map[string]any{
				"field":  color,
				"legend": map[string]any{"title": nil, "orient": "top"},
				"scale":  map[string]any{"scheme": "tableau10"},
			}
		}
		spec["encoding"] = enc
	}
	if o.Type == Scatter {
		spec["params"] = []any{zoomParam()}
	}
	return spec
}

func zoomParam() map[string]any {
	return map[string]any{"name": "zoom", "select": "interval", "bind": "scales"}
}

func areaLayers(x, y, xType, yType string) []any {
	yField, yTitle := y, y
	yDef := field(y, yType)
	if y == "" {
		yField, yTitle = "count", "Count"
		yDef = countDef()
	}
	return []any{
		map[string]any{
			"mark": map[string]any{
				"type": "area",
				"line": map[string]any{"color": accentColor, "strokeWidth": 3},
				"color": map[string]any{
					"x1": 1, "y1": 1, "x2": 1, "y2": 0,
					"gradient": "linear",
					"stops": []any{
						map[string]any{"offset": 0, "color": "white"},
						map[string]any{"offset": 1, "color": accentColor},
					},
				},
				"opacity": 0.2,
			},
			"encoding": map[string]any{
				"x": map[string]any{"field": x, "type": xType, "axis": map[string]any{"labelAngle": 0, "grid": false}},
				"y": yDef,
			},
		},
		map[string]any{
			"mark": map[string]any{"type": "circle", "size": 60, "color": accentColor, "filled": true},
			"encoding": map[string]any{
				"x":       field(x, xType),
				"y":       yDef,
				"opacity": hoverOpacity(),
				"tooltip": []any{
					field(x, xType),
					map[string]any{"field": yField, "type": "quantitative", "format": ",", "title": yTitle},
				},
			},
		},
		map[string]any{
			"mark": map[string]any{"type": "rule", "color": "#9ca3af", "strokeWidth": 1, "strokeDash": []int{4, 4}},
			"encoding": map[string]any{
				"x":       field(x, xType),
				"y":       yDef,
				"opacity": hoverOpacity(),
			},
		},
		map[string]any{
			"mark": map[string]any{"type": "bar", "opacity": 0},
			"encoding": map[string]any{
				"x": field(x, xType),
				"y": yDef,
			},
			"params": []any{map[string]any{
				"name":   "hover",
				"select": map[string]any{"type": "point", "on": "mouseover", "nearest": true, "clear": "mouseout"},
			}},
		},
	}
}

func barEncoding(x, y, xType, yType, agg string) map[string]any {
	switch {
	case y == "":
		return map[string]any{
			"x": map[string]any{
				"field": x, "type": xType, "sort": "-y",
				"axis": map[string]any{"labelAngle": -45, "labelLimit": 100},
			},
			"y": countDef(),
			"tooltip": []any{
				field(x, xType),
				map[string]any{"aggregate": "count", "title": "Count", "format": ","},
			},
		}
	case agg != "":
		title := fmt.Sprintf("%s of %s", strings.ToUpper(agg), y)
		return map[string]any{
			"x": map[string]any{"field": x, "type": xType, "axis": map[string]any{"labelAngle": 0}, "sort": "-y"},
			"y": map[string]any{"field": y, "aggregate": agg, "title": title, "type": "quantitative"},
			"tooltip": []any{
				field(x, xType),
				map[string]any{"field": y, "aggregate": agg, "title": title, "format": ","},
			},
		}
	default:
		return map[string]any{
			"x": map[string]any{"field": x, "type": xType, "axis": map[string]any{"labelAngle": 0}},
			"y": field(y, yType),
			"tooltip": []any{
				field(x, xType),
				map[string]any{"field": y, "type": yType, "format": ","},
			},
		}
	}
}

// CorrelationMatrixSpec renders a repeated scatter matrix over at most five
// numeric columns.
func CorrelationMatrixSpec(columns []string, title string) Spec {
	if len(columns) > 5 {
		columns = columns[:5]
	}
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = SanitizeFieldName(c)
	}
	axis := map[string]any{"titleFontSize": 10, "labelFontSize": 8}
	return Spec{
		"$schema": schemaURL,
		"title": map[string]any{
			"text":       title,
			"fontSize":   18,
			"anchor":     "start",
			"font":       fontFamily,
			"fontWeight": 600,
			"color":      "#111827",
		},
		"data":   map[string]any{"name": "table"},
		"repeat": map[string]any{"row": cols, "column": cols},
		"spec": map[string]any{
			"width":  120,
			"height": 120,
			"mark":   map[string]any{"type": "circle", "size": 10, "opacity": 0.5, "color": accentColor},
			"encoding": map[string]any{
				"x": map[string]any{
					"field": map[string]any{"repeat": "column"}, "type": "quantitative",
					"scale": map[string]any{"zero": false}, "axis": axis,
				},
				"y": map[string]any{
					"field": map[string]any{"repeat": "row"}, "type": "quantitative",
					"scale": map[string]any{"zero": false}, "axis": axis,
				},
				"tooltip": []any{
					map[string]any{"field": map[string]any{"repeat": "column"}, "type": "quantitative"},
					map[string]any{"field": map[string]any{"repeat": "row"}, "type": "quantitative"},
				},
			},
			"params": []any{zoomParam()},
		},
		"config": map[string]any{
			"font": fontFamily,
			"axis": map[string]any{"grid": true, "gridColor": "#f3f4f6", "domain": false},
			"view": map[string]any{"stroke": "transparent"},
		},
	}
}
