package chart

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// CheckboxSpec renders a horizontal bar of how often each option of a
// comma-joined multi-select column was picked.
func CheckboxSpec(column, title string) Spec {
	f := SanitizeFieldName(column)
	spec := baseSpec(title)
	spec["transform"] = []any{
		map[string]any{"calculate": fmt.Sprintf("split(datum['%s'], ',')", f), "as": "option"},
		map[string]any{"flatten": []string{"option"}},
		map[string]any{"calculate": "trim(datum.option)", "as": "option"},
		map[string]any{"filter": "datum.option != null && datum.option != ''"},
	}
	spec["mark"] = map[string]any{"type": "bar", "cornerRadiusEnd": 6, "color": accentColor}
	spec["encoding"] = map[string]any{
		"y": map[string]any{
			"field": "option", "type": "nominal", "sort": "-x", "title": nil,
			"axis": map[string]any{"labelLimit": 200},
		},
		"x": map[string]any{"aggregate": "count", "title": "Responses"},
		"tooltip": []any{
			map[string]any{"field": "option", "type": "nominal", "title": "Option"},
			map[string]any{"aggregate": "count", "title": "Count", "format": ","},
		},
	}
	return spec
}

// LikertSpec renders an ordered bar for one scale question. Numeric scales
// are shaded with a sequential gradient.
func LikertSpec(column string, order []string, numericScale bool, title string) Spec {
	f := SanitizeFieldName(column)
	spec := baseSpec(title)
	sortValues := scaleValues(order, numericScale)
	mark := map[string]any{"type": "bar", "cornerRadiusEnd": 6, "width": map[string]any{"band": 0.6}}
	enc := map[string]any{
		"x": map[string]any{
			"field": f, "type": "ordinal", "sort": sortValues, "title": column,
			"axis": map[string]any{"labelAngle": 0, "labelLimit": 120},
		},
		"y": map[string]any{"aggregate": "count", "title": "Responses"},
		"tooltip": []any{
			field(f, "ordinal"),
			map[string]any{"aggregate": "count", "title": "Count", "format": ","},
		},
	}
	if numericScale {
		enc["color"] = map[string]any{
			"field": f, "type": "ordinal", "sort": sortValues,
			"scale":  map[string]any{"scheme": "blues"},
			"legend": nil,
		}
	} else {
		mark["color"] = accentColor
	}
	spec["mark"] = mark
	spec["encoding"] = enc
	return spec
}

// GridSpec folds the columns of a matrix question into one normalized
// stacked bar per item, colored by response. When order is given the
// responses are stacked and colored in scale order.
func GridSpec(columns []string, order []string, title string) Spec {
	fields := make([]string, len(columns))
	for i, c := range columns {
		fields[i] = SanitizeFieldName(c)
	}
	spec := baseSpec(title)
	transform := []any{
		map[string]any{"fold": fields, "as": []string{"question", "response"}},
		map[string]any{"filter": "datum.response != null && datum.response !== ''"},
	}
	color := map[string]any{
		"field":  "response",
		"type":   "nominal",
		"scale":  map[string]any{"scheme": "tableau10"},
		"legend": map[string]any{"title": nil, "orient": "top"},
	}
	enc := map[string]any{
		"y": map[string]any{
			"field": "question", "type": "nominal", "title": nil,
			"axis": map[string]any{"labelLimit": 200},
		},
		"x": map[string]any{
			"aggregate": "count", "stack": "normalize", "title": "Share of responses",
			"axis": map[string]any{"format": "%"},
		},
		"color": color,
		"tooltip": []any{
			map[string]any{"field": "question", "type": "nominal", "title": "Item"},
			map[string]any{"field": "response", "type": "nominal", "title": "Response"},
			map[string]any{"aggregate": "count", "title": "Count", "format": ","},
		},
	}
	if len(order) > 0 {
		quoted, _ := json.Marshal(order)
		transform = append(transform, map[string]any{
			"calculate": fmt.Sprintf("indexof(%s, '' + datum.response)", quoted),
			"as":        "response_rank",
		})
		color["sort"] = scaleValues(order, isNumericScale(order))
		color["scale"] = map[string]any{"scheme": "redyellowgreen"}
		enc["order"] = map[string]any{"field": "response_rank", "type": "quantitative"}
	}
	spec["transform"] = transform
	spec["mark"] = map[string]any{"type": "bar", "cornerRadiusEnd": 4}
	spec["encoding"] = enc
	return spec
}

// scaleValues returns numeric sort values for numeric scales so they match
// the numbers in the data.
func scaleValues(order []string, numeric bool) []any {
	out := make([]any, len(order))
	for i, v := range order {
		out[i] = v
		if numeric {
			if n, err := strconv.Atoi(v); err == nil {
				out[i] = n
			}
		}
	}
	return out
}
