package chart

import (
	"fmt"

	"github.com/KaramelBytes/chartloom/internal/profile"
)

func names(cols []*profile.ColumnProfile) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

func timeValueRule() Rule {
	return NewRule("time_value",
		func(in *Input) bool { r := in.role(); return len(r.temporal) > 0 && len(r.numeric) > 0 },
		func(in *Input) []Candidate {
			var out []Candidate
			r := in.role()
			for _, t := range r.temporal {
				for _, n := range r.numeric {
					title := fmt.Sprintf("%s over Time", n.Name)
					out = append(out, Candidate{
						ChartType:   Area,
						XColumn:     t.Name,
						YColumn:     n.Name,
						Title:       title,
						Description: fmt.Sprintf("Trend of %s over %s", n.Name, t.Name),
						Score:       0.95,
						Spec:        BuildSpec(SpecOptions{Type: Area, X: t.Name, Y: n.Name, Title: title, XType: "temporal"}),
					})
				}
			}
			return out
		})
}

func categoryValueRule() Rule {
	return NewRule("category_value",
		func(in *Input) bool { r := in.role(); return len(r.categorical) > 0 && len(r.numeric) > 0 },
		func(in *Input) []Candidate {
			var out []Candidate
			r := in.role()
			for _, c := range r.categorical {
				if c.UniqueCount > 20 {
					continue
				}
				for _, n := range r.numeric {
					variants := []struct {
						agg, title, desc string
						score            float64
					}{
						{"", "%[1]s by %[2]s", "Comparison of %[1]s across %[2]s", 0.85},
						{"sum", "Total %[1]s by %[2]s", "Sum of %[1]s for each %[2]s", 0.82},
						{"mean", "Average %[1]s by %[2]s", "Average of %[1]s for each %[2]s", 0.80},
					}
					for _, v := range variants {
						title := fmt.Sprintf(v.title, n.Name, c.Name)
						out = append(out, Candidate{
							ChartType:   Bar,
							XColumn:     c.Name,
							YColumn:     n.Name,
							Title:       title,
							Description: fmt.Sprintf(v.desc, n.Name, c.Name),
							Score:       v.score,
							Spec:        BuildSpec(SpecOptions{Type: Bar, X: c.Name, Y: n.Name, Title: title, Aggregate: v.agg}),
						})
					}
				}
			}
			return out
		})
}

func scatterRule() Rule {
	return NewRule("scatter",
		func(in *Input) bool { return len(in.role().numeric) >= 2 },
		func(in *Input) []Candidate {
			var out []Candidate
			nums := in.role().numeric
			for i := 0; i < len(nums); i++ {
				for j := i + 1; j < len(nums); j++ {
					a, b := nums[i].Name, nums[j].Name
					title := fmt.Sprintf("%s vs %s", a, b)
					out = append(out, Candidate{
						ChartType:   Scatter,
						XColumn:     a,
						YColumn:     b,
						Title:       title,
						Description: fmt.Sprintf("Correlation between %s and %s", a, b),
						Score:       0.70,
						Spec: BuildSpec(SpecOptions{
							Type: Scatter, X: a, Y: b, Title: title,
							XType: "quantitative", YType: "quantitative",
						}),
					})
				}
			}
			return out
		})
}

func histogramRule() Rule {
	return NewRule("histogram",
		func(in *Input) bool { return len(in.role().numeric) > 0 },
		func(in *Input) []Candidate {
			var out []Candidate
			for _, n := range in.role().numeric {
				title := fmt.Sprintf("Distribution of %s", n.Name)
				out = append(out, Candidate{
					ChartType:   Histogram,
					XColumn:     n.Name,
					Title:       title,
					Description: fmt.Sprintf("Frequency distribution of %s", n.Name),
					Score:       0.60,
					Spec:        BuildSpec(SpecOptions{Type: Histogram, X: n.Name, Title: title, XType: "quantitative"}),
				})
			}
			return out
		})
}

// categoryCountRule emits a donut for small categoricals and a count bar for
// every categorical.
func categoryCountRule() Rule {
	return NewRule("category_count",
		func(in *Input) bool { return len(in.role().categorical) > 0 },
		func(in *Input) []Candidate {
			var out []Candidate
			for _, c := range in.role().categorical {
				title := fmt.Sprintf("Distribution of %s", c.Name)
				if c.UniqueCount <= 5 {
					out = append(out, Candidate{
						ChartType:   Donut,
						XColumn:     c.Name,
						Title:       title,
						Description: fmt.Sprintf("Proportion of %s", c.Name),
						Score:       0.80,
						Spec:        BuildSpec(SpecOptions{Type: Donut, X: c.Name, Title: title}),
					})
				}
				score := 0.75
				if c.UniqueCount > 20 {
					score = 0.70
				}
				title = fmt.Sprintf("Count by %s", c.Name)
				out = append(out, Candidate{
					ChartType:   Bar,
					XColumn:     c.Name,
					Title:       title,
					Description: fmt.Sprintf("Frequency of %s", c.Name),
					Score:       score,
					Spec:        BuildSpec(SpecOptions{Type: Bar, X: c.Name, Title: title}),
				})
			}
			return out
		})
}

func temporalCountRule() Rule {
	return NewRule("temporal_count",
		func(in *Input) bool { return len(in.role().temporal) > 0 },
		func(in *Input) []Candidate {
			var out []Candidate
			for _, t := range in.role().temporal {
				title := fmt.Sprintf("Responses over %s", t.Name)
				out = append(out, Candidate{
					ChartType:   Area,
					XColumn:     t.Name,
					Title:       title,
					Description: "Volume of records over time",
					Score:       0.70,
					Spec:        BuildSpec(SpecOptions{Type: Area, X: t.Name, Title: title, XType: "temporal"}),
				})
			}
			return out
		})
}

// heatmapRule cross-tabulates the first three categoricals against the
// first four.
func heatmapRule() Rule {
	return NewRule("heatmap",
		func(in *Input) bool { return len(in.role().categorical) >= 2 },
		func(in *Input) []Candidate {
			var out []Candidate
			cats := in.role().categorical
			for i := 0; i < min(3, len(cats)); i++ {
				a := cats[i]
				if a.UniqueCount > 15 {
					continue
				}
				for j := i + 1; j < min(4, len(cats)); j++ {
					b := cats[j]
					if b.UniqueCount > 15 {
						continue
					}
					title := fmt.Sprintf("%s vs %s", a.Name, b.Name)
					out = append(out, Candidate{
						ChartType:   Heatmap,
						XColumn:     a.Name,
						YColumn:     b.Name,
						Title:       title,
						Description: fmt.Sprintf("Cross-tabulation of %s and %s", a.Name, b.Name),
						Score:       0.65,
						Spec: BuildSpec(SpecOptions{
							Type: Heatmap, X: a.Name, Y: b.Name, Title: title, YType: "nominal",
						}),
					})
				}
			}
			return out
		})
}

func stackedBarRule() Rule {
	return NewRule("stacked_bar",
		func(in *Input) bool { r := in.role(); return len(r.categorical) >= 2 && len(r.numeric) > 0 },
		func(in *Input) []Candidate {
			r := in.role()
			a, b, n := r.categorical[0], r.categorical[1], r.numeric[0]
			if a.UniqueCount > 10 || b.UniqueCount > 10 {
				return nil
			}
			return []Candidate{{
				ChartType:   StackedBar,
				XColumn:     a.Name,
				YColumn:     n.Name,
				ColorColumn: b.Name,
				Title:       fmt.Sprintf("%s by %s", n.Name, a.Name),
				Description: fmt.Sprintf("Grouped comparison of %s", n.Name),
				Score:       0.72,
				Spec: BuildSpec(SpecOptions{
					Type: StackedBar, X: a.Name, Y: n.Name, Color: b.Name,
					Title: fmt.Sprintf("%s by %s (grouped by %s)", n.Name, a.Name, b.Name),
				}),
			}}
		})
}

func correlationMatrixRule() Rule {
	return NewRule("correlation_matrix",
		func(in *Input) bool { return len(in.role().numeric) >= 3 },
		func(in *Input) []Candidate {
			cols := names(in.role().numeric)
			if len(cols) > 5 {
				cols = cols[:5]
			}
			return []Candidate{{
				ChartType:   CorrelationMatrix,
				XColumn:     cols[0],
				YColumn:     cols[1],
				Title:       "Correlation Matrix",
				Description: fmt.Sprintf("Scatter plot matrix of %d numeric variables", len(cols)),
				Score:       0.68,
				Spec:        CorrelationMatrixSpec(cols, "Correlation Matrix"),
			}}
		})
}
