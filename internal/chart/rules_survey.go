package chart

import (
	"fmt"
	"slices"
	"strings"

	"github.com/KaramelBytes/chartloom/internal/profile"
)

func checkboxRule() Rule {
	return NewRule("checkbox",
		func(in *Input) bool {
			return slices.ContainsFunc(in.Profile.Columns, func(c *profile.ColumnProfile) bool { return c.IsCheckbox })
		},
		func(in *Input) []Candidate {
			var out []Candidate
			for _, c := range in.Profile.Columns {
				if !c.IsCheckbox {
					continue
				}
				title := fmt.Sprintf("Responses for %s", c.Name)
				out = append(out, Candidate{
					ChartType:   Bar,
					XColumn:     c.Name,
					Title:       title,
					Description: fmt.Sprintf("How often each option was selected in %s", c.Name),
					Score:       0.98,
					Spec:        CheckboxSpec(c.Name, title),
				})
			}
			return out
		})
}

func likertRule() Rule {
	return NewRule("likert",
		func(in *Input) bool {
			return slices.ContainsFunc(in.Profile.Columns, func(c *profile.ColumnProfile) bool { return c.IsLikert && c.GridGroup == "" })
		},
		func(in *Input) []Candidate {
			var out []Candidate
			for _, c := range in.Profile.Columns {
				if !c.IsLikert || c.GridGroup != "" || len(c.LikertOrder) == 0 {
					continue
				}
				order := c.LikertOrder
				title := fmt.Sprintf("Responses to %s", c.Name)
				out = append(out, Candidate{
					ChartType: Bar,
					XColumn:   c.Name,
					Title:     title,
					Description: fmt.Sprintf("Ordered distribution of %s from %s to %s",
						c.Name, order[0], order[len(order)-1]),
					Score: 0.92,
					Spec:  LikertSpec(c.Name, order, isNumericScale(order), title),
				})
			}
			return out
		})
}

func isNumericScale(order []string) bool {
	for _, v := range order {
		if v == "" || strings.Trim(v, "0123456789") != "" {
			return false
		}
	}
	return len(order) > 0
}

// gridGroupRule charts every matrix question: groups found by the profiler
// plus externally supplied groups that reference at least two known columns
// and do not repeat a profiler group.
func gridGroupRule() Rule {
	return NewRule("grid_group",
		func(in *Input) bool { return len(collectGroups(in)) > 0 },
		func(in *Input) []Candidate {
			var out []Candidate
			for _, g := range collectGroups(in) {
				order := sharedOrder(in.Profile, g.Columns)
				out = append(out, Candidate{
					ChartType:   StackedBar,
					XColumn:     g.Columns[0],
					Title:       g.Name,
					Description: fmt.Sprintf("Responses across %d items of %s", len(g.Columns), g.Name),
					Score:       1.00,
					Spec:        GridSpec(g.Columns, order, g.Name),
					GroupName:   g.Name,
				})
			}
			return out
		})
}

func collectGroups(in *Input) []Group {
	var groups []Group
	index := map[string]int{}
	for _, c := range in.Profile.Columns {
		if c.GridGroup == "" {
			continue
		}
		i, ok := index[c.GridGroup]
		if !ok {
			i = len(groups)
			index[c.GridGroup] = i
			groups = append(groups, Group{Name: c.GridGroup})
		}
		groups[i].Columns = append(groups[i].Columns, c.Name)
	}
	var out []Group
	for _, g := range groups {
		if len(g.Columns) >= 2 {
			out = append(out, g)
		}
	}
	known := len(out)
	for _, g := range in.Groups {
		var cols []string
		for _, name := range g.Columns {
			if in.Profile.Column(name) != nil && !slices.Contains(cols, name) {
				cols = append(cols, name)
			}
		}
		if len(cols) < 2 || strings.TrimSpace(g.Name) == "" {
			continue
		}
		dup := false
		for _, k := range out[:known] {
			if sameColumns(k.Columns, cols) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, Group{Name: g.Name, Columns: cols})
		}
	}
	return out
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, v := range a {
		if !slices.Contains(b, v) {
			return false
		}
	}
	return true
}

// sharedOrder returns the Likert order common to all columns, or nil.
func sharedOrder(p *profile.DatasetProfile, cols []string) []string {
	var order []string
	for _, name := range cols {
		c := p.Column(name)
		if c == nil || !c.IsLikert {
			return nil
		}
		if order == nil {
			order = c.LikertOrder
			continue
		}
		if !slices.Equal(order, c.LikertOrder) {
			return nil
		}
	}
	return order
}
