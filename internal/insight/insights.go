// Package insight turns a profiled table into short natural-language
// findings: headline insights, one "surprise" discovery, a story outline and
// rule-based cleaning suggestions.
package insight

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/chartloom/internal/dataset"
	"github.com/KaramelBytes/chartloom/internal/profile"
)

// MaxInsights caps Generate.
const MaxInsights = 3

// roles resolves profile columns against the table they describe.
type roles struct {
	temporal    []*dataset.Column
	numeric     []*dataset.Column
	categorical []*dataset.Column
}

func resolve(t *dataset.Table, p *profile.DatasetProfile) roles {
	var r roles
	for _, pc := range p.Columns {
		c := t.Column(pc.Name)
		if c == nil {
			continue
		}
		switch {
		case pc.Dtype == profile.Temporal:
			r.temporal = append(r.temporal, c)
		case pc.Dtype == profile.Numeric && c.Kind.IsNumeric():
			r.numeric = append(r.numeric, c)
		}
	}
	for _, pc := range p.Categorical() {
		if c := t.Column(pc.Name); c != nil {
			r.categorical = append(r.categorical, c)
		}
	}
	return r
}

// Generate returns up to three insights, or a size summary when nothing
// stands out.
func Generate(t *dataset.Table, p *profile.DatasetProfile) []string {
	r := resolve(t, p)
	var out []string
	add := func(s string) {
		if s != "" {
			out = append(out, s)
		}
	}

	if len(r.temporal) > 0 && len(r.numeric) > 0 {
		add(trendInsight(r.temporal[0], r.numeric[0]))
	}
	for _, c := range r.numeric[:min(2, len(r.numeric))] {
		add(outlierInsight(c))
	}
	if len(r.categorical) > 0 && len(r.numeric) > 0 {
		add(leaderInsight(r.categorical[0], r.numeric[0]))
	}
	add(missingInsight(p))
	if len(r.numeric) > 0 {
		add(variabilityInsight(r.numeric[0]))
	}

	if len(out) == 0 {
		out = append(out, fmt.Sprintf("📊 Analyzed %d rows and %d columns", p.RowCount, p.ColCount))
	}
	if len(out) > MaxInsights {
		out = out[:MaxInsights]
	}
	return out
}

// trendInsight compares the first and last values in time order. Changes
// under 5% count as stable.
func trendInsight(tc, nc *dataset.Column) string {
	pts := timeSeries(tc, nc)
	if len(pts) < 2 {
		return ""
	}
	first, last := pts[0].value, pts[len(pts)-1].value
	if first == 0 {
		return ""
	}
	pct := (last - first) / math.Abs(first) * 100
	switch {
	case math.Abs(pct) < 5:
		return fmt.Sprintf("➡️ %s remained relatively stable around %.1f", nc.Name, first)
	case pct > 0:
		return fmt.Sprintf("📈 %s grew %.1f%% from %.1f to %.1f", nc.Name, math.Abs(pct), first, last)
	default:
		return fmt.Sprintf("📉 %s decreased %.1f%% from %.1f to %.1f", nc.Name, math.Abs(pct), first, last)
	}
}

// outlierInsight counts values outside 1.5 IQR of the quartiles.
func outlierInsight(c *dataset.Column) string {
	vals := c.Numbers()
	if len(vals) <= 4 {
		return ""
	}
	sorted := sortedCopy(vals)
	q1, q3 := quantile(sorted, 0.25), quantile(sorted, 0.75)
	iqr := q3 - q1
	if iqr == 0 {
		return ""
	}
	lo, hi := q1-1.5*iqr, q3+1.5*iqr
	n := 0
	for _, v := range vals {
		if v < lo || v > hi {
			n++
		}
	}
	if n == 0 {
		return ""
	}
	pct := float64(n) / float64(len(vals)) * 100
	return fmt.Sprintf("⚠️ Found %d unusual values in %s (%.1f%% of data), worth investigating", n, c.Name, pct)
}

// leaderInsight reports a category whose mean is more than 1.5x the next.
func leaderInsight(cat, num *dataset.Column) string {
	groups := groupMeans(cat, num)
	if len(groups) < 2 {
		return ""
	}
	top, second := groups[0], groups[1]
	if top.mean <= 0 {
		return ""
	}
	if second.mean <= 0 {
		return fmt.Sprintf("🏆 %s leads with %s of %.1f, ahead of %s", top.key, num.Name, top.mean, second.key)
	}
	ratio := top.mean / second.mean
	if ratio <= 1.5 {
		return ""
	}
	return fmt.Sprintf("🏆 %s leads with %s of %.1f, %.1fx higher than %s", top.key, num.Name, top.mean, ratio, second.key)
}

func missingInsight(p *profile.DatasetProfile) string {
	cells := p.RowCount * p.ColCount
	nulls := 0
	for _, c := range p.Columns {
		nulls += c.NullCount
	}
	if nulls == 0 || cells == 0 {
		return ""
	}
	pct := float64(nulls) / float64(cells) * 100
	if pct <= 5 {
		return ""
	}
	return fmt.Sprintf("ℹ️ Dataset contains %d missing values (%.1f%%), consider data cleaning", nulls, pct)
}

// variabilityInsight flags a coefficient of variation above 1.
func variabilityInsight(c *dataset.Column) string {
	vals := c.Numbers()
	if len(vals) <= 10 {
		return ""
	}
	mean, std := meanStd(vals)
	if mean == 0 {
		return ""
	}
	cv := std / mean
	if cv <= 1 {
		return ""
	}
	return fmt.Sprintf("📊 %s shows high variability (coefficient of variation: %.2f)", c.Name, cv)
}
