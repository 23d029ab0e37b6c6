package insight

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/KaramelBytes/chartloom/internal/chart"
	"github.com/KaramelBytes/chartloom/internal/dataset"
	"github.com/KaramelBytes/chartloom/internal/profile"
)

// Discovery kinds, in the order Discover prefers them.
const (
	KindCorrelation = "correlation"
	KindSeasonal    = "seasonal"
	KindGrowth      = "growth"
	KindClustering  = "clustering"
	KindAnomaly     = "anomaly"
	KindLeader      = "leader"
)

// Discovery is one unexpected pattern with a chart that shows it.
type Discovery struct {
	Kind        string          `json:"kind"`
	Insight     string          `json:"insight"`
	ChartType   chart.ChartType `json:"chart_type"`
	XColumn     string          `json:"x_column"`
	YColumn     string          `json:"y_column,omitempty"`
	Correlation *float64        `json:"correlation,omitempty"`
	Spec        chart.Spec      `json:"spec"`
}

// Anomaly describes the most unusual row for an explainer.
type Anomaly struct {
	Column string
	Value  float64
	Mean   float64
	StdDev float64
	Row    map[string]any
}

// Options tunes Discover. Both fields are optional.
type Options struct {
	Logger *slog.Logger
	// Explain returns a short explanation for an anomaly, or "".
	Explain func(Anomaly) string
}

type finder struct {
	kind string
	find func(t *dataset.Table, r roles, opt Options) *Discovery
}

var finders = []finder{
	{KindCorrelation, findCorrelation},
	{KindSeasonal, findSeasonal},
	{KindGrowth, findGrowth},
	{KindClustering, findClustering},
	{KindAnomaly, findAnomaly},
	{KindLeader, findLeader},
}

// Discover returns the highest-priority discovery, or nil.
func Discover(t *dataset.Table, p *profile.DatasetProfile, opt Options) *Discovery {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	r := resolve(t, p)
	for _, f := range finders {
		if d := safeFind(f, t, r, opt); d != nil {
			d.Kind = f.kind
			return d
		}
	}
	return nil
}

func safeFind(f finder, t *dataset.Table, r roles, opt Options) (d *Discovery) {
	defer func() {
		if rec := recover(); rec != nil {
			opt.Logger.Debug("surprise finder failed", "kind", f.kind, "error", fmt.Sprint(rec))
			d = nil
		}
	}()
	return f.find(t, r, opt)
}

// findCorrelation picks the strongest numeric pair with |r| > 0.7.
func findCorrelation(_ *dataset.Table, r roles, _ Options) *Discovery {
	var bestA, bestB *dataset.Column
	best := 0.0
	for i, a := range r.numeric {
		for _, b := range r.numeric[i+1:] {
			v, n, ok := correlate(a, b)
			if !ok || n < 3 || math.Abs(v) <= 0.7 {
				continue
			}
			if bestA == nil || math.Abs(v) > math.Abs(best) {
				bestA, bestB, best = a, b, v
			}
		}
	}
	if bestA == nil {
		return nil
	}
	x, y := bestA.Name, bestB.Name
	var msg string
	switch {
	case best > 0.8:
		msg = fmt.Sprintf("🎯 Strong positive correlation (%.2f) between %s and %s: they move together!", best, x, y)
	case best < -0.8:
		msg = fmt.Sprintf("🎯 Strong negative correlation (%.2f) between %s and %s: when one goes up, the other goes down!", math.Abs(best), x, y)
	default:
		msg = fmt.Sprintf("🔗 Interesting correlation (%.2f) between %s and %s", best, x, y)
	}
	return &Discovery{
		Insight:     msg,
		ChartType:   chart.Scatter,
		XColumn:     x,
		YColumn:     y,
		Correlation: &best,
		Spec: chart.BuildSpec(chart.SpecOptions{
			Type: chart.Scatter, X: x, Y: y,
			Title: fmt.Sprintf("%s vs %s (Correlation: %.2f)", x, y, best),
			XType: "quantitative", YType: "quantitative",
		}),
	}
}

func lineSpec(x, y, title string) chart.Spec {
	return chart.BuildSpec(chart.SpecOptions{Type: chart.Line, X: x, Y: y, Title: title, XType: "temporal", YType: "quantitative"})
}

// findGrowth looks for a period-over-period jump above 50%.
func findGrowth(_ *dataset.Table, r roles, _ Options) *Discovery {
	if len(r.temporal) == 0 || len(r.numeric) == 0 {
		return nil
	}
	tc, nc := r.temporal[0], r.numeric[0]
	pts := timeSeries(tc, nc)
	if len(pts) < 3 {
		return nil
	}
	changes, best := 0, 0
	jump := math.Inf(-1)
	for i := 1; i < len(pts); i++ {
		prev := pts[i-1].value
		if prev == 0 {
			continue
		}
		changes++
		if c := (pts[i].value - prev) / prev; c > jump {
			jump, best = c, i
		}
	}
	if changes < 2 || jump <= 0.5 {
		return nil
	}
	return &Discovery{
		Insight: fmt.Sprintf("🚀 Surprising spike: %s jumped %.0f%% on %s. What happened?",
			nc.Name, jump*100, pts[best].at.Format("2006-01-02")),
		ChartType: chart.Line,
		XColumn:   tc.Name,
		YColumn:   nc.Name,
		Spec:      lineSpec(tc.Name, nc.Name, nc.Name+" Growth Pattern"),
	}
}

// findLeader finds a category among the top three by mean that beats the
// average of group means by 20% on fewer records than the median group.
func findLeader(_ *dataset.Table, r roles, _ Options) *Discovery {
	if len(r.categorical) == 0 || len(r.numeric) == 0 {
		return nil
	}
	cat, num := r.categorical[0], r.numeric[0]
	groups := groupMeans(cat, num)
	if len(groups) < 2 {
		return nil
	}
	means := make([]float64, len(groups))
	counts := make([]float64, len(groups))
	for i, g := range groups {
		means[i] = g.mean
		counts[i] = float64(g.count)
	}
	overall, _ := meanStd(means)
	medCount := median(counts)
	for _, g := range groups[:min(3, len(groups))] {
		if g.mean > overall*1.2 && float64(g.count) < medCount {
			return &Discovery{
				Insight: fmt.Sprintf("💎 Hidden gem: %s has %.1f average %s but only %d records, a potential opportunity!",
					g.key, g.mean, num.Name, g.count),
				ChartType: chart.Bar,
				XColumn:   cat.Name,
				YColumn:   num.Name,
				Spec: chart.BuildSpec(chart.SpecOptions{
					Type: chart.Bar, X: cat.Name, Y: num.Name, Title: fmt.Sprintf("%s by %s", num.Name, cat.Name),
				}),
			}
		}
	}
	return nil
}

var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// findSeasonal compares calendar-month means over at least six months.
func findSeasonal(t *dataset.Table, r roles, _ Options) *Discovery {
	if len(r.temporal) == 0 || len(r.numeric) == 0 || t.RowCount() < 12 {
		return nil
	}
	tc, nc := r.temporal[0], r.numeric[0]
	sums := map[int]float64{}
	counts := map[int]int{}
	for _, pt := range timeSeries(tc, nc) {
		m := int(pt.at.Month())
		sums[m] += pt.value
		counts[m]++
	}
	if len(sums) < 6 {
		return nil
	}
	months := make([]int, 0, len(sums))
	for m := range sums {
		months = append(months, m)
	}
	slices.Sort(months)
	avgs := make([]float64, len(months))
	peak, low := 0, 0
	for i, m := range months {
		avgs[i] = sums[m] / float64(counts[m])
		if avgs[i] > avgs[peak] {
			peak = i
		}
		if avgs[i] < avgs[low] {
			low = i
		}
	}
	mean, std := meanStd(avgs)
	if mean == 0 || std/mean <= 0.2 || avgs[peak] <= avgs[low]*1.3 {
		return nil
	}
	return &Discovery{
		Insight: fmt.Sprintf("📅 Seasonal pattern detected: %s peaks in %s (%.1f) and dips in %s (%.1f). Consider seasonal planning!",
			nc.Name, monthNames[months[peak]-1], avgs[peak], monthNames[months[low]-1], avgs[low]),
		ChartType: chart.Line,
		XColumn:   tc.Name,
		YColumn:   nc.Name,
		Spec:      lineSpec(tc.Name, nc.Name, nc.Name+" - Seasonal Pattern"),
	}
}

// findClustering splits the first numeric column at its quartiles and
// reports clusters when an empty gap wider than half the IQR separates the
// low or high quarter from the middle half.
func findClustering(_ *dataset.Table, r roles, _ Options) *Discovery {
	if len(r.numeric) < 2 {
		return nil
	}
	c := r.numeric[0]
	vals := c.Numbers()
	if len(vals) < 10 {
		return nil
	}
	sorted := sortedCopy(vals)
	q1, q3 := quantile(sorted, 0.25), quantile(sorted, 0.75)
	iqr := q3 - q1
	if iqr == 0 {
		return nil
	}
	var low, mid, high []float64
	for _, v := range sorted {
		switch {
		case v <= q1:
			low = append(low, v)
		case v <= q3:
			mid = append(mid, v)
		default:
			high = append(high, v)
		}
	}
	gap := func(a, b []float64) float64 {
		if len(a) == 0 || len(b) == 0 {
			return 0
		}
		return b[0] - a[len(a)-1]
	}
	if gap(low, mid) <= iqr*0.5 && gap(mid, high) <= iqr*0.5 {
		return nil
	}
	return &Discovery{
		Insight: fmt.Sprintf("🔍 Natural clusters found in %s: %d low values (≤%.1f), %d mid values (%.1f-%.1f), %d high values (>%.1f). Distinct groups detected!",
			c.Name, len(low), q1, len(mid), q1, q3, len(high), q3),
		ChartType: chart.Histogram,
		XColumn:   c.Name,
		Spec: chart.BuildSpec(chart.SpecOptions{
			Type: chart.Histogram, X: c.Name, Title: fmt.Sprintf("Distribution of %s - Clustering Pattern", c.Name), XType: "quantitative",
		}),
	}
}

// findAnomaly sums |z| over the first three numeric columns per row and
// reports the row scoring above 3. Rows missing any of those values are not
// scored.
func findAnomaly(t *dataset.Table, r roles, opt Options) *Discovery {
	if len(r.numeric) == 0 || t.RowCount() < 10 {
		return nil
	}
	type moments struct {
		col       *dataset.Column
		mean, std float64
	}
	var used []moments
	cols := r.numeric[:min(3, len(r.numeric))]
	for _, c := range cols {
		mean, std := meanStd(c.Numbers())
		if std > 0 {
			used = append(used, moments{c, mean, std})
		}
	}
	if len(used) == 0 {
		return nil
	}

	bestRow, bestScore := -1, 0.0
rows:
	for i := 0; i < t.RowCount(); i++ {
		score := 0.0
		for _, c := range cols {
			if i >= len(c.Cells) || c.Cells[i].Null {
				continue rows
			}
		}
		for _, m := range used {
			score += math.Abs(m.col.Cells[i].Num-m.mean) / m.std
		}
		if score > bestScore {
			bestRow, bestScore = i, score
		}
	}
	if bestRow < 0 || bestScore <= 3 {
		return nil
	}

	culprit := used[0]
	maxZ := -1.0
	for _, m := range used {
		if z := math.Abs(m.col.Cells[bestRow].Num-m.mean) / m.std; z > maxZ {
			culprit, maxZ = m, z
		}
	}
	value := culprit.col.Cells[bestRow].Num

	msg := fmt.Sprintf("⚠️ Anomaly detected: Row %d stands out significantly (score: %.1f)", bestRow+1, bestScore)
	explanation := ""
	if opt.Explain != nil {
		explanation = opt.Explain(Anomaly{
			Column: culprit.col.Name,
			Value:  value,
			Mean:   culprit.mean,
			StdDev: culprit.std,
			Row:    rowRecord(t, bestRow),
		})
	}
	if explanation != "" {
		msg += "\n\n🤖 AI Analysis:\n" + explanation
	} else {
		msg += ", worth investigating!"
	}

	d := &Discovery{Insight: msg, XColumn: r.numeric[0].Name}
	if len(r.numeric) >= 2 {
		d.ChartType = chart.Scatter
		d.YColumn = r.numeric[1].Name
		d.Spec = chart.BuildSpec(chart.SpecOptions{
			Type: chart.Scatter, X: d.XColumn, Y: d.YColumn, Title: "Data Points - Anomaly Highlighted",
			XType: "quantitative", YType: "quantitative",
		})
	} else {
		d.ChartType = chart.Tick
		d.Spec = chart.BuildSpec(chart.SpecOptions{
			Type: chart.Tick, X: d.XColumn,
			Title: fmt.Sprintf("Distribution of %s (Anomaly: %s)", d.XColumn, dataset.FormatNumber(value)),
			XType: "quantitative",
		})
	}
	return d
}
