package insight

import (
	"math"
	"sort"
	"time"

	"github.com/aclements/go-moremath/stats"

	"github.com/KaramelBytes/chartloom/internal/dataset"
)

// quantile interpolates linearly between closest ranks of a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

func sortedCopy(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}

// median of an unsorted slice.
func median(vals []float64) float64 {
	return quantile(sortedCopy(vals), 0.5)
}

// pairAcc accumulates the sums needed for a Pearson coefficient.
type pairAcc struct {
	n     float64
	sumX  float64
	sumY  float64
	sumXX float64
	sumYY float64
	sumXY float64
}

func (pa *pairAcc) add(x, y float64) {
	pa.n++
	pa.sumX += x
	pa.sumY += y
	pa.sumXX += x * x
	pa.sumYY += y * y
	pa.sumXY += x * y
}

// r returns the coefficient, or false when either side has no variance.
func (pa *pairAcc) r() (float64, bool) {
	denom := math.Sqrt((pa.n*pa.sumXX - pa.sumX*pa.sumX) * (pa.n*pa.sumYY - pa.sumY*pa.sumY))
	if pa.n < 2 || denom == 0 || math.IsNaN(denom) {
		return 0, false
	}
	r := (pa.n*pa.sumXY - pa.sumX*pa.sumY) / denom
	return math.Max(-1, math.Min(1, r)), true
}

// correlate computes r over the rows where both columns are present.
func correlate(a, b *dataset.Column) (r float64, n int, ok bool) {
	var pa pairAcc
	for i := range a.Cells {
		if i >= len(b.Cells) || a.Cells[i].Null || b.Cells[i].Null {
			continue
		}
		pa.add(a.Cells[i].Num, b.Cells[i].Num)
	}
	r, ok = pa.r()
	return r, int(pa.n), ok
}

// meanStd returns the mean and sample standard deviation.
func meanStd(vals []float64) (mean, std float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	mean = stats.Mean(vals)
	if len(vals) > 1 {
		std = stats.StdDev(vals)
	}
	return mean, std
}

// timeAt reads row i of a temporal column, parsing string storage on the fly.
func timeAt(c *dataset.Column, i int) (time.Time, bool) {
	if i >= len(c.Cells) || c.Cells[i].Null {
		return time.Time{}, false
	}
	cell := c.Cells[i]
	if c.Kind == dataset.KindDate {
		return cell.Time, true
	}
	return dataset.ParseTime(cell.Raw)
}

// point is one (time, value) observation of a series.
type point struct {
	at    time.Time
	value float64
	row   int
}

// timeSeries pairs a temporal column with a numeric one, sorted by time.
// Rows missing either side are left out.
func timeSeries(tc, nc *dataset.Column) []point {
	var pts []point
	for i := range nc.Cells {
		if nc.Cells[i].Null {
			continue
		}
		at, ok := timeAt(tc, i)
		if !ok {
			continue
		}
		pts = append(pts, point{at: at, value: nc.Cells[i].Num, row: i})
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].at.Before(pts[j].at) })
	return pts
}

// groupStat is the mean of a numeric column within one category.
type groupStat struct {
	key   string
	mean  float64
	count int
}

// groupMeans returns per-category means sorted by mean descending, ties by key.
func groupMeans(cat, num *dataset.Column) []groupStat {
	sums := map[string]float64{}
	counts := map[string]int{}
	for i := range cat.Cells {
		if cat.Cells[i].Null || i >= len(num.Cells) || num.Cells[i].Null {
			continue
		}
		k := cat.Key(cat.Cells[i])
		sums[k] += num.Cells[i].Num
		counts[k]++
	}
	out := make([]groupStat, 0, len(sums))
	for k, s := range sums {
		out = append(out, groupStat{key: k, mean: s / float64(counts[k]), count: counts[k]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].mean == out[j].mean {
			return out[i].key < out[j].key
		}
		return out[i].mean > out[j].mean
	})
	return out
}

func rowRecord(t *dataset.Table, i int) map[string]any {
	rec := make(map[string]any, len(t.Columns))
	for _, c := range t.Columns {
		if i < len(c.Cells) {
			rec[c.Name] = c.Value(c.Cells[i])
		}
	}
	return rec
}
