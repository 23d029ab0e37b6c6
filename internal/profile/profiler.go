package profile

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/KaramelBytes/chartloom/internal/dataset"
)

const exampleCount = 3

// Profiler builds dataset profiles. The zero value is usable and logs
// through slog.Default.
type Profiler struct {
	Logger *slog.Logger
}

// New returns a profiler that logs to logger.
func New(logger *slog.Logger) *Profiler {
	return &Profiler{Logger: logger}
}

func (p *Profiler) logger() *slog.Logger {
	if p == nil || p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// Profile normalizes t in place and returns its profile.
func (p *Profiler) Profile(t *dataset.Table) *DatasetProfile {
	Normalize(t)
	return p.Describe(t)
}

// Describe profiles a table whose storage kinds are already resolved.
func (p *Profiler) Describe(t *dataset.Table) *DatasetProfile {
	rows := t.RowCount()
	cols := make([]*ColumnProfile, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = p.column(c, rows)
	}
	assignGridGroups(t, cols)
	return &DatasetProfile{RowCount: rows, ColCount: len(cols), Columns: cols}
}

// Profile is a convenience wrapper using a default profiler.
func Profile(t *dataset.Table) *DatasetProfile {
	return (&Profiler{}).Profile(t)
}

func (p *Profiler) column(c *dataset.Column, rows int) *ColumnProfile {
	cp := &ColumnProfile{
		Name:         c.Name,
		OriginalName: c.Name,
		Dtype:        Classify(c),
		NullCount:    c.NullCount(),
		UniqueCount:  c.UniqueCount(),
	}
	if err := p.fillStats(cp, c); err != nil {
		p.logger().Warn("column stats failed", "column", c.Name, "error", err)
		cp.Examples, cp.Min, cp.Max, cp.Mean = nil, nil, nil, nil
	}
	if cp.Examples == nil {
		cp.Examples = []any{}
	}
	cp.IsOther = IsOtherColumn(c.Name, cp.UniqueCount, rows)
	if !cp.Dtype.IsCategorical() {
		return cp
	}
	switch {
	case c.Kind == dataset.KindString:
		cp.IsCheckbox = IsCheckbox(c)
		if ok, order := DetectLikert(distinct(c, likertMaxValues+1)); ok {
			cp.IsLikert, cp.LikertOrder = true, order
			cp.Dtype = Ordinal
		}
	case cp.Dtype == Ordinal && c.Kind.IsNumeric():
		if ok, order := NumericLikert(uniqueNumbers(c)); ok {
			cp.IsLikert, cp.LikertOrder = true, order
		}
	}
	return cp
}

// fillStats computes examples and min/max/mean. Panics are turned into errors
// so one malformed column cannot abort the whole profile.
func (p *Profiler) fillStats(cp *ColumnProfile, c *dataset.Column) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	for _, v := range c.Cells {
		if len(cp.Examples) == exampleCount {
			break
		}
		if !v.Null {
			cp.Examples = append(cp.Examples, c.Value(v))
		}
	}
	switch cp.Dtype {
	case Numeric:
		nums := c.Numbers()
		if len(nums) == 0 {
			return nil
		}
		lo, hi, sum := math.Inf(1), math.Inf(-1), 0.0
		for _, v := range nums {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
			sum += v
		}
		mean := sum / float64(len(nums))
		cp.Min, cp.Max, cp.Mean = lo, hi, &mean
	case Temporal:
		lo, hi, ok := timeBounds(c)
		if ok {
			cp.Min, cp.Max = dataset.FormatTime(lo), dataset.FormatTime(hi)
		}
	}
	return nil
}

func timeBounds(c *dataset.Column) (lo, hi time.Time, ok bool) {
	for _, v := range c.Cells {
		if v.Null {
			continue
		}
		tm := v.Time
		if c.Kind != dataset.KindDate {
			var parsed bool
			if tm, parsed = dataset.ParseTime(v.Raw); !parsed {
				continue
			}
		}
		if !ok || tm.Before(lo) {
			lo = tm
		}
		if !ok || tm.After(hi) {
			hi = tm
		}
		ok = true
	}
	return lo, hi, ok
}

func uniqueNumbers(c *dataset.Column) []float64 {
	seen := map[float64]struct{}{}
	var out []float64
	for _, v := range c.Numbers() {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
