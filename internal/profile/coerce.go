package profile

import (
	"math"
	"strings"

	"github.com/KaramelBytes/chartloom/internal/dataset"
)

const (
	coerceSample    = 1000
	coerceThreshold = 0.8
)

var currencyStripper = strings.NewReplacer("$", "", "€", "", "£", "", "¥", "", "%", "", ",", "")

// Normalize converts string columns that are really numbers ("$1,200",
// "45%") or dates into typed storage. It mutates t in place. A column is
// converted only when at least 80% of its first 1000 non-null values parse;
// values that fail become null.
func Normalize(t *dataset.Table) {
	for _, c := range t.Columns {
		if c.Kind != dataset.KindString {
			continue
		}
		sample := sampleRaw(c, coerceSample)
		if len(sample) == 0 {
			continue
		}
		if hasCurrencySymbol(sample) && parsedShare(sample, parseCurrency) >= coerceThreshold {
			convertNumeric(c)
			continue
		}
		if len([]rune(sample[0])) > 6 && parsedShare(sample, parseDate) >= coerceThreshold {
			convertDate(c)
		}
	}
}

func sampleRaw(c *dataset.Column, n int) []string {
	out := make([]string, 0, n)
	for _, v := range c.Cells {
		if len(out) == n {
			break
		}
		if !v.Null {
			out = append(out, v.Raw)
		}
	}
	return out
}

func hasCurrencySymbol(vals []string) bool {
	for _, v := range vals {
		if strings.ContainsAny(v, "$€£¥%,") {
			return true
		}
	}
	return false
}

func parsedShare(vals []string, parse func(string) bool) float64 {
	ok := 0
	for _, v := range vals {
		if parse(v) {
			ok++
		}
	}
	return float64(ok) / float64(len(vals))
}

func parseCurrency(s string) bool {
	_, ok := currencyValue(s)
	return ok
}

func currencyValue(s string) (float64, bool) {
	f, ok := dataset.ParseFloat(currencyStripper.Replace(s))
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseDate(s string) bool {
	_, ok := dataset.ParseTime(s)
	return ok
}

func convertNumeric(c *dataset.Column) {
	integral := true
	for i, v := range c.Cells {
		if v.Null {
			continue
		}
		f, ok := currencyValue(v.Raw)
		if !ok {
			c.Cells[i] = dataset.NullCell()
			continue
		}
		c.Cells[i].Num = f
		if f != math.Trunc(f) {
			integral = false
		}
	}
	c.Kind = dataset.KindFloat
	if integral {
		c.Kind = dataset.KindInteger
	}
}

func convertDate(c *dataset.Column) {
	for i, v := range c.Cells {
		if v.Null {
			continue
		}
		tm, ok := dataset.ParseTime(v.Raw)
		if !ok {
			c.Cells[i] = dataset.NullCell()
			continue
		}
		c.Cells[i].Time = tm
	}
	c.Kind = dataset.KindDate
}
