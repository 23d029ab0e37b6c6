package dataset

import "strings"

// FindHeaderRow returns the index of the row within the first maxScan rows
// that looks most like a header: mostly text, mostly unique, rarely numeric.
// Row 0 gets a small bonus. Rows filled less than half as wide as the widest
// scanned row (titles, export banners) are never chosen.
func FindHeaderRow(rows [][]string, maxScan int) int {
	if len(rows) < 2 {
		return 0
	}
	if maxScan <= 0 {
		maxScan = 10
	}
	limit := min(maxScan, len(rows))

	widest := 0
	for i := 0; i < limit; i++ {
		widest = max(widest, filled(rows[i]))
	}

	best, bestScore := 0, 0.0
	for i := 0; i < limit; i++ {
		nonNull := filled(rows[i])
		if nonNull == 0 || nonNull*2 < widest {
			continue
		}
		var text, numeric int
		uniq := make(map[string]struct{}, nonNull)
		for _, v := range rows[i] {
			if IsNullToken(v) {
				continue
			}
			uniq[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
			if _, ok := ParseFloat(v); ok {
				numeric++
			} else {
				text++
			}
		}
		n := float64(nonNull)
		score := float64(text)/n*0.4 + float64(len(uniq))/n*0.4 + (1-float64(numeric)/n)*0.2
		if i == 0 {
			score += 0.1
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

func filled(row []string) int {
	n := 0
	for _, v := range row {
		if !IsNullToken(v) {
			n++
		}
	}
	return n
}
