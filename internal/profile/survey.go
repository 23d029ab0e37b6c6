package profile

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/chartloom/internal/dataset"
)

const (
	checkboxSample     = 200
	checkboxShare      = 0.10
	checkboxPairProbe  = 30
	likertMinValues    = 2
	likertMaxValues    = 10
	prefixShare        = 0.6
	lexiconShare       = 0.5
	otherMinUnique     = 10
	otherUniqueShare   = 0.3
	gridMinMembers     = 2
	sharedScaleMinVals = 2
	sharedScaleMaxVals = 10
)

// IsCheckbox reports whether a string column holds comma-joined multi-select
// answers.
func IsCheckbox(c *dataset.Column) bool {
	if c.Kind != dataset.KindString {
		return false
	}
	sample := sampleRaw(c, checkboxSample)
	if len(sample) == 0 {
		return false
	}
	multi := 0
	for _, v := range sample {
		if len(splitOptions(v)) >= 2 {
			multi++
		}
	}
	if float64(multi)/float64(len(sample)) >= checkboxShare {
		return true
	}
	unique := c.UniqueCount()
	if unique > 20 && substringPairs(distinct(c, checkboxPairProbe)) >= 3 {
		return true
	}
	if unique > 15 {
		for _, v := range c.Cells {
			if !v.Null && strings.Contains(v.Raw, ",") {
				return true
			}
		}
	}
	return false
}

// splitOptions splits a multi-select answer on commas, dropping blanks.
func splitOptions(s string) []string {
	if !strings.Contains(s, ",") {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func substringPairs(vals []string) int {
	lower := make([]string, len(vals))
	for i, v := range vals {
		lower[i] = strings.ToLower(v)
	}
	n := 0
	for i := 0; i < len(lower); i++ {
		for j := i + 1; j < len(lower); j++ {
			if strings.Contains(lower[i], lower[j]) || strings.Contains(lower[j], lower[i]) {
				n++
			}
		}
	}
	return n
}

// distinct returns up to limit distinct raw values in first-seen order.
// limit <= 0 means all.
func distinct(c *dataset.Column, limit int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range c.Cells {
		if v.Null {
			continue
		}
		if _, ok := seen[v.Raw]; ok {
			continue
		}
		seen[v.Raw] = struct{}{}
		out = append(out, v.Raw)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

var numericPrefixRe = regexp.MustCompile(`^\s*(\d+)`)

// polarity maps answer phrases to a -2..+2 sentiment score.
var polarity = map[string]int{
	"strongly disagree": -2, "very dissatisfied": -2, "very unsatisfied": -2,
	"very poor": -2, "very bad": -2, "very unlikely": -2, "never": -2,
	"extremely dissatisfied": -2, "very difficult": -2, "terrible": -2, "not at all": -2,

	"disagree": -1, "dissatisfied": -1, "unsatisfied": -1, "poor": -1, "bad": -1,
	"unlikely": -1, "rarely": -1, "somewhat disagree": -1, "difficult": -1,
	"somewhat dissatisfied": -1,

	"neutral": 0, "neither agree nor disagree": 0, "neither": 0, "undecided": 0,
	"average": 0, "fair": 0, "sometimes": 0, "okay": 0, "ok": 0, "no opinion": 0,
	"neither satisfied nor dissatisfied": 0, "moderate": 0,

	"agree": 1, "satisfied": 1, "good": 1, "likely": 1, "often": 1,
	"somewhat agree": 1, "somewhat satisfied": 1, "easy": 1,

	"strongly agree": 2, "very satisfied": 2, "very good": 2, "excellent": 2,
	"very likely": 2, "always": 2, "extremely satisfied": 2, "very easy": 2,
}

// phrasesByLength lists lexicon phrases longest first so "disagree" is
// tried before "agree".
var phrasesByLength = func() []string {
	out := make([]string, 0, len(polarity))
	for p := range polarity {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}()

// simpleScales are canonical low-to-high orders for yes/no style answers.
var simpleScales = [][]string{
	{"no", "yes"},
	{"no", "maybe", "yes"},
	{"false", "true"},
	{"false", "i don't know", "true"},
}

// DetectLikert decides whether a set of distinct answers forms an ordered
// scale and returns the values ordered low to high.
func DetectLikert(values []string) (bool, []string) {
	if len(values) < likertMinValues || len(values) > likertMaxValues {
		return false, nil
	}
	if order, ok := orderByPrefix(values); ok {
		return true, order
	}
	if order, ok := orderByPolarity(values); ok {
		return true, order
	}
	if order, ok := orderBySimpleScale(values); ok {
		return true, order
	}
	return false, nil
}

func orderByPrefix(values []string) ([]string, bool) {
	type ranked struct {
		v   string
		n   int
		has bool
	}
	rs := make([]ranked, len(values))
	hits := 0
	for i, v := range values {
		rs[i].v = v
		if m := numericPrefixRe.FindStringSubmatch(v); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				rs[i].n, rs[i].has = n, true
				hits++
			}
		}
	}
	if float64(hits)/float64(len(values)) < prefixShare {
		return nil, false
	}
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.has != b.has {
			return a.has
		}
		if a.has && a.n != b.n {
			return a.n < b.n
		}
		return a.v < b.v
	})
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.v
	}
	return out, true
}

func lookupPolarity(v string) (int, bool) {
	key := strings.ToLower(strings.TrimSpace(v))
	if p, ok := polarity[key]; ok {
		return p, true
	}
	for _, phrase := range phrasesByLength {
		if strings.Contains(key, phrase) {
			return polarity[phrase], true
		}
	}
	return 0, false
}

func orderByPolarity(values []string) ([]string, bool) {
	type ranked struct {
		v   string
		p   int
		has bool
	}
	rs := make([]ranked, len(values))
	hits := 0
	for i, v := range values {
		rs[i].v = v
		if p, ok := lookupPolarity(v); ok {
			rs[i].p, rs[i].has = p, true
			hits++
		}
	}
	if float64(hits)/float64(len(values)) < lexiconShare {
		return nil, false
	}
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.has != b.has {
			return a.has
		}
		if a.has && a.p != b.p {
			return a.p < b.p
		}
		return a.v < b.v
	})
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.v
	}
	return out, true
}

func orderBySimpleScale(values []string) ([]string, bool) {
	orig := make(map[string]string, len(values))
	for _, v := range values {
		key := strings.ToLower(strings.TrimSpace(v))
		if _, dup := orig[key]; !dup {
			orig[key] = v
		}
	}
	for _, scale := range simpleScales {
		inScale := make(map[string]bool, len(scale))
		for _, s := range scale {
			inScale[s] = true
		}
		subset := true
		for k := range orig {
			if !inScale[k] {
				subset = false
				break
			}
		}
		if !subset {
			continue
		}
		out := make([]string, 0, len(values))
		for _, s := range scale {
			if v, ok := orig[s]; ok {
				out = append(out, v)
			}
		}
		return out, true
	}
	return nil, false
}

// numericScales are checked in order; the first range containing every
// value wins.
var numericScales = [][2]int{{1, 5}, {1, 7}, {1, 10}, {0, 10}}

// NumericLikert matches integer answers against the common rating ranges
// and returns the full range as strings.
func NumericLikert(values []float64) (bool, []string) {
	if len(values) == 0 {
		return false, nil
	}
	for _, r := range numericScales {
		fits := true
		for _, v := range values {
			if v != float64(int(v)) || int(v) < r[0] || int(v) > r[1] {
				fits = false
				break
			}
		}
		if !fits {
			continue
		}
		out := make([]string, 0, r[1]-r[0]+1)
		for i := r[0]; i <= r[1]; i++ {
			out = append(out, strconv.Itoa(i))
		}
		return true, out
	}
	return false, nil
}

var otherKeywords = []string{"other", "specify", "please describe", "if other", "else"}

// IsOtherColumn flags free-text overflow columns such as "Other (please
// specify)" that hold many distinct answers.
func IsOtherColumn(name string, unique, rows int) bool {
	if rows == 0 || unique <= otherMinUnique || float64(unique)/float64(rows) <= otherUniqueShare {
		return false
	}
	lower := strings.ToLower(name)
	for _, k := range otherKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

var gridNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), // Rate [Product A]
	regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`),  // Rate (Product A)
}

// GridPrefix returns the question part of a matrix column name, e.g. "Rate"
// for "Rate [Product A]".
func GridPrefix(name string) (string, bool) {
	s := strings.TrimSpace(name)
	for _, re := range gridNamePatterns {
		if m := re.FindStringSubmatch(s); len(m) >= 3 {
			base := strings.TrimSpace(m[1])
			if base != "" && strings.TrimSpace(m[2]) != "" {
				return base, true
			}
		}
	}
	return "", false
}

// assignGridGroups sets GridGroup on profiles, first by name pattern and
// then by identical answer sets, and clears groups with a single member.
func assignGridGroups(t *dataset.Table, cols []*ColumnProfile) {
	for _, cp := range cols {
		if !cp.Dtype.IsCategorical() {
			continue
		}
		if g, ok := GridPrefix(cp.Name); ok {
			cp.GridGroup = g
		}
	}

	type scale struct {
		values  []string
		members []*ColumnProfile
	}
	var order []string
	scales := map[string]*scale{}
	for i, c := range t.Columns {
		cp := cols[i]
		if c.Kind != dataset.KindString || !cp.Dtype.IsCategorical() || cp.GridGroup != "" {
			continue
		}
		vals := distinct(c, 0)
		if len(vals) < sharedScaleMinVals || len(vals) > sharedScaleMaxVals {
			continue
		}
		sorted := append([]string(nil), vals...)
		sort.Strings(sorted)
		key := strings.Join(sorted, "\x00")
		s, ok := scales[key]
		if !ok {
			s = &scale{values: sorted}
			scales[key] = s
			order = append(order, key)
		}
		s.members = append(s.members, cp)
	}
	for _, key := range order {
		s := scales[key]
		if len(s.members) < gridMinMembers {
			continue
		}
		name := sharedScaleName(s.members, s.values)
		for _, cp := range s.members {
			cp.GridGroup = name
		}
	}

	counts := map[string]int{}
	for _, cp := range cols {
		if cp.GridGroup != "" {
			counts[cp.GridGroup]++
		}
	}
	for _, cp := range cols {
		if cp.GridGroup != "" && counts[cp.GridGroup] < gridMinMembers {
			cp.GridGroup = ""
		}
	}
}

func sharedScaleName(members []*ColumnProfile, values []string) string {
	prefix := members[0].Name
	for _, m := range members[1:] {
		prefix = commonPrefix(prefix, m.Name)
	}
	prefix = strings.TrimRight(prefix, " -_:.[(")
	if len(prefix) >= 3 {
		return prefix
	}
	if order := members[0].LikertOrder; len(order) > 0 {
		values = order
	}
	return fmt.Sprintf("Shared scale: %s", strings.Join(values, " / "))
}

func commonPrefix(a, b string) string {
	ra, rb := []rune(a), []rune(b)
	n := 0
	for n < len(ra) && n < len(rb) && ra[n] == rb[n] {
		n++
	}
	return string(ra[:n])
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
