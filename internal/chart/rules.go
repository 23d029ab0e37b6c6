package chart

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/KaramelBytes/chartloom/internal/profile"
)

// MaxCandidates caps the generator output.
const MaxCandidates = 50

// Input is what rules look at: the profile, optional sample rows, and
// column groups detected outside the profiler (for example by an LLM).
// Candidates that reference a column in Exclude on any axis are dropped.
type Input struct {
	Profile *profile.DatasetProfile
	Sample  []map[string]any
	Groups  []Group
	Exclude []string

	roles *roles
}

func (in *Input) excludes(c Candidate) bool {
	for _, name := range []string{c.XColumn, c.YColumn, c.ColorColumn} {
		if name != "" && slices.Contains(in.Exclude, name) {
			return true
		}
	}
	return false
}

// Rule produces candidates for one pattern of column roles.
type Rule interface {
	Name() string
	Applies(in *Input) bool
	Candidates(in *Input) []Candidate
}

type funcRule struct {
	name    string
	applies func(in *Input) bool
	build   func(in *Input) []Candidate
}

func (r funcRule) Name() string                     { return r.name }
func (r funcRule) Applies(in *Input) bool           { return r.applies(in) }
func (r funcRule) Candidates(in *Input) []Candidate { return r.build(in) }

// NewRule wraps a predicate and a builder as a Rule.
func NewRule(name string, applies func(in *Input) bool, build func(in *Input) []Candidate) Rule {
	return funcRule{name: name, applies: applies, build: build}
}

// roles partitions profile columns once per inference.
type roles struct {
	temporal    []*profile.ColumnProfile
	numeric     []*profile.ColumnProfile // ID-like columns removed
	categorical []*profile.ColumnProfile
}

func (in *Input) role() *roles {
	if in.roles != nil {
		return in.roles
	}
	r := &roles{}
	p := in.Profile
	r.temporal = p.ByDtype(profile.Temporal)
	for _, c := range p.ByDtype(profile.Numeric) {
		if !p.IsIDLike(c) {
			r.numeric = append(r.numeric, c)
		}
	}
	r.categorical = p.Categorical()
	in.roles = r
	return r
}

// DefaultRules returns the built-in rule set in generation order.
func DefaultRules() []Rule {
	return []Rule{
		timeValueRule(),
		checkboxRule(),
		gridGroupRule(),
		likertRule(),
		categoryValueRule(),
		scatterRule(),
		histogramRule(),
		categoryCountRule(),
		temporalCountRule(),
		heatmapRule(),
		stackedBarRule(),
		correlationMatrixRule(),
	}
}

// Generator runs a registry of rules and ranks their output.
type Generator struct {
	rules  []Rule
	logger *slog.Logger
}

// NewGenerator builds a generator. With no rules it uses DefaultRules.
func NewGenerator(logger *slog.Logger, rules ...Rule) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Generator{rules: rules, logger: logger}
}

// Register appends a rule.
func (g *Generator) Register(r Rule) {
	g.rules = append(g.rules, r)
}

// Infer runs every rule and returns candidates sorted by score, highest
// first, ties in generation order, capped at MaxCandidates. A rule that
// panics is logged and skipped.
func (g *Generator) Infer(in Input) []Candidate {
	if in.Profile == nil {
		return nil
	}
	var out []Candidate
	dropped := 0
	for _, r := range g.rules {
		for _, c := range g.run(r, &in) {
			if in.excludes(c) {
				dropped++
				continue
			}
			out = append(out, c)
		}
	}
	total := len(out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > MaxCandidates {
		out = out[:MaxCandidates]
	}
	g.logger.Debug("chart candidates generated", "returned", len(out), "total", total, "excluded", dropped)
	return out
}

func (g *Generator) run(r Rule, in *Input) (out []Candidate) {
	defer func() {
		if rec := recover(); rec != nil {
			g.logger.Error("chart rule failed", "rule", r.Name(), "error", fmt.Sprint(rec))
			out = nil
		}
	}()
	if !r.Applies(in) {
		return nil
	}
	return r.Candidates(in)
}

// Infer runs the default rules over a profile.
func Infer(p *profile.DatasetProfile, sample []map[string]any) []Candidate {
	return NewGenerator(nil).Infer(Input{Profile: p, Sample: sample})
}
