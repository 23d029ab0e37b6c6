// Package analysis runs the upload pipeline: parse, validate, clean, profile,
// recommend charts, then attach insights and an optional surprise finding.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/KaramelBytes/chartloom/internal/cache"
	"github.com/KaramelBytes/chartloom/internal/chart"
	"github.com/KaramelBytes/chartloom/internal/dataset"
	"github.com/KaramelBytes/chartloom/internal/insight"
	"github.com/KaramelBytes/chartloom/internal/parser"
	"github.com/KaramelBytes/chartloom/internal/profile"
)

var (
	// ErrFileTooLarge is returned when the raw upload exceeds MaxFileBytes.
	ErrFileTooLarge = errors.New("file exceeds the size limit")
	// ErrParse wraps loader failures.
	ErrParse = errors.New("could not parse file")
	// ErrNoData is returned when nothing survives cleaning.
	ErrNoData = errors.New("file appears to be empty or contains no valid data after cleaning")
)

// Options controls one analysis run.
type Options struct {
	// SkipAI disables every LLM call for this run.
	SkipAI bool
	// MaxFileBytes rejects larger inputs; 0 means unlimited.
	MaxFileBytes int64
	// MaxDatasetRows bounds the rows returned in Result.Dataset and used for
	// insights. 0 means all rows.
	MaxDatasetRows int
	// SampleRows is how many rows the chart rules and the LLM see.
	SampleRows int
	Parser     parser.Options
	Limits     dataset.Limits
}

// DefaultOptions returns the stock pipeline options.
func DefaultOptions() Options {
	return Options{
		MaxFileBytes:   10 << 20,
		MaxDatasetRows: 5000,
		SampleRows:     10,
		Parser:         parser.DefaultOptions(),
		Limits:         dataset.DefaultLimits(),
	}
}

// Enricher is the optional LLM layer. *ai.Enricher satisfies it.
type Enricher interface {
	Enabled() bool
	ChartInsight(ctx context.Context, p *profile.DatasetProfile, c *chart.Candidate) string
	DatasetGroups(ctx context.Context, p *profile.DatasetProfile, sample []map[string]any) []chart.Group
	Explainer(ctx context.Context) func(insight.Anomaly) string
	CleaningAdvice(ctx context.Context, p *profile.DatasetProfile) string
}

// Result is the full analysis of one file.
type Result struct {
	Filename         string                  `json:"filename"`
	Profile          *profile.DatasetProfile `json:"profile"`
	RecommendedChart chart.Candidate         `json:"recommended_chart"`
	Alternatives     []chart.Candidate       `json:"alternatives"`
	Dataset          []map[string]any        `json:"dataset"`
	Insights         []string                `json:"insights"`
	Surprise         *insight.Discovery      `json:"surprise"`
}

// Story turns the result into a narrative report.
func (r *Result) Story() insight.Story {
	return insight.BuildStory(r.Profile, r.RecommendedChart, r.Alternatives, r.Insights, r.Filename)
}

// Config wires an Analyzer.
type Config struct {
	Logger          *slog.Logger
	Enricher        Enricher
	FileCacheTTL    time.Duration
	ProfileCacheTTL time.Duration
}

// Analyzer runs the pipeline. It is safe for concurrent use.
type Analyzer struct {
	profiler  *profile.Profiler
	generator *chart.Generator
	enricher  Enricher
	files     *cache.Cache[*dataset.Table]
	profiles  *cache.Cache[*profile.DatasetProfile]
	logger    *slog.Logger
}

// New builds an Analyzer. Zero TTLs pick 30 minutes for parsed files and one
// hour for profiles.
func New(cfg Config) *Analyzer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.FileCacheTTL <= 0 {
		cfg.FileCacheTTL = 30 * time.Minute
	}
	if cfg.ProfileCacheTTL <= 0 {
		cfg.ProfileCacheTTL = time.Hour
	}
	return &Analyzer{
		profiler:  profile.New(cfg.Logger),
		generator: chart.NewGenerator(cfg.Logger),
		enricher:  cfg.Enricher,
		files:     cache.New[*dataset.Table](cfg.FileCacheTTL),
		profiles:  cache.New[*profile.DatasetProfile](cfg.ProfileCacheTTL),
		logger:    cfg.Logger,
	}
}

// CacheStats reports the file and profile cache counters.
func (a *Analyzer) CacheStats() map[string]cache.Stats {
	return map[string]cache.Stats{
		"files":    a.files.Stats(),
		"profiles": a.profiles.Stats(),
	}
}

// Cleanup drops expired cache entries and returns how many were removed.
func (a *Analyzer) Cleanup() int {
	return a.files.Cleanup() + a.profiles.Cleanup()
}

func (a *Analyzer) ai(opt Options) bool {
	return !opt.SkipAI && a.enricher != nil && a.enricher.Enabled()
}

// AnalyzeFile fetches location (a path or afs URL) and analyzes it.
func (a *Analyzer) AnalyzeFile(ctx context.Context, location string, opt Options) (*Result, error) {
	data, err := parser.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	return a.Analyze(ctx, filepath.Base(location), data, opt)
}

// Analyze runs the whole pipeline on the raw bytes of filename.
func (a *Analyzer) Analyze(ctx context.Context, filename string, data []byte, opt Options) (*Result, error) {
	if opt.MaxFileBytes > 0 && int64(len(data)) > opt.MaxFileBytes {
		return nil, fmt.Errorf("%w: maximum is %.0fMB, file is %.2fMB", ErrFileTooLarge,
			float64(opt.MaxFileBytes)/(1<<20), float64(len(data))/(1<<20))
	}
	if len(data) == 0 {
		return nil, parser.ErrEmpty
	}
	if opt.SampleRows <= 0 {
		opt.SampleRows = 10
	}
	log := a.logger.With("file", filename)

	contentKey := cache.Fingerprint(filename, data)
	t, err := a.load(filename, contentKey, data, opt.Parser, log)
	if err != nil {
		return nil, err
	}
	if err := dataset.Validate(t, opt.Limits); err != nil {
		return nil, err
	}
	dataset.Clean(t)
	if t.RowCount() == 0 || t.ColCount() == 0 {
		return nil, ErrNoData
	}

	p := a.profile(t, contentKey, log)
	log.Info("profiled dataset", "rows", p.RowCount, "cols", p.ColCount)

	sample := t.Records(opt.SampleRows)
	in := chart.Input{Profile: p, Sample: sample, Exclude: otherColumns(p)}
	if a.ai(opt) {
		in.Groups = a.enricher.DatasetGroups(ctx, p, sample)
	}
	candidates, err := a.generator.InferOrFallback(in)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 1 && candidates[0].ChartType == chart.Table {
		log.Warn("no chart candidates generated, using table fallback")
	}

	view := t
	if opt.MaxDatasetRows > 0 && t.RowCount() > opt.MaxDatasetRows {
		view = t.Head(opt.MaxDatasetRows)
		log.Info("dataset truncated for response", "from", t.RowCount(), "to", opt.MaxDatasetRows)
	}

	insights := insight.Generate(view, p)
	sopt := insight.Options{Logger: log}
	if a.ai(opt) {
		sopt.Explain = a.enricher.Explainer(ctx)
	}
	surprise := insight.Discover(view, p, sopt)

	if !opt.SkipAI {
		if a.ai(opt) {
			if extra := a.enricher.ChartInsight(ctx, p, &candidates[0]); extra != "" {
				insights = append([]string{"🤖 " + extra}, insights...)
			}
		}
		suggestions := insight.SuggestCleaning(p)
		if a.ai(opt) {
			suggestions = insight.WithAdvice(suggestions, a.enricher.CleaningAdvice(ctx, p))
		}
		insights = append(insights, suggestions...)
	}

	log.Info("analysis complete", "candidates", len(candidates), "insights", len(insights))
	return &Result{
		Filename:         filename,
		Profile:          p,
		RecommendedChart: candidates[0],
		Alternatives:     candidates[1:],
		Dataset:          view.Records(0),
		Insights:         insights,
		Surprise:         surprise,
	}, nil
}

// load parses data, reusing a cached table for identical uploads. The
// returned table is always a private copy.
func (a *Analyzer) load(filename, contentKey string, data []byte, popt parser.Options, log *slog.Logger) (*dataset.Table, error) {
	key := cache.Fingerprint(contentKey, popt.Delimiter, popt.Sheet, popt.MaxRows, popt.HeaderScan)
	if t, ok := a.files.Get(key); ok {
		log.Debug("using cached parsed file")
		return t.Clone(), nil
	}
	t, err := parser.Load(filename, data, popt)
	if err != nil {
		if errors.Is(err, parser.ErrUnsupported) || errors.Is(err, parser.ErrEmpty) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	a.files.Set(key, t.Clone())
	return t, nil
}

// profile normalizes t in place and describes it, reusing a cached profile
// for the same content and post-normalization shape.
func (a *Analyzer) profile(t *dataset.Table, contentKey string, log *slog.Logger) *profile.DatasetProfile {
	profile.Normalize(t)
	parts := []any{contentKey, t.RowCount(), t.ColCount()}
	for _, c := range t.Columns {
		parts = append(parts, c.Name, c.Kind)
	}
	computed := false
	p, _ := a.profiles.GetOrCompute(cache.Fingerprint(parts...), func() (*profile.DatasetProfile, error) {
		computed = true
		return a.profiler.Describe(t), nil
	})
	if !computed {
		log.Debug("using cached profile", "rows", p.RowCount, "cols", p.ColCount)
	}
	return p
}

// otherColumns lists free-text "Other (please specify)" columns, which are
// never charted.
func otherColumns(p *profile.DatasetProfile) []string {
	var out []string
	for _, c := range p.Columns {
		if c.IsOther {
			out = append(out, c.Name)
		}
	}
	return out
}
