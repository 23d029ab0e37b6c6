package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/chartloom/internal/cache"
	"github.com/KaramelBytes/chartloom/internal/chart"
	"github.com/KaramelBytes/chartloom/internal/insight"
	"github.com/KaramelBytes/chartloom/internal/profile"
	"github.com/KaramelBytes/chartloom/internal/utils"
)

// EnricherOptions configures NewEnricher. Zero values pick defaults.
type EnricherOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
	InsightTTL  time.Duration
	Logger      *slog.Logger
}

// Enricher adds optional LLM commentary to an analysis. A nil runtime makes
// every method a no-op that returns "" or nil.
type Enricher struct {
	rt          Runtime
	model       string
	maxTokens   int
	temperature float64
	logger      *slog.Logger
	insights    *cache.Cache[string]
}

// NewEnricher wraps rt. rt may be nil.
func NewEnricher(rt Runtime, opt EnricherOptions) *Enricher {
	if opt.InsightTTL <= 0 {
		opt.InsightTTL = 30 * time.Minute
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Model == "" {
		opt.Model = DefaultModel(ProviderOpenRouter)
	}
	return &Enricher{
		rt:          rt,
		model:       opt.Model,
		maxTokens:   opt.MaxTokens,
		temperature: opt.Temperature,
		logger:      opt.Logger,
		insights:    cache.New[string](opt.InsightTTL),
	}
}

// Enabled reports whether a runtime is configured.
func (e *Enricher) Enabled() bool { return e != nil && e.rt != nil }

// CacheStats reports the chart insight cache counters.
func (e *Enricher) CacheStats() cache.Stats {
	if e == nil {
		return cache.Stats{}
	}
	return e.insights.Stats()
}

// complete runs one system+user exchange. Failures are logged and reported
// as "" so callers can fall back to rule-based output.
func (e *Enricher) complete(ctx context.Context, system, prompt string, maxTokens int) string {
	if !e.Enabled() {
		return ""
	}
	if e.maxTokens > 0 && (maxTokens <= 0 || maxTokens > e.maxTokens) {
		maxTokens = e.maxTokens
	}
	prompt = utils.TruncateToTokenLimit(prompt, PromptBudget(e.model, maxTokens))
	resp, err := e.rt.Generate(ctx, GenerateRequest{
		Model: e.model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: e.temperature,
	})
	if err != nil {
		e.logger.Warn("ai request failed", "model", e.model, "err", err)
		return ""
	}
	attrs := []any{"model", e.model, "prompt_tokens", resp.Usage.PromptTokens, "completion_tokens", resp.Usage.CompletionTokens}
	if cost, ok := EstimateCostUSD(e.model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens); ok {
		attrs = append(attrs, "cost_usd", cost)
	}
	e.logger.Debug("ai request", attrs...)
	return strings.TrimSpace(resp.Text())
}

// ChartInsight asks for two bullet-point observations about a chart.
// Replies are cached by chart shape.
func (e *Enricher) ChartInsight(ctx context.Context, p *profile.DatasetProfile, c *chart.Candidate) string {
	if !e.Enabled() || p == nil || c == nil {
		return ""
	}
	key := cache.Fingerprint(c.ChartType, c.XColumn, c.YColumn, p.RowCount, p.ColCount)
	computed := false
	out, err := e.insights.GetOrCompute(key, func() (string, error) {
		computed = true
		if v := e.chartInsight(ctx, p, c); v != "" {
			return v, nil
		}
		return "", errEmptyReply
	})
	if err != nil {
		return ""
	}
	if !computed {
		e.logger.Debug("chart insight cache hit", "chart_type", c.ChartType)
	}
	return out
}

// errEmptyReply keeps failed or blank completions out of the insight cache.
var errEmptyReply = errors.New("empty reply")

func (e *Enricher) chartInsight(ctx context.Context, p *profile.DatasetProfile, c *chart.Candidate) string {
	x, y := "category", "count"
	if c.XColumn != "" {
		x = SanitizeForPrompt(c.XColumn, 50)
	}
	if c.YColumn != "" {
		y = SanitizeForPrompt(c.YColumn, 50)
	}
	colContext := "X-axis: " + x
	if xc := p.Column(c.XColumn); xc != nil {
		colContext += fmt.Sprintf(" (%s, %d unique values)", xc.Dtype, xc.UniqueCount)
	}
	if yc := p.Column(c.YColumn); c.YColumn != "" && yc != nil {
		colContext += fmt.Sprintf("\nY-axis: %s (%s)", y, yc.Dtype)
	}
	prompt := fmt.Sprintf("Give 2 bullet-point insights for this chart.\n%s: %d rows. %s\n%s\nBe specific. Plain text only.",
		strings.ToUpper(string(c.ChartType)), p.RowCount, colContext, chartQuestion(c.ChartType, x, y))

	return FormatResponse(e.complete(ctx, "Data analyst. Concise insights only.", prompt, 150))
}

// DatasetGroups asks the model to organise columns into dashboard sections
// and returns the ones marked as grids. sample holds a few rows keyed by
// column name.
func (e *Enricher) DatasetGroups(ctx context.Context, p *profile.DatasetProfile, sample []map[string]any) []chart.Group {
	if !e.Enabled() || p == nil {
		return nil
	}
	cols := p.Columns
	if len(cols) > 50 {
		cols = cols[:50]
	}
	var b strings.Builder
	b.WriteString("Analyze this dataset structure and help me organize a dashboard.\n\nDataset Columns:\n")
	for _, c := range cols {
		fmt.Fprintf(&b, "- %s (%s): %d unique\n", SanitizeForPrompt(c.Name, 50), c.Dtype, c.UniqueCount)
	}
	if len(sample) > 0 {
		b.WriteString("\nSample Data:\n")
		for i, row := range sample {
			if i == 2 {
				break
			}
			var parts []string
			for j, c := range p.Columns {
				if j == 10 {
					break
				}
				if v, ok := row[c.Name]; ok {
					parts = append(parts, fmt.Sprintf("%s: %s", SanitizeForPrompt(c.Name, 50), SanitizeForPrompt(fmt.Sprint(v), 60)))
				}
			}
			b.WriteString("{" + strings.Join(parts, ", ") + "}\n")
		}
	}
	b.WriteString(`
Task: Group these columns into logical sections to unclutter the view.
1. Identify "Grid/Matrix" questions (e.g., related rating scales) and group them.
2. Identify "Demographics" (Age, Gender, Region).
3. Identify "Performance Metrics".

Reply in JSON format:
{"sections": [{"title": "Section Title", "columns": ["col1", "col2"], "type": "standard or grid"}]}
`)
	reply := e.complete(ctx, "You are a data architect. Output valid JSON only.", b.String(), 600)
	if reply == "" {
		return nil
	}
	sections, err := ParseSections(reply)
	if err != nil {
		e.logger.Warn("could not parse dataset sections", "err", err)
		return nil
	}
	return GridGroups(sections)
}

// ExplainAnomaly suggests possible causes for an outlier. It has the shape
// insight.Options.Explain expects once bound to a context.
func (e *Enricher) ExplainAnomaly(ctx context.Context, a insight.Anomaly) string {
	if !e.Enabled() {
		return ""
	}
	z := 0.0
	if a.StdDev > 0 {
		z = (a.Value - a.Mean) / a.StdDev
	}
	direction := "below"
	if a.Value > a.Mean {
		direction = "above"
	}
	keys := make([]string, 0, len(a.Row))
	for k := range a.Row {
		if k != a.Column {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var rowContext string
	if len(keys) > 0 {
		if len(keys) > 5 {
			keys = keys[:5]
		}
		items := make([]string, len(keys))
		for i, k := range keys {
			items[i] = fmt.Sprintf("%s: %s", SanitizeForPrompt(k, 40), SanitizeForPrompt(fmt.Sprint(a.Row[k]), 60))
		}
		rowContext = "\nContext: " + strings.Join(items, ", ")
	}
	prompt := fmt.Sprintf(`Explain this specific outlier in the '%s' column.

Value: %g
Average: %.2f (It is %.1f standard deviations %s average)
%s

Provide 3 possible reasons for this anomaly in bullet points.
Be specific to the data domain (infer from column name).
Example reasons: "Holiday season spike", "Data entry error", "VIP customer transaction"
`, SanitizeForPrompt(a.Column, 50), a.Value, a.Mean, math.Abs(z), direction, rowContext)

	return FormatResponse(e.complete(ctx, "You are a data detective explaining anomalies. Be creative but grounded.", prompt, 150))
}

// Explainer binds ExplainAnomaly to ctx for insight.Options.
func (e *Enricher) Explainer(ctx context.Context) func(insight.Anomaly) string {
	if !e.Enabled() {
		return nil
	}
	return func(a insight.Anomaly) string { return e.ExplainAnomaly(ctx, a) }
}

// CleaningAdvice asks for two data cleaning improvements.
func (e *Enricher) CleaningAdvice(ctx context.Context, p *profile.DatasetProfile) string {
	if !e.Enabled() || p == nil {
		return ""
	}
	cols := p.Columns
	if len(cols) > 15 {
		cols = cols[:15]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Review this dataset structure and suggest 2 specific data cleaning improvements:\n\nDataset: %d rows\nColumns:\n", p.RowCount)
	for _, c := range cols {
		fmt.Fprintf(&b, "- %s: %s, %d unique, %d nulls\n", SanitizeForPrompt(c.Name, 40), c.Dtype, c.UniqueCount, c.NullCount)
	}
	b.WriteString(`
For each suggestion:
1. Start with what the issue is
2. Explain why it matters
3. Suggest a specific fix

Keep each suggestion to 1-2 sentences. Use plain text, no markdown.`)
	return FormatResponse(e.complete(ctx, "You are a data quality expert.", b.String(), 250))
}
