package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/KaramelBytes/chartloom/internal/ai"
	"github.com/KaramelBytes/chartloom/internal/analysis"
	cfgpkg "github.com/KaramelBytes/chartloom/internal/config"
	"github.com/KaramelBytes/chartloom/internal/dataset"
	"github.com/KaramelBytes/chartloom/internal/share"
)

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func runtimeConfig(c *cfgpkg.Global) ai.RuntimeConfig {
	return ai.RuntimeConfig{
		HTTPTimeout: seconds(c.HTTPTimeoutSec),
		RetryMax:    c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		APIKey:      c.APIKey,
		Host:        c.OllamaHost,
	}
}

// newEnricher returns nil when no AI provider is configured.
func newEnricher(c *cfgpkg.Global, log *slog.Logger) (*ai.Enricher, error) {
	rt, err := ai.NewRuntime(c.AIProvider, runtimeConfig(c))
	if err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, nil
	}
	model := c.AIModel
	if model == "" {
		model = ai.DefaultModel(c.AIProvider)
	}
	return ai.NewEnricher(rt, ai.EnricherOptions{
		Model:       model,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		InsightTTL:  seconds(c.InsightCacheTTLSec),
		Logger:      log,
	}), nil
}

// newAnalyzer wires the pipeline with caches and the optional enricher.
func newAnalyzer(c *cfgpkg.Global, log *slog.Logger) (*analysis.Analyzer, *ai.Enricher, error) {
	enr, err := newEnricher(c, log)
	if err != nil {
		return nil, nil, err
	}
	conf := analysis.Config{
		Logger:          log,
		FileCacheTTL:    seconds(c.FileCacheTTLSec),
		ProfileCacheTTL: seconds(c.ProfileCacheTTLSec),
	}
	if enr != nil {
		conf.Enricher = enr
	} else if c.AIProvider != "" && c.AIProvider != ai.ProviderNone {
		fmt.Fprintf(os.Stderr, "⚠ Warning: ai_provider %q has no credentials, AI insights are off\n", c.AIProvider)
	}
	return analysis.New(conf), enr, nil
}

func analysisOptions(c *cfgpkg.Global) analysis.Options {
	opt := analysis.DefaultOptions()
	if c.MaxFileSizeMB > 0 {
		opt.MaxFileBytes = int64(c.MaxFileSizeMB) << 20
	}
	if c.MaxDatasetRows > 0 {
		opt.MaxDatasetRows = c.MaxDatasetRows
	}
	lim := dataset.DefaultLimits()
	if c.MaxFileRows > 0 {
		lim.MaxRows = c.MaxFileRows
	}
	if c.MaxFileColumns > 0 {
		lim.MaxColumns = c.MaxFileColumns
	}
	if c.MaxCellSizeBytes > 0 {
		lim.MaxCellBytes = c.MaxCellSizeBytes
	}
	opt.Limits = lim
	return opt
}

// shareStore opens the configured store. The CLI keeps links under
// ~/.chartloom/shares when share_url is empty so they survive the process.
func shareStore(c *cfgpkg.Global, persistent bool) (share.Store, error) {
	loc := c.ShareURL
	if loc == "" && persistent {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		loc = filepath.Join(home, ".chartloom", "shares")
		if err := os.MkdirAll(loc, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir shares dir: %w", err)
		}
	}
	return share.Open(loc), nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	}
	return 0, fmt.Errorf("unsupported --delimiter: %s (use ','|';'|'tab'|'pipe')", s)
}
