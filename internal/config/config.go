package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// AI enrichment
	AIProvider  string  `mapstructure:"ai_provider" yaml:"ai_provider"`
	AIModel     string  `mapstructure:"ai_model" yaml:"ai_model"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	OllamaHost  string  `mapstructure:"ollama_host" yaml:"ollama_host"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Server
	ListenAddr     string   `mapstructure:"listen_addr" yaml:"listen_addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	// Upload limits
	MaxFileSizeMB    int `mapstructure:"max_file_size_mb" yaml:"max_file_size_mb"`
	MaxDatasetRows   int `mapstructure:"max_dataset_rows" yaml:"max_dataset_rows"`
	MaxFileRows      int `mapstructure:"max_file_rows" yaml:"max_file_rows"`
	MaxFileColumns   int `mapstructure:"max_file_columns" yaml:"max_file_columns"`
	MaxCellSizeBytes int `mapstructure:"max_cell_size_bytes" yaml:"max_cell_size_bytes"`

	// Caches
	FileCacheTTLSec    int `mapstructure:"file_cache_ttl_sec" yaml:"file_cache_ttl_sec"`
	ProfileCacheTTLSec int `mapstructure:"profile_cache_ttl_sec" yaml:"profile_cache_ttl_sec"`
	InsightCacheTTLSec int `mapstructure:"insight_cache_ttl_sec" yaml:"insight_cache_ttl_sec"`

	// Share links. An empty ShareURL keeps them in memory.
	ShareURL      string `mapstructure:"share_url" yaml:"share_url"`
	ShareTTLHours int    `mapstructure:"share_ttl_hours" yaml:"share_ttl_hours"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".chartloom"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.chartloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

var defaults = map[string]any{
	"ai_provider":           "none",
	"ai_model":              "",
	"api_key":               "",
	"ollama_host":           "http://127.0.0.1:11434",
	"max_tokens":            600,
	"temperature":           0.3,
	"http_timeout_sec":      60,
	"retry_max_attempts":    3,
	"retry_base_delay_ms":   500,
	"retry_max_delay_ms":    4000,
	"listen_addr":           ":8000",
	"allowed_origins":       []string{"http://localhost:3000", "http://localhost:5173"},
	"max_file_size_mb":      10,
	"max_dataset_rows":      5000,
	"max_file_rows":         1_000_000,
	"max_file_columns":      1000,
	"max_cell_size_bytes":   100_000,
	"file_cache_ttl_sec":    1800,
	"profile_cache_ttl_sec": 3600,
	"insight_cache_ttl_sec": 1800,
	"share_url":             "",
	"share_ttl_hours":       24,
	"log_level":             "info",
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CHARTLOOM")
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Keys lists the settable configuration keys in sorted order.
func Keys() []string {
	out := make([]string, 0, len(defaults))
	for k := range defaults {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Set parses val for key and assigns it.
func (c *Global) Set(key, val string) error {
	atoi := func(min int) (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < min {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "ai_provider":
		switch strings.ToLower(val) {
		case "openrouter":
			c.AIProvider = "openrouter"
		case "ollama", "local":
			c.AIProvider = "ollama"
		case "none", "off", "":
			c.AIProvider = "none"
		default:
			return fmt.Errorf("invalid ai_provider: %s (use openrouter, ollama or none)", val)
		}
	case "ai_model":
		c.AIModel = val
	case "api_key":
		c.APIKey = val
	case "ollama_host":
		c.OllamaHost = val
	case "max_tokens":
		c.MaxTokens, err = atoi(1)
	case "temperature":
		f, perr := strconv.ParseFloat(val, 64)
		if perr != nil || f < 0 || f > 2 {
			return fmt.Errorf("invalid float for temperature: %v", val)
		}
		c.Temperature = f
	case "http_timeout_sec":
		c.HTTPTimeoutSec, err = atoi(1)
	case "retry_max_attempts":
		c.RetryMaxAttempts, err = atoi(0)
	case "retry_base_delay_ms":
		c.RetryBaseDelayMs, err = atoi(0)
	case "retry_max_delay_ms":
		c.RetryMaxDelayMs, err = atoi(0)
	case "listen_addr":
		c.ListenAddr = val
	case "allowed_origins":
		c.AllowedOrigins = nil
		for _, o := range strings.Split(val, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	case "max_file_size_mb":
		c.MaxFileSizeMB, err = atoi(1)
	case "max_dataset_rows":
		c.MaxDatasetRows, err = atoi(0)
	case "max_file_rows":
		c.MaxFileRows, err = atoi(1)
	case "max_file_columns":
		c.MaxFileColumns, err = atoi(1)
	case "max_cell_size_bytes":
		c.MaxCellSizeBytes, err = atoi(1)
	case "file_cache_ttl_sec":
		c.FileCacheTTLSec, err = atoi(1)
	case "profile_cache_ttl_sec":
		c.ProfileCacheTTLSec, err = atoi(1)
	case "insight_cache_ttl_sec":
		c.InsightCacheTTLSec, err = atoi(1)
	case "share_url":
		c.ShareURL = val
	case "share_ttl_hours":
		c.ShareTTLHours, err = atoi(1)
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}
