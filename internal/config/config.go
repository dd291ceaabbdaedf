package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-deodorant/internal/log"
)

// Output formats
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// Config holds all configuration for deo
type Config struct {
	// Logging
	LogLevel string `yaml:"log_level" env:"DEO_LOG_LEVEL"`
	JSONLogs bool   `yaml:"json_logs" env:"DEO_JSON_LOGS"`

	// ExternalCalls records calls on receivers whose class is not indexed
	ExternalCalls bool `yaml:"external_calls" env:"DEO_EXTERNAL_CALLS"`

	// MaxStatements bounds the statements analysed per method, 0 for no limit
	MaxStatements int `yaml:"max_statements" env:"DEO_MAX_STATEMENTS"`

	// Timeout bounds the analysis of one method, 0 for none
	Timeout time.Duration `yaml:"timeout" env:"DEO_TIMEOUT"`

	// Workers is the number of methods analysed concurrently
	Workers int `yaml:"workers" env:"DEO_WORKERS"`

	// OutputFormat is text, json or msgpack
	OutputFormat string `yaml:"output_format" env:"DEO_OUTPUT_FORMAT"`

	// SourceRoots are scanned for Java files to index for resolution
	SourceRoots []string `yaml:"source_roots" env:"DEO_SOURCE_ROOTS"`

	// CacheFile keeps dependence graph summaries between runs; empty disables it
	CacheFile string `yaml:"cache_file" env:"DEO_CACHE_FILE"`

	// CacheSize bounds the cached summaries
	CacheSize int `yaml:"cache_size" env:"DEO_CACHE_SIZE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:      "info",
		JSONLogs:      false,
		ExternalCalls: true,
		MaxStatements: 0,
		Timeout:       30 * time.Second,
		Workers:       4,
		OutputFormat:  FormatText,
		SourceRoots:   nil,
		CacheFile:     "",
		CacheSize:     256,
	}
}

// GlobalConfigFilePath returns the global config file path (~/.deo/config.yaml)
func GlobalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".deo/config.yaml"
	}
	return filepath.Join(home, ".deo", "config.yaml")
}

// ProjectConfigFilePath returns the project-level config file path (./.deo/config.yaml)
func ProjectConfigFilePath() string {
	return filepath.Join(".deo", "config.yaml")
}

// DefaultCacheFilePath returns where summaries are cached when caching is
// switched on without a path (~/.deo/cache/summaries.msgpack)
func DefaultCacheFilePath() string {
	return filepath.Join(filepath.Dir(GlobalConfigFilePath()), "cache", "summaries.msgpack")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.deo/config.yaml)
// 3. Global config (~/.deo/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range []string{GlobalConfigFilePath(), ProjectConfigFilePath()} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DEO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DEO_JSON_LOGS"); v != "" {
		cfg.JSONLogs = parseBool(v)
	}
	if v := os.Getenv("DEO_EXTERNAL_CALLS"); v != "" {
		cfg.ExternalCalls = parseBool(v)
	}
	if v := os.Getenv("DEO_MAX_STATEMENTS"); v != "" {
		if i := parseInt(v); i >= 0 {
			cfg.MaxStatements = i
		}
	}
	if v := os.Getenv("DEO_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid DEO_TIMEOUT %q: %w", v, err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv("DEO_WORKERS"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.Workers = i
		}
	}
	if v := os.Getenv("DEO_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = v
	}
	if v := os.Getenv("DEO_SOURCE_ROOTS"); v != "" {
		cfg.SourceRoots = filepath.SplitList(v)
	}
	if v := os.Getenv("DEO_CACHE_FILE"); v != "" {
		cfg.CacheFile = v
	}
	if v := os.Getenv("DEO_CACHE_SIZE"); v != "" {
		if n := parseInt(v); n >= 0 {
			cfg.CacheSize = n
		}
	}
	return nil
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}

	switch c.OutputFormat {
	case FormatText, FormatJSON, FormatMsgpack:
		// Valid
	default:
		return fmt.Errorf("invalid output_format: %s (must be 'text', 'json' or 'msgpack')", c.OutputFormat)
	}

	if c.MaxStatements < 0 {
		return fmt.Errorf("max_statements must be non-negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}

	return nil
}

// Level returns the parsed log level. Validate guarantees it parses.
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// parseBool accepts the usual spellings of true
func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// parseInt attempts to parse a string as int, returning -1 on failure
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return -1
	}
	return i
}
