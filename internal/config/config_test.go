package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/l3aro/go-deodorant/internal/log"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"LogLevel", cfg.LogLevel, "info"},
		{"JSONLogs", cfg.JSONLogs, false},
		{"ExternalCalls", cfg.ExternalCalls, true},
		{"MaxStatements", cfg.MaxStatements, 0},
		{"Timeout", cfg.Timeout, 30 * time.Second},
		{"Workers", cfg.Workers, 4},
		{"OutputFormat", cfg.OutputFormat, FormatText},
		{"CacheFile", cfg.CacheFile, ""},
		{"CacheSize", cfg.CacheSize, 256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("DefaultConfig().%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig() does not validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errContains string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "json output", mutate: func(c *Config) { c.OutputFormat = FormatJSON }},
		{name: "msgpack output", mutate: func(c *Config) { c.OutputFormat = FormatMsgpack }},
		{
			name:        "invalid output format",
			mutate:      func(c *Config) { c.OutputFormat = "xml" },
			wantErr:     true,
			errContains: "invalid output_format",
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.LogLevel = "loud" },
			wantErr:     true,
			errContains: "invalid log_level",
		},
		{
			name:        "negative max statements",
			mutate:      func(c *Config) { c.MaxStatements = -1 },
			wantErr:     true,
			errContains: "max_statements",
		},
		{
			name:        "negative timeout",
			mutate:      func(c *Config) { c.Timeout = -time.Second },
			wantErr:     true,
			errContains: "timeout",
		},
		{
			name:        "zero workers",
			mutate:      func(c *Config) { c.Workers = 0 },
			wantErr:     true,
			errContains: "workers must be positive",
		},
		{
			name:        "negative cache size",
			mutate:      func(c *Config) { c.CacheSize = -1 },
			wantErr:     true,
			errContains: "cache_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.errContains)
				} else if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("Validate() error = %q, should contain %q", err.Error(), tt.errContains)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tests := []struct {
		name        string
		configYAML  string
		envVars     map[string]string
		checkCfg    func(*testing.T, *Config)
		wantErr     bool
		errContains string
	}{
		{
			name: "load valid config from file",
			configYAML: `
log_level: debug
json_logs: true
external_calls: false
max_statements: 500
timeout: 45s
workers: 8
output_format: json
source_roots:
  - src/main/java
  - lib
`,
			checkCfg: func(t *testing.T, cfg *Config) {
				if cfg.LogLevel != "debug" {
					t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
				}
				if !cfg.JSONLogs {
					t.Errorf("JSONLogs = false, want true")
				}
				if cfg.ExternalCalls {
					t.Errorf("ExternalCalls = true, want false")
				}
				if cfg.MaxStatements != 500 {
					t.Errorf("MaxStatements = %v, want 500", cfg.MaxStatements)
				}
				if cfg.Timeout != 45*time.Second {
					t.Errorf("Timeout = %v, want 45s", cfg.Timeout)
				}
				if cfg.Workers != 8 {
					t.Errorf("Workers = %v, want 8", cfg.Workers)
				}
				if cfg.OutputFormat != FormatJSON {
					t.Errorf("OutputFormat = %v, want json", cfg.OutputFormat)
				}
				if len(cfg.SourceRoots) != 2 || cfg.SourceRoots[1] != "lib" {
					t.Errorf("SourceRoots = %v, want [src/main/java lib]", cfg.SourceRoots)
				}
				if cfg.Level() != log.DebugLevel {
					t.Errorf("Level() = %v, want debug", cfg.Level())
				}
			},
		},
		{
			name:       "partial config keeps defaults",
			configYAML: "workers: 2\n",
			checkCfg: func(t *testing.T, cfg *Config) {
				if cfg.Workers != 2 {
					t.Errorf("Workers = %v, want 2", cfg.Workers)
				}
				if cfg.OutputFormat != FormatText {
					t.Errorf("OutputFormat = %v, want text", cfg.OutputFormat)
				}
				if !cfg.ExternalCalls {
					t.Errorf("ExternalCalls = false, want the default true")
				}
			},
		},
		{
			name:       "env overrides file",
			configYAML: "workers: 2\noutput_format: json\n",
			envVars: map[string]string{
				"DEO_WORKERS":       "6",
				"DEO_OUTPUT_FORMAT": "msgpack",
			},
			checkCfg: func(t *testing.T, cfg *Config) {
				if cfg.Workers != 6 {
					t.Errorf("Workers = %v, want 6", cfg.Workers)
				}
				if cfg.OutputFormat != FormatMsgpack {
					t.Errorf("OutputFormat = %v, want msgpack", cfg.OutputFormat)
				}
			},
		},
		{
			name:        "invalid yaml",
			configYAML:  "workers: [\n",
			wantErr:     true,
			errContains: "failed to parse config file",
		},
		{
			name:        "invalid output format",
			configYAML:  "output_format: xml\n",
			wantErr:     true,
			errContains: "invalid output_format",
		},
		{
			name:        "invalid env timeout",
			configYAML:  "workers: 1\n",
			envVars:     map[string]string{"DEO_TIMEOUT": "soon"},
			wantErr:     true,
			errContains: "invalid DEO_TIMEOUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.configYAML), 0644); err != nil {
				t.Fatalf("Failed to write config file: %v", err)
			}

			cfg, err := LoadFromFile(configPath)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error containing %q, got nil", tt.errContains)
				} else if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("Error = %q, should contain %q", err.Error(), tt.errContains)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if tt.checkCfg != nil {
				tt.checkCfg(t, cfg)
			}
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("LoadFromFile() error = %v, want a read error", err)
	}
}

func TestLoadPrecedence(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	t.Setenv("HOME", home)
	wd, wdErr := os.Getwd()
	if wdErr != nil {
		t.Fatal(wdErr)
	}
	if err := os.Chdir(project); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	write := func(path, content string) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write(filepath.Join(home, ".deo", "config.yaml"), "workers: 2\nmax_statements: 100\nlog_level: warn\n")
	write(filepath.Join(project, ".deo", "config.yaml"), "workers: 3\n")
	t.Setenv("DEO_LOG_LEVEL", "error")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.MaxStatements != 100 {
		t.Errorf("MaxStatements = %d, want 100 from the global file", cfg.MaxStatements)
	}
	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3 from the project file", cfg.Workers)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %s, want error from the environment", cfg.LogLevel)
	}
}

func TestDefaultCacheFilePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	want := filepath.Join(home, ".deo", "cache", "summaries.msgpack")
	if got := DefaultCacheFilePath(); got != want {
		t.Errorf("DefaultCacheFilePath() = %q, want %q", got, want)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		check   func(*testing.T, *Config)
	}{
		{
			name:    "booleans",
			envVars: map[string]string{"DEO_JSON_LOGS": "yes", "DEO_EXTERNAL_CALLS": "0"},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.JSONLogs {
					t.Errorf("JSONLogs = false, want true")
				}
				if cfg.ExternalCalls {
					t.Errorf("ExternalCalls = true, want false")
				}
			},
		},
		{
			name:    "timeout",
			envVars: map[string]string{"DEO_TIMEOUT": "2m"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Timeout != 2*time.Minute {
					t.Errorf("Timeout = %v, want 2m", cfg.Timeout)
				}
			},
		},
		{
			name:    "invalid numbers are ignored",
			envVars: map[string]string{"DEO_WORKERS": "many", "DEO_MAX_STATEMENTS": "-3"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Workers != 4 {
					t.Errorf("Workers = %d, want default 4", cfg.Workers)
				}
				if cfg.MaxStatements != 0 {
					t.Errorf("MaxStatements = %d, want default 0", cfg.MaxStatements)
				}
			},
		},
		{
			name:    "source roots",
			envVars: map[string]string{"DEO_SOURCE_ROOTS": "a" + string(os.PathListSeparator) + "b"},
			check: func(t *testing.T, cfg *Config) {
				if len(cfg.SourceRoots) != 2 || cfg.SourceRoots[0] != "a" || cfg.SourceRoots[1] != "b" {
					t.Errorf("SourceRoots = %v, want [a b]", cfg.SourceRoots)
				}
			},
		},
		{
			name:    "cache",
			envVars: map[string]string{"DEO_CACHE_FILE": "/tmp/deo.msgpack", "DEO_CACHE_SIZE": "8"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.CacheFile != "/tmp/deo.msgpack" || cfg.CacheSize != 8 {
					t.Errorf("cache = %q/%d, want /tmp/deo.msgpack/8", cfg.CacheFile, cfg.CacheSize)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			cfg := DefaultConfig()
			if err := applyEnvOverrides(cfg); err != nil {
				t.Fatalf("applyEnvOverrides() failed: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"0", 0},
		{"42", 42},
		{"-1", -1},
		{"abc", -1},
		{"", -1},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseInt(tt.input); got != tt.expected {
				t.Errorf("parseInt(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestConfigSave(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Workers = 7
	cfg.Timeout = 90 * time.Second
	cfg.OutputFormat = FormatMsgpack
	cfg.SourceRoots = []string{"src"}

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loadedCfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() failed: %v", err)
	}
	if loadedCfg.Workers != cfg.Workers {
		t.Errorf("Workers mismatch: got %d, want %d", loadedCfg.Workers, cfg.Workers)
	}
	if loadedCfg.Timeout != cfg.Timeout {
		t.Errorf("Timeout mismatch: got %v, want %v", loadedCfg.Timeout, cfg.Timeout)
	}
	if loadedCfg.OutputFormat != cfg.OutputFormat {
		t.Errorf("OutputFormat mismatch: got %s, want %s", loadedCfg.OutputFormat, cfg.OutputFormat)
	}
	if len(loadedCfg.SourceRoots) != 1 || loadedCfg.SourceRoots[0] != "src" {
		t.Errorf("SourceRoots mismatch: got %v", loadedCfg.SourceRoots)
	}
}

func TestConfigSaveCreatesParentDirs(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "dirs", "config.yaml")

	if err := DefaultConfig().Save(configPath); err != nil {
		t.Fatalf("Save() failed to create parent dirs: %v", err)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatalf("Config file was not created at %s", configPath)
	}
}
