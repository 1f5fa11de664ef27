package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.LogDir != filepath.Join(".docsync", "logs") {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, ".docsync/logs")
	}
	if cfg.MarkdownScope != "code_blocks" {
		t.Errorf("MarkdownScope = %q, want %q", cfg.MarkdownScope, "code_blocks")
	}
	if cfg.Dialect.Prompt != ">>>" || cfg.Dialect.Continuation != "..." {
		t.Errorf("Dialect = %+v, want >>> and ... markers", cfg.Dialect)
	}
	if cfg.History.Enabled {
		t.Errorf("History.Enabled = true, want false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

// TestLoadConfigValidFile tests loading a valid YAML config file
func TestLoadConfigValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `log_level: debug
log_dir: /tmp/logs
file_log: true
markdown_scope: document
dialect:
  prompt: "$"
  continuation: ">"
unexpected_kinds: [KeyboardInterrupt, InternalError]
extensions: [.md]
history:
  enabled: true
  keep_runs: 5
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.LogDir != "/tmp/logs" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/tmp/logs")
	}
	if !cfg.FileLog {
		t.Errorf("FileLog = false, want true")
	}
	if cfg.MarkdownScope != "document" {
		t.Errorf("MarkdownScope = %q, want %q", cfg.MarkdownScope, "document")
	}

	d := cfg.DialectOf()
	if d.Prompt != "$" || d.Continuation != ">" {
		t.Errorf("DialectOf() markers = %q %q, want $ and >", d.Prompt, d.Continuation)
	}
	if d.BlankLine != "<BLANKLINE>" {
		t.Errorf("DialectOf().BlankLine = %q, want default", d.BlankLine)
	}

	if !reflect.DeepEqual(cfg.UnexpectedKinds, []string{"KeyboardInterrupt", "InternalError"}) {
		t.Errorf("UnexpectedKinds = %v", cfg.UnexpectedKinds)
	}
	if !reflect.DeepEqual(cfg.Extensions, []string{".md"}) {
		t.Errorf("Extensions = %v, want [.md]", cfg.Extensions)
	}
	if !cfg.History.Enabled || cfg.History.KeepRuns != 5 {
		t.Errorf("History = %+v, want enabled with keep_runs 5", cfg.History)
	}
	if cfg.History.DBPath != filepath.Join(".docsync", "history.db") {
		t.Errorf("History.DBPath = %q, want default", cfg.History.DBPath)
	}
}

// TestLoadConfigHistoryExplicitZero tests that explicit zero values in the
// history section override defaults
func TestLoadConfigHistoryExplicitZero(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("history:\n  keep_runs: 0\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.History.KeepRuns != 0 {
		t.Errorf("History.KeepRuns = %d, want 0", cfg.History.KeepRuns)
	}
}

// TestLoadConfigFileNotExists tests fallback to defaults when file doesn't exist
func TestLoadConfigFileNotExists(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfig() should not error on missing file, got: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("LoadConfig() = %+v, want defaults", cfg)
	}
}

// TestLoadConfigMalformed tests that malformed YAML is reported
func TestLoadConfigMalformed(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("log_level: [unterminated\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("LoadConfig() should error on malformed YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("error = %v, want parse failure", err)
	}
}

// TestLoadConfigFromDir tests loading from the project directory
func TestLoadConfigFromDir(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, DirName), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, DirName, "config.yaml"), []byte("log_level: warn\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFromDir(root)
	if err != nil {
		t.Fatalf("LoadConfigFromDir() error = %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

// TestMergeWithFlags tests that set flags override config values
func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UnexpectedKinds = []string{"A"}

	level := "error"
	scope := "document"
	cfg.MergeWithFlags(&level, nil, &scope, []string{"B"})

	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error", cfg.LogLevel)
	}
	if cfg.LogDir != DefaultConfig().LogDir {
		t.Errorf("LogDir changed by nil flag: %q", cfg.LogDir)
	}
	if cfg.MarkdownScope != "document" {
		t.Errorf("MarkdownScope = %q, want document", cfg.MarkdownScope)
	}
	if !reflect.DeepEqual(cfg.UnexpectedKinds, []string{"A", "B"}) {
		t.Errorf("UnexpectedKinds = %v, want [A B]", cfg.UnexpectedKinds)
	}
}

// TestValidate tests rejection of invalid values
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "invalid log_level"},
		{"bad scope", func(c *Config) { c.MarkdownScope = "everywhere" }, "invalid markdown_scope"},
		{"same markers", func(c *Config) { c.Dialect.Continuation = ">>>" }, "must differ"},
		{"padded marker", func(c *Config) { c.Dialect.Prompt = ">>> " }, "whitespace"},
		{"multi-line header", func(c *Config) { c.Dialect.TracebackHeader = "a\nb" }, "single line"},
		{"bad extension", func(c *Config) { c.Extensions = []string{"md"} }, "must start with '.'"},
		{"empty db path", func(c *Config) { c.History.Enabled = true; c.History.DBPath = "" }, "db_path"},
		{"negative keep", func(c *Config) { c.History.Enabled = true; c.History.KeepRuns = -1 }, "keep_runs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Validate() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
