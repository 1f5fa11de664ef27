package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harrison/docsync/internal/models"
)

// DirName is the per-project directory holding configuration, logs and
// run history.
const DirName = ".docsync"

// DialectConfig overrides the transcript markers
type DialectConfig struct {
	Prompt          string `yaml:"prompt"`
	Continuation    string `yaml:"continuation"`
	BlankLine       string `yaml:"blank_line"`
	TracebackHeader string `yaml:"traceback_header"`
}

// HistoryConfig represents run history configuration
type HistoryConfig struct {
	// Enabled records every sync run in the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database
	DBPath string `yaml:"db_path"`

	// KeepRuns is the number of most recent runs kept per document (0 = keep all)
	KeepRuns int `yaml:"keep_runs"`
}

// Config represents docsync configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs will be written
	LogDir string `yaml:"log_dir"`

	// FileLog enables per-run log files under LogDir
	FileLog bool `yaml:"file_log"`

	// MarkdownScope selects where commands are recognised in markdown
	// documents (code_blocks, document)
	MarkdownScope string `yaml:"markdown_scope"`

	// Dialect overrides the transcript markers
	Dialect DialectConfig `yaml:"dialect"`

	// UnexpectedKinds lists error kinds that are reported instead of
	// substituted into the document
	UnexpectedKinds []string `yaml:"unexpected_kinds"`

	// Extensions limits directory scans to these file extensions
	Extensions []string `yaml:"extensions"`

	// History contains run history configuration
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	d := models.DefaultDialect()
	return &Config{
		LogLevel:      "info",
		LogDir:        filepath.Join(DirName, "logs"),
		FileLog:       false,
		MarkdownScope: "code_blocks",
		Dialect: DialectConfig{
			Prompt:          d.Prompt,
			Continuation:    d.Continuation,
			BlankLine:       d.BlankLine,
			TracebackHeader: d.TracebackHeader,
		},
		Extensions: []string{".md", ".markdown", ".txt", ".rst", ".doctest"},
		History: HistoryConfig{
			Enabled:  false,
			DBPath:   filepath.Join(DirName, "history.db"),
			KeepRuns: 50,
		},
	}
}

// DialectOf returns the transcript dialect the configuration selects
func (c *Config) DialectOf() models.Dialect {
	return models.Dialect{
		Prompt:          c.Dialect.Prompt,
		Continuation:    c.Dialect.Continuation,
		BlankLine:       c.Dialect.BlankLine,
		TracebackHeader: c.Dialect.TracebackHeader,
	}.WithDefaults()
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.LogDir != "" {
		cfg.LogDir = fileCfg.LogDir
	}
	if fileCfg.FileLog {
		cfg.FileLog = true
	}
	if fileCfg.MarkdownScope != "" {
		cfg.MarkdownScope = fileCfg.MarkdownScope
	}
	if fileCfg.Dialect.Prompt != "" {
		cfg.Dialect.Prompt = fileCfg.Dialect.Prompt
	}
	if fileCfg.Dialect.Continuation != "" {
		cfg.Dialect.Continuation = fileCfg.Dialect.Continuation
	}
	if fileCfg.Dialect.BlankLine != "" {
		cfg.Dialect.BlankLine = fileCfg.Dialect.BlankLine
	}
	if fileCfg.Dialect.TracebackHeader != "" {
		cfg.Dialect.TracebackHeader = fileCfg.Dialect.TracebackHeader
	}
	if len(fileCfg.UnexpectedKinds) > 0 {
		cfg.UnexpectedKinds = fileCfg.UnexpectedKinds
	}
	if len(fileCfg.Extensions) > 0 {
		cfg.Extensions = fileCfg.Extensions
	}

	// Nested sections are merged per key so an explicit false or 0 wins
	// over the default.
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if section, exists := rawMap["history"]; exists && section != nil {
			historyMap, _ := section.(map[string]interface{})
			if _, exists := historyMap["enabled"]; exists {
				cfg.History.Enabled = fileCfg.History.Enabled
			}
			if _, exists := historyMap["db_path"]; exists {
				cfg.History.DBPath = fileCfg.History.DBPath
			}
			if _, exists := historyMap["keep_runs"]; exists {
				cfg.History.KeepRuns = fileCfg.History.KeepRuns
			}
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .docsync/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	configPath := filepath.Join(dir, DirName, "config.yaml")
	return LoadConfig(configPath)
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(logLevel *string, logDir *string, markdownScope *string, unexpectedKinds []string) {
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
	if markdownScope != nil {
		c.MarkdownScope = *markdownScope
	}
	if len(unexpectedKinds) > 0 {
		c.UnexpectedKinds = append(append([]string(nil), c.UnexpectedKinds...), unexpectedKinds...)
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	switch c.MarkdownScope {
	case "code_blocks", "document":
	default:
		return fmt.Errorf("invalid markdown_scope %q, must be one of: code_blocks, document", c.MarkdownScope)
	}

	d := c.DialectOf()
	if d.Prompt == d.Continuation {
		return fmt.Errorf("dialect.prompt and dialect.continuation must differ, both are %q", d.Prompt)
	}
	for name, marker := range map[string]string{"prompt": d.Prompt, "continuation": d.Continuation} {
		if strings.TrimSpace(marker) != marker {
			return fmt.Errorf("dialect.%s %q must not have leading or trailing whitespace", name, marker)
		}
	}
	if strings.Contains(d.TracebackHeader, "\n") {
		return fmt.Errorf("dialect.traceback_header must be a single line")
	}

	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with '.'", ext)
		}
	}

	if c.History.Enabled {
		if c.History.DBPath == "" {
			return fmt.Errorf("history.db_path cannot be empty when history is enabled")
		}
		if c.History.KeepRuns < 0 {
			return fmt.Errorf("history.keep_runs must be >= 0, got %d", c.History.KeepRuns)
		}
	}

	return nil
}
