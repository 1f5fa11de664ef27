package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrison/docsync/internal/config"
	"github.com/harrison/docsync/internal/logger"
	"github.com/harrison/docsync/internal/parser"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for docsync
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docsync",
		Short: "Keep interactive transcripts in documentation in sync",
		Long: `docsync executes the interactive examples embedded in documentation
and regenerates each document with the output the commands actually produce.

Prose and commands are preserved byte for byte; only recorded output changes.
Markdown (.md), plain transcripts (.txt, .rst, .doctest) are supported.

Configuration is loaded from .docsync/config.yaml in the project root if present.
CLI flags override configuration file settings.`,
		Version: Version,
		// main prints the error; usage is not repeated on failures
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .docsync/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().String("log-dir", "", "Directory for run log files")
	cmd.PersistentFlags().String("scope", "", "Where markdown commands are recognised (code_blocks, document)")
	cmd.PersistentFlags().StringSlice("unexpected", nil, "Error kinds to report instead of recording (repeatable)")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	cmd.AddCommand(NewSyncCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewListCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}

// settings is the configuration a subcommand runs with.
type settings struct {
	cfg     *config.Config
	root    string
	noColor bool
}

// loadSettings finds the project root from the first path argument, loads
// its configuration and applies the flags that were set explicitly.
func loadSettings(cmd *cobra.Command, args []string) (*settings, error) {
	start := "."
	if len(args) > 0 {
		start = args[0]
	}
	root, err := config.FindProjectRoot(start)
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}

	flags := cmd.Flags()
	var cfg *config.Config
	if configPath, _ := flags.GetString("config"); configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(root)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	var logLevel, logDir, scope *string
	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		logLevel = &v
	}
	if flags.Changed("log-dir") {
		v, _ := flags.GetString("log-dir")
		logDir = &v
	}
	if flags.Changed("scope") {
		v, _ := flags.GetString("scope")
		scope = &v
	}
	kinds, _ := flags.GetStringSlice("unexpected")
	cfg.MergeWithFlags(logLevel, logDir, scope, kinds)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	noColor, _ := flags.GetBool("no-color")
	return &settings{cfg: cfg, root: root, noColor: noColor}, nil
}

// parserOptions returns the parser configuration of s.
func (s *settings) parserOptions() parser.Options {
	// Validate has already rejected unknown scopes.
	scope, _ := parser.ParseScope(s.cfg.MarkdownScope)
	return parser.Options{Dialect: s.cfg.DialectOf(), Scope: scope}
}

// useColor reports whether output written to w is colored.
func (s *settings) useColor(w io.Writer) bool {
	return !s.noColor && logger.SupportsColor(w)
}

// consoleLogger returns the console logger writing to w.
func (s *settings) consoleLogger(w io.Writer) *logger.ConsoleLogger {
	console := logger.NewConsoleLogger(w, s.cfg.LogLevel)
	if s.noColor {
		console.SetColor(false)
	}
	return console
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
