// Package logger provides logging implementations for docsync runs.
//
// Loggers receive document, example and summary events from the executor
// and free-form leveled messages from the CLI. Implementations are
// thread-safe and write to the console or to per-run log files.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/docsync/internal/models"
)

// Logger is the full logging surface used by the CLI.
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)

	LogDocumentStart(path string, examples int)
	LogExample(ex *models.Example)
	LogUnexpected(path string, ex *models.Example, report *models.ErrorReport)
	LogSummary(summary models.RunSummary)
}

// ConsoleLogger logs run progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// It supports log level filtering to control message verbosity.
// Color output is enabled for terminal output (os.Stdout/os.Stderr).
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
	colors      *palette
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
		colors:      newPalette(),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if f != os.Stdout && f != os.Stderr {
		return false
	}
	// NO_COLOR disables color regardless of the terminal
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SupportsColor reports whether w is a terminal that should get colored
// output.
func SupportsColor(w io.Writer) bool {
	return isTerminal(w)
}

// SetColor forces color output on or off.
func (cl *ConsoleLogger) SetColor(enabled bool) {
	cl.mutex.Lock()
	defer cl.mutex.Unlock()
	cl.colorOutput = enabled
}

func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return enabled(cl.logLevel, messageLevel)
}

// LogTrace logs a trace-level message (most verbose).
// Format: "[HH:MM:SS] [TRACE] <message>"
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string
	if cl.colorOutput {
		formatted = cl.formatWithColor(ts, level, message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	cl.writer.Write([]byte(formatted))
}

// formatWithColor formats a log message with ANSI color codes.
func (cl *ConsoleLogger) formatWithColor(ts, level, message string) string {
	var coloredLevel string

	switch strings.ToUpper(level) {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}

	return fmt.Sprintf("[%s] [%s] %s\n", ts, coloredLevel, message)
}

// LogDocumentStart logs the start of a document run at INFO level.
// Format: "[HH:MM:SS] Syncing <path>: <count> examples"
func (cl *ConsoleLogger) LogDocumentStart(path string, examples int) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	name := displayPath(path)
	if cl.colorOutput {
		name = color.New(color.Bold).Sprint(name)
	}
	cl.writer.Write([]byte(fmt.Sprintf("[%s] Syncing %s: %d %s\n", timestamp(), name, examples, plural(examples, "example"))))
}

// LogExample logs the outcome of one example at DEBUG level.
// Format: "[HH:MM:SS] line <n>: <status>"
func (cl *ConsoleLogger) LogExample(ex *models.Example) {
	if cl.writer == nil || !cl.shouldLog("debug") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	status := exampleStatus(ex)
	if cl.colorOutput {
		status = cl.colors.outcome(ex).Sprint(status)
	}
	cl.writer.Write([]byte(fmt.Sprintf("[%s] line %d: %s\n", timestamp(), ex.Line, status)))
}

// LogUnexpected logs an unexpected error at WARN level. The recorded output
// of the example is kept, so the report only appears here.
// Format: "[HH:MM:SS] [WARN] <path>:<line>: unexpected <summary>"
func (cl *ConsoleLogger) LogUnexpected(path string, ex *models.Example, report *models.ErrorReport) {
	cl.LogWarn(fmt.Sprintf("%s:%d: unexpected %s (recorded output kept)", displayPath(path), ex.Line, report.Summary))
}

// LogSummary logs the run summary at INFO level.
func (cl *ConsoleLogger) LogSummary(summary models.RunSummary) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var output string
	if cl.colorOutput {
		changed := cl.colors.count("Changed", summary.Changed, cl.colors.changed, false)
		suppressed := cl.colors.count("Unexpected", summary.Suppressed, cl.colors.unexpected, true)
		output = fmt.Sprintf("[%s] %s\n", ts, color.New(color.Bold).Sprint("=== Sync Summary ==="))
		output += fmt.Sprintf("[%s] %s\n", ts, cl.colors.field("Document", displayPath(summary.Path)))
		output += fmt.Sprintf("[%s] Examples: %d\n", ts, summary.Examples)
		output += fmt.Sprintf("[%s] %s\n", ts, changed)
		output += fmt.Sprintf("[%s] Raised: %d\n", ts, summary.Raised)
		output += fmt.Sprintf("[%s] %s\n", ts, suppressed)
	} else {
		output = fmt.Sprintf("[%s] === Sync Summary ===\n", ts)
		output += fmt.Sprintf("[%s] Document: %s\n", ts, displayPath(summary.Path))
		output += fmt.Sprintf("[%s] Examples: %d\n", ts, summary.Examples)
		output += fmt.Sprintf("[%s] Changed: %d\n", ts, summary.Changed)
		output += fmt.Sprintf("[%s] Raised: %d\n", ts, summary.Raised)
		output += fmt.Sprintf("[%s] Unexpected: %d\n", ts, summary.Suppressed)
	}
	output += fmt.Sprintf("[%s] Duration: %s\n", ts, formatDuration(summary.Duration))

	cl.writer.Write([]byte(output))
}

// LogProgress logs how many documents of a multi-document sync are done.
// Format: "[HH:MM:SS] Progress: [=====     ] 3/6 (50%)"
func (cl *ConsoleLogger) LogProgress(done, total int) {
	if cl.writer == nil || total < 2 || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	bar := renderProgress(done, total, progressWidth, cl.colorOutput)
	cl.writer.Write([]byte(fmt.Sprintf("[%s] Progress: %s\n", timestamp(), bar)))
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

func displayPath(path string) string {
	if path == "" {
		return "<stdin>"
	}
	return path
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// exampleStatus describes an example outcome in a few words.
func exampleStatus(ex *models.Example) string {
	var status string
	switch {
	case ex.Outcome.State == models.OutcomeSuppressed:
		return "unexpected " + ex.Outcome.Report.Summary
	case ex.Outcome.Raised():
		status = "raised " + ex.Outcome.Report.Summary
	default:
		status = "ok"
	}
	if ex.Changed() {
		status += " (changed)"
	}
	return status
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "120ms", "5s", "1m30s"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder < time.Second {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm%ds", minutes, remainder/time.Second)
	case d >= time.Second:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	default:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
}

// NoOpLogger is a Logger implementation that discards all log messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a new NoOpLogger.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogTrace(string)                                            {}
func (n *NoOpLogger) LogDebug(string)                                            {}
func (n *NoOpLogger) LogInfo(string)                                             {}
func (n *NoOpLogger) LogWarn(string)                                             {}
func (n *NoOpLogger) LogError(string)                                            {}
func (n *NoOpLogger) LogDocumentStart(string, int)                               {}
func (n *NoOpLogger) LogExample(*models.Example)                                 {}
func (n *NoOpLogger) LogUnexpected(string, *models.Example, *models.ErrorReport) {}
func (n *NoOpLogger) LogSummary(models.RunSummary)                               {}
