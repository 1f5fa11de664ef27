package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/docsync/internal/models"
)

// FileLogger logs run events to files in the configured log directory.
// It creates a timestamped log file per run and maintains a latest.log
// symlink pointing to the most recent one.
// It is thread-safe and supports log level filtering.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger writing to logDir at level "info".
func NewFileLogger(logDir string) (*FileLogger, error) {
	return NewFileLoggerWithLevel(logDir, "info")
}

// NewFileLoggerWithLevel creates a FileLogger with a custom log level.
// It creates the log directory if it doesn't exist, opens a timestamped
// run log file, and creates/updates the latest.log symlink.
func NewFileLoggerWithLevel(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Generate timestamped filename: run-YYYYMMDD-HHMMSS.log
	timestamp := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", timestamp))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	logger := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}

	logger.writeRunLog("=== docsync Run Log ===\n")
	logger.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return logger, nil
}

// RunFile returns the path of the current run log.
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return enabled(fl.logLevel, messageLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) {
	fl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

// LogDocumentStart logs the start of a document run at INFO level.
func (fl *FileLogger) LogDocumentStart(path string, examples int) {
	if !fl.shouldLog("info") {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] Syncing %s: %d %s\n", timestamp(), displayPath(path), examples, plural(examples, "example")))
}

// LogExample logs the outcome of one example at DEBUG level. At TRACE level
// the command source is included.
func (fl *FileLogger) LogExample(ex *models.Example) {
	if !fl.shouldLog("debug") {
		return
	}
	message := fmt.Sprintf("[%s] line %d: %s\n", timestamp(), ex.Line, exampleStatus(ex))
	if fl.shouldLog("trace") {
		for _, line := range strings.Split(strings.TrimSuffix(ex.Source, "\n"), "\n") {
			message += "    | " + line + "\n"
		}
	}
	fl.writeRunLog(message)
}

// LogUnexpected logs an unexpected error with its full report at WARN level.
func (fl *FileLogger) LogUnexpected(path string, ex *models.Example, report *models.ErrorReport) {
	if !fl.shouldLog("warn") {
		return
	}

	message := fmt.Sprintf("[%s] [WARN] %s:%d: unexpected error, recorded output kept\n", timestamp(), displayPath(path), ex.Line)
	for _, line := range strings.Split(strings.TrimSuffix(report.Text(), "\n"), "\n") {
		message += "    " + line + "\n"
	}
	fl.writeRunLog(message)
}

// LogSummary logs the document summary at INFO level.
func (fl *FileLogger) LogSummary(summary models.RunSummary) {
	if !fl.shouldLog("info") {
		return
	}

	ts := timestamp()
	status := "UNCHANGED"
	switch {
	case summary.Suppressed > 0:
		status = "UNEXPECTED ERRORS"
	case summary.Changed > 0:
		status = "CHANGED"
	}

	message := fmt.Sprintf(
		"\n[%s] === SYNC SUMMARY ===\n"+
			"[%s] Document:     %s\n"+
			"[%s] Examples:     %d\n"+
			"[%s] Changed:      %d\n"+
			"[%s] Raised:       %d\n"+
			"[%s] Unexpected:   %d\n"+
			"[%s] Total time:   %.3fs\n"+
			"[%s] Status:       %s\n",
		ts,
		ts, displayPath(summary.Path),
		ts, summary.Examples,
		ts, summary.Changed,
		ts, summary.Raised,
		ts, summary.Suppressed,
		ts, summary.Duration.Seconds(),
		ts, status,
	)
	fl.writeRunLog(message)
}

// Close flushes and closes the run log file.
// It should be called when the logger is no longer needed.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}

	return nil
}

// writeRunLog is a thread-safe helper to write to the run log file.
func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		fl.runLog.Sync()
	}
}
