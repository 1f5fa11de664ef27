package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harrison/docsync/internal/models"
)

func readRunLog(t *testing.T, fl *FileLogger) string {
	t.Helper()
	if err := fl.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	data, err := os.ReadFile(fl.RunFile())
	if err != nil {
		t.Fatalf("failed to read run log: %v", err)
	}
	return string(data)
}

// TestNewFileLogger verifies the run log and latest.log symlink.
func TestNewFileLogger(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")
	fl, err := NewFileLogger(logDir)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}

	base := filepath.Base(fl.RunFile())
	if !strings.HasPrefix(base, "run-") || !strings.HasSuffix(base, ".log") {
		t.Errorf("unexpected run log name %q", base)
	}

	target, err := os.Readlink(filepath.Join(logDir, "latest.log"))
	if err != nil {
		t.Fatalf("latest.log symlink missing: %v", err)
	}
	if target != base {
		t.Errorf("latest.log -> %q, want %q", target, base)
	}

	if out := readRunLog(t, fl); !strings.HasPrefix(out, "=== docsync Run Log ===\n") {
		t.Errorf("missing header:\n%s", out)
	}
}

// TestNewFileLoggerReplacesSymlink verifies an existing latest.log is replaced.
func TestNewFileLoggerReplacesSymlink(t *testing.T) {
	logDir := t.TempDir()
	if err := os.Symlink("stale.log", filepath.Join(logDir, "latest.log")); err != nil {
		t.Fatal(err)
	}

	fl, err := NewFileLogger(logDir)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	defer fl.Close()

	target, _ := os.Readlink(filepath.Join(logDir, "latest.log"))
	if target != filepath.Base(fl.RunFile()) {
		t.Errorf("latest.log -> %q, want current run", target)
	}
}

// TestFileLoggerEvents verifies run events are written with reports and sources.
func TestFileLoggerEvents(t *testing.T) {
	fl, err := NewFileLoggerWithLevel(t.TempDir(), "trace")
	if err != nil {
		t.Fatalf("NewFileLoggerWithLevel() error = %v", err)
	}

	report := &models.ErrorReport{Header: models.DefaultTracebackHeader, Summary: "KeyboardInterrupt"}
	ex := &models.Example{
		Source:  "for x in xs:\n    x\n",
		Want:    "1\n",
		Line:    3,
		Outcome: models.Outcome{State: models.OutcomeSuppressed, Report: report},
	}

	fl.LogDocumentStart("notes.txt", 1)
	fl.LogExample(ex)
	fl.LogUnexpected("notes.txt", ex, report)
	fl.LogSummary(models.RunSummary{Path: "notes.txt", Examples: 1, Raised: 1, Suppressed: 1})

	out := readRunLog(t, fl)
	for _, want := range []string{
		"Syncing notes.txt: 1 example\n",
		"line 3: unexpected KeyboardInterrupt\n",
		"    | for x in xs:\n",
		"    |     x\n",
		"notes.txt:3: unexpected error, recorded output kept\n",
		"    Traceback (most recent call last):\n    KeyboardInterrupt\n",
		"=== SYNC SUMMARY ===",
		"Status:       UNEXPECTED ERRORS",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in run log:\n%s", want, out)
		}
	}
}

// TestFileLoggerLevelFiltering verifies the configured level applies.
func TestFileLoggerLevelFiltering(t *testing.T) {
	fl, err := NewFileLoggerWithLevel(t.TempDir(), "warn")
	if err != nil {
		t.Fatalf("NewFileLoggerWithLevel() error = %v", err)
	}

	fl.LogInfo("hidden info")
	fl.LogDocumentStart("a.md", 0)
	fl.LogWarn("shown warning")

	out := readRunLog(t, fl)
	if strings.Contains(out, "hidden info") || strings.Contains(out, "Syncing") {
		t.Errorf("info messages logged at warn level:\n%s", out)
	}
	if !strings.Contains(out, "[WARN] shown warning") {
		t.Errorf("warning missing:\n%s", out)
	}
}

// TestFileLoggerCloseTwice verifies Close is idempotent and later writes are dropped.
func TestFileLoggerCloseTwice(t *testing.T) {
	fl, err := NewFileLogger(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	fl.LogError("after close")
}
