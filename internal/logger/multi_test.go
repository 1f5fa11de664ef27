package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/harrison/docsync/internal/models"
)

// TestMultiLoggerFansOut verifies every logger receives each event.
func TestMultiLoggerFansOut(t *testing.T) {
	a, b := &bytes.Buffer{}, &bytes.Buffer{}
	m := NewMultiLogger(NewConsoleLogger(a, "debug"), nil, NewConsoleLogger(b, "debug"))

	m.LogDocumentStart("x.md", 2)
	m.LogExample(&models.Example{Line: 1, Outcome: models.Outcome{State: models.OutcomeCaptured}})
	m.LogInfo("note")
	m.LogSummary(models.RunSummary{Path: "x.md"})

	for name, buf := range map[string]*bytes.Buffer{"first": a, "second": b} {
		out := buf.String()
		for _, want := range []string{"Syncing x.md: 2 examples", "line 1: ok", "[INFO] note", "=== Sync Summary ==="} {
			if !strings.Contains(out, want) {
				t.Errorf("%s logger missing %q:\n%s", name, want, out)
			}
		}
	}
}

// TestNoOpLoggerSatisfiesLogger verifies the no-op logger is usable as a Logger.
func TestNoOpLoggerSatisfiesLogger(t *testing.T) {
	var l Logger = NewNoOpLogger()
	l.LogUnexpected("", &models.Example{}, &models.ErrorReport{})
	l.LogSummary(models.RunSummary{})
}
