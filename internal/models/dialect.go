package models

import "strings"

// Dialect describes the markers of a transcript document. The same dialect
// must be used to parse a document and to regenerate it.
type Dialect struct {
	Prompt          string // Command marker, e.g. ">>>"
	Continuation    string // Continuation marker for multi-line commands, e.g. "..."
	BlankLine       string // Placeholder emitted for blank output lines
	TracebackHeader string // First line of every error report
}

// Default dialect markers
const (
	DefaultPrompt          = ">>>"
	DefaultContinuation    = "..."
	DefaultBlankLine       = "<BLANKLINE>"
	DefaultTracebackHeader = "Traceback (most recent call last):"
)

// DefaultDialect returns the interactive-interpreter dialect.
func DefaultDialect() Dialect {
	return Dialect{
		Prompt:          DefaultPrompt,
		Continuation:    DefaultContinuation,
		BlankLine:       DefaultBlankLine,
		TracebackHeader: DefaultTracebackHeader,
	}
}

// WithDefaults fills every empty marker with its default value.
func (d Dialect) WithDefaults() Dialect {
	def := DefaultDialect()
	if d.Prompt == "" {
		d.Prompt = def.Prompt
	}
	if d.Continuation == "" {
		d.Continuation = def.Continuation
	}
	if d.BlankLine == "" {
		d.BlankLine = def.BlankLine
	}
	if d.TracebackHeader == "" {
		d.TracebackHeader = def.TracebackHeader
	}
	return d
}

// DisplayOutput renders output text the way it appears in a document:
// blank or whitespace-only lines become the placeholder token and every
// line is terminated.
func (d Dialect) DisplayOutput(text string) string {
	var b strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		content := strings.TrimSuffix(line, "\n")
		if strings.TrimSpace(content) == "" {
			content = d.BlankLine
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String()
}
