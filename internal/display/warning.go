// Package display formats user-facing CLI output: warnings, example
// listings and diffs. Color is applied only when the caller asks for it.
package display

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/harrison/docsync/internal/parser"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Files      []string // Related files (optional)
	Suggestion string   // Action to take (optional)
}

// Display writes the warning to out, in yellow when useColor is set.
func (w Warning) Display(out io.Writer, useColor bool) {
	var b strings.Builder

	b.WriteString("Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Files) > 0 {
		if len(w.Files) == 1 {
			b.WriteString("    Affected file:\n")
		} else {
			b.WriteString("    Affected files:\n")
		}
		for i, file := range w.Files {
			fmt.Fprintf(&b, "      %d. %s\n", i+1, file)
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	text := b.String()
	if useColor {
		c := color.New(color.FgYellow)
		c.EnableColor()
		text = c.Sprint(text)
	}
	fmt.Fprint(out, text)
}

// ParseWarning describes why path could not be parsed.
func ParseWarning(path string, err error) Warning {
	w := Warning{
		Title: "Document could not be parsed",
		Files: []string{path},
	}

	var perr *parser.ParseError
	switch {
	case errors.As(err, &perr):
		w.Message = fmt.Sprintf("line %d: %s", perr.Line, perr.Msg)
		if strings.Contains(perr.Msg, "whitespace") {
			w.Suggestion = "Align every continuation and output line with its prompt"
		} else if strings.Contains(perr.Msg, "lacks blank") {
			w.Suggestion = "Put a space between the marker and the command"
		}
		w.Files = []string{fmt.Sprintf("%s:%d", path, perr.Line)}
	case errors.Is(err, parser.ErrUnsupportedFormat):
		w.Title = "Unsupported document format"
		w.Message = err.Error()
		w.Suggestion = "Use a .md, .txt, .rst or .doctest file"
	default:
		w.Message = err.Error()
	}
	return w
}
