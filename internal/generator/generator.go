// Package generator re-serializes parsed transcript documents, substituting
// each example's captured result for its recorded output.
package generator

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/harrison/docsync/internal/models"
)

// Generator renders documents in one dialect.
type Generator struct {
	dialect models.Dialect
}

// New creates a Generator for the given dialect.
func New(dialect models.Dialect) *Generator {
	return &Generator{dialect: dialect.WithDefaults()}
}

// Generate returns the document text. Prose is emitted unchanged; every
// example is emitted with its source re-marked and its rendered output,
// both re-indented to the example's column.
func (g *Generator) Generate(doc *models.Document) string {
	var b strings.Builder
	for _, seg := range doc.Segments {
		switch s := seg.(type) {
		case models.Prose:
			b.WriteString(s.Text)
		case *models.Example:
			g.writeExample(&b, s)
		}
	}
	out := b.String()
	if doc.Unterminated && endsWithExample(doc) {
		out = strings.TrimSuffix(out, "\n")
	}
	return out
}

// endsWithExample reports whether the last segment of doc is an example.
// Prose is copied verbatim and already carries the original ending.
func endsWithExample(doc *models.Document) bool {
	if len(doc.Segments) == 0 {
		return false
	}
	_, ok := doc.Segments[len(doc.Segments)-1].(*models.Example)
	return ok
}

func (g *Generator) writeExample(b *strings.Builder, ex *models.Example) {
	prefix := strings.Repeat(" ", ex.Indent)
	b.WriteString(indentLines(g.source(ex), prefix))
	b.WriteString(indentLines(g.output(ex.Rendered()), prefix))
}

// source re-marks every line of a command: the prompt on the first line,
// the continuation marker on the rest.
func (g *Generator) source(ex *models.Example) string {
	var b strings.Builder
	for i, line := range splitLines(ex.Source) {
		marker := g.dialect.Continuation
		if i == 0 {
			marker = g.dialect.Prompt
		}
		content := strings.TrimSuffix(line, "\n")
		b.WriteString(marker)
		b.WriteString(ex.MarkerSuffix(i, content))
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String()
}

// output replaces blank lines with the placeholder token and terminates the
// final line.
func (g *Generator) output(text string) string {
	return g.dialect.DisplayOutput(text)
}

// indentLines prefixes every line of text with prefix, except lines that are
// empty once their terminator is removed.
func indentLines(text, prefix string) string {
	if prefix == "" {
		return text
	}
	var b strings.Builder
	for _, line := range splitLines(text) {
		if strings.TrimSuffix(line, "\n") != "" {
			b.WriteString(prefix)
		}
		b.WriteString(line)
	}
	return b.String()
}

func splitLines(text string) []string {
	lines := strings.SplitAfter(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// UnifiedDiff returns a unified diff between the original and regenerated
// text of a document, or "" when they are identical.
func UnifiedDiff(path, before, after string) (string, error) {
	if before == after {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: path,
		ToFile:   path + " (regenerated)",
		Context:  3,
	})
}
