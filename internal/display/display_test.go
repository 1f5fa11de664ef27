package display

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/docsync/internal/models"
	"github.com/harrison/docsync/internal/parser"
)

func TestWarningDisplayPlain(t *testing.T) {
	var buf bytes.Buffer
	Warning{
		Title:      "Document could not be parsed",
		Message:    "line 3: bad",
		Files:      []string{"a.md", "b.md"},
		Suggestion: "Fix it",
	}.Display(&buf, false)

	assert.Equal(t,
		"Warning: Document could not be parsed\n"+
			"    line 3: bad\n"+
			"    Affected files:\n"+
			"      1. a.md\n"+
			"      2. b.md\n"+
			"    Suggestion:\n"+
			"    Fix it\n",
		buf.String())
}

func TestWarningDisplaySingleFileAndColor(t *testing.T) {
	var buf bytes.Buffer
	Warning{Title: "T", Files: []string{"only.md"}}.Display(&buf, true)

	out := buf.String()
	assert.Contains(t, out, "Affected file:\n")
	assert.Contains(t, out, "\x1b[33m", "expected yellow escape code")
	assert.NotContains(t, out, "Suggestion")
}

func TestParseWarning(t *testing.T) {
	perr := &parser.ParseError{Line: 7, Msg: "inconsistent leading whitespace: continuation at column 2, command at column 0"}
	w := ParseWarning("guide.md", fmt.Errorf("failed to parse guide.md: %w", perr))
	assert.Equal(t, []string{"guide.md:7"}, w.Files)
	assert.Contains(t, w.Message, "line 7: inconsistent leading whitespace")
	assert.NotEmpty(t, w.Suggestion)

	_, err := parser.ParseFile("picture.png", parser.Options{})
	require.Error(t, err)
	w = ParseWarning("picture.png", err)
	assert.Equal(t, "Unsupported document format", w.Title)

	w = ParseWarning("x.md", fmt.Errorf("permission denied"))
	assert.Equal(t, "permission denied", w.Message)
	assert.Empty(t, w.Suggestion)
}

func TestListExamples(t *testing.T) {
	src := "Intro\n\n>>> 2+2\n4\n  >>> for x in [1]:\n  ...     x\n  1\n"
	doc, err := parser.NewTranscriptParser(models.DefaultDialect()).Parse(strings.NewReader(src))
	require.NoError(t, err)
	doc.Path = "intro.txt"

	var buf bytes.Buffer
	require.NoError(t, ListExamples(&buf, doc, false))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "intro.txt: 2 examples", lines[0])
	assert.Equal(t, []string{"LINE", "INDENT", "OUTPUT", "SOURCE"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"3", "0", "1", "2+2"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"5", "2", "1", "for", "x", "in", "[1]:", "(+1", "lines)"}, strings.Fields(lines[3]))
}

func TestListExamplesTruncatesLongSource(t *testing.T) {
	long := "total = " + strings.Repeat("1 + ", 30) + "1"
	doc := &models.Document{
		Path:     "long.txt",
		Segments: []models.Segment{&models.Example{Source: long + "\n", Line: 1}},
	}

	var buf bytes.Buffer
	require.NoError(t, ListExamples(&buf, doc, false))

	out := buf.String()
	assert.NotContains(t, out, long)
	row := strings.Split(strings.TrimSuffix(out, "\n"), "\n")[2]
	source := row[strings.Index(row, "total"):]
	assert.True(t, strings.HasSuffix(source, "..."), "source %q", source)
	assert.LessOrEqual(t, len(source), maxSourceWidth)
}

func TestListExamplesEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ListExamples(&buf, &models.Document{Path: "empty.md"}, false))
	assert.Equal(t, "empty.md: no examples\n", buf.String())
}

func TestColorDiff(t *testing.T) {
	diff := "--- a.txt\n+++ a.txt (regenerated)\n@@ -1,2 +1,2 @@\n >>> 2+2\n-5\n+4\n"
	out := ColorDiff(diff)

	assert.Contains(t, out, "\x1b[32m+4\x1b[0m\n")
	assert.Contains(t, out, "\x1b[31m-5\x1b[0m\n")
	assert.Contains(t, out, "\x1b[36m@@ -1,2 +1,2 @@\x1b[0m\n")
	assert.Contains(t, out, " >>> 2+2\n")
	assert.NotContains(t, out, "\x1b[31m--- a.txt", "file headers are not removals")
}
