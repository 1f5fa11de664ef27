package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/harrison/docsync/internal/models"
)

// TranscriptParser parses plain text transcript documents.
type TranscriptParser struct {
	dialect models.Dialect
}

// NewTranscriptParser creates a parser for the given dialect.
func NewTranscriptParser(dialect models.Dialect) *TranscriptParser {
	return &TranscriptParser{dialect: dialect.WithDefaults()}
}

// Parse reads the whole document and splits it into segments.
func (p *TranscriptParser) Parse(r io.Reader) (*models.Document, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	segments, err := newScanner(string(content), p.dialect, nil).scan()
	if err != nil {
		return nil, err
	}
	return &models.Document{Segments: segments, Unterminated: unterminated(content)}, nil
}

func unterminated(content []byte) bool {
	return len(content) > 0 && content[len(content)-1] != '\n'
}

// scanner walks the physical lines of a document. inScope, when set,
// restricts the lines that may belong to a command block.
type scanner struct {
	lines   []string
	dialect models.Dialect
	inScope func(line int) bool
}

func newScanner(text string, dialect models.Dialect, inScope func(int) bool) *scanner {
	return &scanner{
		lines:   splitLines(text),
		dialect: dialect,
		inScope: inScope,
	}
}

// splitLines splits text after every "\n", keeping the terminators.
func splitLines(text string) []string {
	lines := strings.SplitAfter(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func (s *scanner) scan() ([]models.Segment, error) {
	var segments []models.Segment
	var prose strings.Builder

	flush := func() {
		if prose.Len() > 0 {
			segments = append(segments, models.Prose{Text: prose.String()})
			prose.Reset()
		}
	}

	for i := 0; i < len(s.lines); {
		indent, ok := s.markedAt(i, s.dialect.Prompt)
		if !ok {
			prose.WriteString(s.lines[i])
			i++
			continue
		}

		flush()
		example, next, err := s.example(i, indent)
		if err != nil {
			return nil, err
		}
		segments = append(segments, example)
		i = next
	}
	flush()

	return segments, nil
}

// example consumes the command block starting at line i.
func (s *scanner) example(i, indent int) (*models.Example, int, error) {
	var source strings.Builder
	var spaced []bool
	addLine := func(n int, marker string) error {
		content, err := s.markerContent(n, indent, marker)
		if err != nil {
			return err
		}
		if content == "" && len(body(s.lines[n])) > indent+len(marker) {
			for len(spaced) < n-i {
				spaced = append(spaced, false)
			}
			spaced = append(spaced, true)
		}
		source.WriteString(content)
		source.WriteString("\n")
		return nil
	}

	if err := addLine(i, s.dialect.Prompt); err != nil {
		return nil, 0, err
	}

	j := i + 1
	for ; j < len(s.lines); j++ {
		contIndent, ok := s.markedAt(j, s.dialect.Continuation)
		if !ok {
			break
		}
		if contIndent != indent {
			return nil, 0, &ParseError{
				Line: j + 1,
				Msg:  fmt.Sprintf("inconsistent leading whitespace: continuation at column %d, command at column %d", contIndent, indent),
			}
		}
		if err := addLine(j, s.dialect.Continuation); err != nil {
			return nil, 0, err
		}
	}

	var want strings.Builder
	for ; j < len(s.lines) && s.scoped(j); j++ {
		line := body(s.lines[j])
		if strings.TrimSpace(line) == "" {
			break
		}
		if _, ok := s.markedAt(j, s.dialect.Prompt); ok {
			break
		}
		if leadingSpaces(line) < indent {
			return nil, 0, &ParseError{
				Line: j + 1,
				Msg:  fmt.Sprintf("inconsistent leading whitespace: output %q indented less than its command", line),
			}
		}
		want.WriteString(line[indent:])
		want.WriteString("\n")
	}

	return &models.Example{
		Source:      source.String(),
		Want:        want.String(),
		Indent:      indent,
		Line:        i + 1,
		SpacedEmpty: spaced,
	}, j, nil
}

// markedAt reports whether line i starts with marker after its leading
// spaces, returning the marker's column.
func (s *scanner) markedAt(i int, marker string) (int, bool) {
	if !s.scoped(i) {
		return 0, false
	}
	line := body(s.lines[i])
	n := leadingSpaces(line)
	if !strings.HasPrefix(line[n:], marker) {
		return 0, false
	}
	return n, true
}

// markerContent returns the text following marker on line i. The marker
// must be followed by a space or the end of the line.
func (s *scanner) markerContent(i, indent int, marker string) (string, error) {
	line := body(s.lines[i])
	rest := line[indent+len(marker):]
	if rest == "" {
		return "", nil
	}
	if rest[0] != ' ' {
		return "", &ParseError{
			Line: i + 1,
			Msg:  fmt.Sprintf("lacks blank after %s: %q", marker, line),
		}
	}
	return rest[1:], nil
}

func (s *scanner) scoped(i int) bool {
	return s.inScope == nil || s.inScope(i)
}

func body(line string) string {
	return strings.TrimSuffix(line, "\n")
}

func leadingSpaces(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}
