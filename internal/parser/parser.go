// Package parser splits transcript documents into ordered prose and example
// segments.
//
// Two formats are supported. Text documents are scanned line by line in
// their entirety. Markdown documents are scanned the same way, but by
// default commands are only recognised inside fenced or indented code
// blocks, which goldmark locates.
package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/docsync/internal/models"
)

// Format represents the format of a transcript document
type Format int

const (
	// FormatUnknown represents an unknown or unsupported file format
	FormatUnknown Format = iota
	// FormatText represents a plain text document (.txt, .rst, .doctest, .text)
	FormatText
	// FormatMarkdown represents a Markdown (.md, .markdown) document
	FormatMarkdown
)

// String returns the string representation of the Format
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatMarkdown:
		return "markdown"
	default:
		return "unknown"
	}
}

// Scope controls where a markdown parser looks for commands.
type Scope int

const (
	// ScopeCodeBlocks recognises commands only inside code blocks.
	ScopeCodeBlocks Scope = iota
	// ScopeDocument recognises commands anywhere in the document.
	ScopeDocument
)

// ParseScope converts a configuration value into a Scope.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "code_blocks":
		return ScopeCodeBlocks, nil
	case "document":
		return ScopeDocument, nil
	default:
		return ScopeCodeBlocks, fmt.Errorf("unknown markdown scope %q (valid: code_blocks, document)", s)
	}
}

// ErrUnsupportedFormat indicates the document uses an unsupported format.
var ErrUnsupportedFormat = errors.New("parser: unsupported document format")

// ParseError reports a structural error in a command block. Any parse error
// fails the whole document.
type ParseError struct {
	Line int    // 1-based line number
	Msg  string // Human-readable description
}

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Parser is the interface that all transcript parsers must implement
type Parser interface {
	// Parse reads from an io.Reader and returns the parsed Document
	Parse(r io.Reader) (*models.Document, error)
}

// Options configures parser construction.
type Options struct {
	Dialect models.Dialect // Markers; empty fields take defaults
	Scope   Scope          // Markdown command scope
}

// DetectFormat automatically detects the document format based on file extension
// Supported extensions:
//   - .md, .markdown -> FormatMarkdown
//   - .txt, .text, .rst, .doctest -> FormatText
//   - all others -> FormatUnknown
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".txt", ".text", ".rst", ".doctest":
		return FormatText
	default:
		return FormatUnknown
	}
}

// NewParser creates a new parser instance for the specified format
// Returns an error if the format is unknown or unsupported
func NewParser(format Format, opts Options) (Parser, error) {
	dialect := opts.Dialect.WithDefaults()
	switch format {
	case FormatText:
		return NewTranscriptParser(dialect), nil
	case FormatMarkdown:
		return NewMarkdownParser(dialect, opts.Scope), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
}

// ParseFile detects the format of path, parses it and records the path on
// the returned document.
func ParseFile(path string, opts Options) (*models.Document, error) {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return nil, fmt.Errorf("%w: %s (supported: .md, .markdown, .txt, .text, .rst, .doctest)", ErrUnsupportedFormat, path)
	}

	p, err := NewParser(format, opts)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	doc, err := p.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}
