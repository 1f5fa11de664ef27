package parser

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/harrison/docsync/internal/models"
)

// MarkdownParser parses markdown transcript documents.
type MarkdownParser struct {
	markdown goldmark.Markdown
	dialect  models.Dialect
	scope    Scope
}

// frontmatterYAML is the optional docsync section of a markdown front matter block
type frontmatterYAML struct {
	Docsync struct {
		Skip            bool     `yaml:"skip"`
		UnexpectedKinds []string `yaml:"unexpected_kinds"`
	} `yaml:"docsync"`
}

// NewMarkdownParser creates a markdown parser for the given dialect and scope.
func NewMarkdownParser(dialect models.Dialect, scope Scope) *MarkdownParser {
	return &MarkdownParser{
		markdown: goldmark.New(),
		dialect:  dialect.WithDefaults(),
		scope:    scope,
	}
}

// Parse reads the whole document and splits it into segments. Front matter
// and code fences stay in the prose segments untouched.
func (p *MarkdownParser) Parse(r io.Reader) (*models.Document, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	doc := &models.Document{}
	if fm := extractFrontmatter(content); fm != nil {
		var parsed frontmatterYAML
		if err := yaml.Unmarshal(fm, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse front matter: %w", err)
		}
		doc.Options = models.DocumentOptions{
			Skip:            parsed.Docsync.Skip,
			UnexpectedKinds: parsed.Docsync.UnexpectedKinds,
		}
	}

	var inScope func(int) bool
	if p.scope == ScopeCodeBlocks {
		codeLines := p.codeBlockLines(content)
		inScope = func(line int) bool { return codeLines[line] }
	}

	segments, err := newScanner(string(content), p.dialect, inScope).scan()
	if err != nil {
		return nil, err
	}
	doc.Segments = segments
	doc.Unterminated = unterminated(content)
	return doc, nil
}

// codeBlockLines returns the 0-based indexes of the lines holding the
// content of fenced and indented code blocks. Fence lines are excluded.
func (p *MarkdownParser) codeBlockLines(content []byte) map[int]bool {
	starts := lineStarts(content)
	lines := make(map[int]bool)

	root := p.markdown.Parser().Parse(text.NewReader(content))
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			segments := n.Lines()
			for i := 0; i < segments.Len(); i++ {
				lines[lineOf(starts, segments.At(i).Start)] = true
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return lines
}

// lineStarts returns the byte offset at which every line begins.
func lineStarts(content []byte) []int {
	starts := []int{0}
	for i, b := range content {
		if b == '\n' && i+1 < len(content) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineOf maps a byte offset to its 0-based line index.
func lineOf(starts []int, offset int) int {
	return sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1
}

// extractFrontmatter returns the YAML between a leading pair of "---" lines,
// or nil when the document has no front matter.
func extractFrontmatter(content []byte) []byte {
	lines := bytes.Split(content, []byte("\n"))

	// Check if starts with ---
	if len(lines) < 3 || !bytes.Equal(bytes.TrimSpace(lines[0]), []byte("---")) {
		return nil
	}

	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			return bytes.Join(lines[1:i], []byte("\n"))
		}
	}

	// No closing delimiter found
	return nil
}
