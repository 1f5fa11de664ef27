package models

// Segment is one piece of a parsed transcript document: either Prose or *Example.
type Segment interface {
	segment()
}

// Prose is opaque document text that is reproduced byte-for-byte.
type Prose struct {
	Text string
}

func (Prose) segment() {}

// DocumentOptions holds per-document settings read from front matter.
type DocumentOptions struct {
	Skip            bool     // Do not execute this document
	UnexpectedKinds []string // Error kinds the harness treats as unexpected
}

// Document is a parsed transcript document. Segment order is significant.
type Document struct {
	Path     string          // Source path, empty for in-memory documents
	Segments []Segment       // Prose and examples in document order
	Options  DocumentOptions // Front matter options (markdown only)

	// Unterminated is set when the last line of the source has no "\n".
	Unterminated bool
}

// Examples returns the examples of the document in document order.
func (d *Document) Examples() []*Example {
	var examples []*Example
	for _, seg := range d.Segments {
		if ex, ok := seg.(*Example); ok {
			examples = append(examples, ex)
		}
	}
	return examples
}
