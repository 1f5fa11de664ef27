package models

import "time"

// OutcomeState tracks whether an example has been executed and whether its
// captured result may be substituted into the regenerated document.
type OutcomeState int

const (
	// OutcomeUnset means the example has not been executed.
	OutcomeUnset OutcomeState = iota
	// OutcomeCaptured means the captured result replaces Want.
	OutcomeCaptured
	// OutcomeSuppressed means a result was captured but Want is kept
	// (the error was classified as unexpected).
	OutcomeSuppressed
)

// String returns the string representation of the OutcomeState
func (s OutcomeState) String() string {
	switch s {
	case OutcomeUnset:
		return "unset"
	case OutcomeCaptured:
		return "captured"
	case OutcomeSuppressed:
		return "suppressed"
	default:
		return "unknown"
	}
}

// ErrorReport is the reduced, displayable form of a raised error.
type ErrorReport struct {
	Header  string // Fixed traceback header line
	Summary string // "Kind: message", or just "Kind"
}

// Text renders the report as two terminated lines.
func (r *ErrorReport) Text() string {
	return r.Header + "\n" + r.Summary + "\n"
}

// Summarize builds the summary line for an error kind and optional message.
func Summarize(kind, message string) string {
	if message == "" {
		return kind
	}
	return kind + ": " + message
}

// Outcome is the result of executing one example.
type Outcome struct {
	State  OutcomeState
	Output string       // Captured stream output when Report is nil
	Report *ErrorReport // Set when the command raised
}

// Raised reports whether the command raised an error.
func (o Outcome) Raised() bool {
	return o.Report != nil
}

// Text returns the captured text: the report for raised errors, the
// output otherwise.
func (o Outcome) Text() string {
	if o.Report != nil {
		return o.Report.Text()
	}
	return o.Output
}

// Example is one command block of a transcript document.
type Example struct {
	Source  string  // Command text, one "\n"-terminated line per physical line
	Want    string  // Output recorded in the document, dedented, may be empty
	Indent  int     // Column of the prompt marker
	Line    int     // 1-based line of the prompt in the source document
	Outcome Outcome // Populated by the executor

	// SpacedEmpty marks, by source line index, the empty lines whose marker
	// was followed by a blank. Nil when there are none.
	SpacedEmpty []bool
}

// spacedEmpty reports whether source line i was written as marker + " ".
func (e *Example) spacedEmpty(i int) bool {
	return i < len(e.SpacedEmpty) && e.SpacedEmpty[i]
}

// MarkerSuffix returns the separator written after the marker of source
// line i whose content is content.
func (e *Example) MarkerSuffix(i int, content string) string {
	if content != "" || e.spacedEmpty(i) {
		return " "
	}
	return ""
}

func (*Example) segment() {}

// Rendered returns the output text the generator emits for the example:
// the captured result when it is substitutable, the recorded Want otherwise.
func (e *Example) Rendered() string {
	if e.Outcome.State == OutcomeCaptured {
		return e.Outcome.Text()
	}
	return e.Want
}

// Changed reports whether regenerating the example in the default dialect
// alters its output lines.
func (e *Example) Changed() bool {
	return e.ChangedIn(DefaultDialect())
}

// ChangedIn reports whether regenerating the example in d alters its output
// lines.
func (e *Example) ChangedIn(d Dialect) bool {
	return d.DisplayOutput(e.Rendered()) != d.DisplayOutput(e.Want)
}

// RunSummary aggregates the execution of one document.
type RunSummary struct {
	Path       string        // Document path
	Examples   int           // Number of examples executed
	Changed    int           // Examples whose output will be substituted with different text
	Raised     int           // Examples that raised (expected or not)
	Suppressed int           // Raised examples classified as unexpected
	Duration   time.Duration // Total execution time
}
