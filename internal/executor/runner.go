// Package executor runs the examples of a transcript document against an
// interpreter and records what each command actually produced.
package executor

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/harrison/docsync/internal/models"
	"github.com/harrison/docsync/internal/session"
	"github.com/harrison/docsync/internal/traceback"
)

// InternalErrorKind is the error kind recorded when the interpreter fails
// without raising a structured error, or panics.
const InternalErrorKind = "InternalError"

// Logger receives execution events. LogUnexpected is the diagnostic channel
// for raised errors the harness classifies as unexpected.
type Logger interface {
	LogDocumentStart(path string, examples int)
	LogExample(ex *models.Example)
	LogUnexpected(path string, ex *models.Example, report *models.ErrorReport)
	LogSummary(summary models.RunSummary)
}

// Runner executes documents. Each Run owns a fresh namespace; examples run
// one at a time in document order.
type Runner struct {
	interp     session.Interpreter
	dialect    models.Dialect
	classifier Classifier
	logger     Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithDialect sets the dialect whose traceback header starts error reports.
func WithDialect(d models.Dialect) Option {
	return func(r *Runner) { r.dialect = d.WithDefaults() }
}

// WithClassifier sets the policy deciding which raised errors are unexpected.
func WithClassifier(c Classifier) Option {
	return func(r *Runner) { r.classifier = c }
}

// WithLogger sets the logger receiving execution events.
func WithLogger(l Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a Runner for interp. By default every raised error is
// expected and events are discarded.
func NewRunner(interp session.Interpreter, opts ...Option) *Runner {
	r := &Runner{
		interp:     interp,
		dialect:    models.DefaultDialect(),
		classifier: ExpectAll,
		logger:     nopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every example of doc and writes the outcomes back onto the
// examples. A failing command never stops the run.
func (r *Runner) Run(doc *models.Document) models.RunSummary {
	start := time.Now()
	examples := doc.Examples()
	r.logger.LogDocumentStart(doc.Path, len(examples))

	classifier := r.classifier
	if len(doc.Options.UnexpectedKinds) > 0 {
		classifier = AnyUnexpected(classifier, NewKindClassifier(doc.Options.UnexpectedKinds))
	}

	ns := session.NewNamespace()
	summary := models.RunSummary{Path: doc.Path}
	for _, ex := range examples {
		r.runExample(ns, classifier, doc.Path, ex)

		summary.Examples++
		if ex.Outcome.Raised() {
			summary.Raised++
		}
		if ex.Outcome.State == models.OutcomeSuppressed {
			summary.Suppressed++
		}
		if ex.ChangedIn(r.dialect) {
			summary.Changed++
		}
		r.logger.LogExample(ex)
	}

	summary.Duration = time.Since(start)
	r.logger.LogSummary(summary)
	return summary
}

func (r *Runner) runExample(ns *session.Namespace, classifier Classifier, path string, ex *models.Example) {
	output, err := r.capture(ns, ex.Source)
	if err == nil {
		ex.Outcome = models.Outcome{State: models.OutcomeCaptured, Output: output}
		return
	}

	// Bindings made before the command raised stay in the namespace.
	raised := asRaised(err)
	report := r.report(raised)
	if classifier.Unexpected(ex, raised) {
		ex.Outcome = models.Outcome{State: models.OutcomeSuppressed, Report: report}
		r.logger.LogUnexpected(path, ex, report)
		return
	}
	ex.Outcome = models.Outcome{State: models.OutcomeCaptured, Report: report}
}

// capture runs one command with the namespace stream redirected to a
// buffer. The stream is restored on every path, including panics.
func (r *Runner) capture(ns *session.Namespace, source string) (output string, err error) {
	var buf bytes.Buffer
	restore := ns.Redirect(&buf)
	defer restore()

	defer func() {
		if p := recover(); p != nil {
			err = &session.RaisedError{Kind: InternalErrorKind, Message: fmt.Sprint(p)}
		}
	}()

	err = r.interp.Exec(ns, source)
	return buf.String(), err
}

// report reduces a raised error to header and summary. A raw report from
// the interpreter is preferred; kind and message are the fallback.
func (r *Runner) report(raised *session.RaisedError) *models.ErrorReport {
	if raised.Report != "" {
		if reduced, ok := traceback.Reduce(raised.Report, r.dialect.TracebackHeader); ok {
			return reduced
		}
	}
	return &models.ErrorReport{
		Header:  r.dialect.TracebackHeader,
		Summary: models.Summarize(raised.Kind, raised.Message),
	}
}

func asRaised(err error) *session.RaisedError {
	var raised *session.RaisedError
	if errors.As(err, &raised) {
		return raised
	}
	return &session.RaisedError{Kind: InternalErrorKind, Message: err.Error()}
}

type nopLogger struct{}

func (nopLogger) LogDocumentStart(string, int)                               {}
func (nopLogger) LogExample(*models.Example)                                 {}
func (nopLogger) LogUnexpected(string, *models.Example, *models.ErrorReport) {}
func (nopLogger) LogSummary(models.RunSummary)                               {}
