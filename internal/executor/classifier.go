package executor

import (
	"github.com/harrison/docsync/internal/models"
	"github.com/harrison/docsync/internal/session"
)

// Classifier decides whether a raised error is outside the behaviour the
// harness anticipates. Unexpected errors are reported on the diagnostic
// channel and are not substituted into the document.
type Classifier interface {
	Unexpected(ex *models.Example, raised *session.RaisedError) bool
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ex *models.Example, raised *session.RaisedError) bool

// Unexpected calls f.
func (f ClassifierFunc) Unexpected(ex *models.Example, raised *session.RaisedError) bool {
	return f(ex, raised)
}

// ExpectAll treats every raised error as expected.
var ExpectAll Classifier = ClassifierFunc(func(*models.Example, *session.RaisedError) bool { return false })

// KindClassifier treats a fixed set of error kinds as unexpected.
type KindClassifier struct {
	kinds map[string]bool
}

// NewKindClassifier creates a classifier for the given kinds.
func NewKindClassifier(kinds []string) *KindClassifier {
	c := &KindClassifier{kinds: make(map[string]bool, len(kinds))}
	for _, k := range kinds {
		c.kinds[k] = true
	}
	return c
}

// Unexpected reports whether the raised kind is in the set.
func (c *KindClassifier) Unexpected(_ *models.Example, raised *session.RaisedError) bool {
	return c.kinds[raised.Kind]
}

// AnyUnexpected combines classifiers; an error is unexpected when any of
// them says so.
func AnyUnexpected(classifiers ...Classifier) Classifier {
	return ClassifierFunc(func(ex *models.Example, raised *session.RaisedError) bool {
		for _, c := range classifiers {
			if c != nil && c.Unexpected(ex, raised) {
				return true
			}
		}
		return false
	})
}
