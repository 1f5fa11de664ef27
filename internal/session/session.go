// Package session defines the execution context shared by the commands of
// one document run and the contract an interpreter must satisfy to execute
// them.
package session

import (
	"io"
	"sort"
)

// Interpreter executes one command against a namespace.
//
// Exec writes everything the command prints, and the display form of every
// value the command yields, to ns.Stdout() in emission order. A command that
// raises returns a *RaisedError. Any other error is treated by callers as an
// interpreter failure.
type Interpreter interface {
	Exec(ns *Namespace, source string) error
}

// RaisedError is the structured form of an error raised by a command.
type RaisedError struct {
	Kind    string // Error kind, e.g. "ValueError"
	Message string // Optional message, empty when the error carries none
	Report  string // Optional raw, possibly multi-frame, error report
}

// Error implements the error interface for RaisedError.
func (e *RaisedError) Error() string {
	if e.Message == "" {
		return e.Kind
	}
	return e.Kind + ": " + e.Message
}

// Namespace holds the bindings of one document run and the stream commands
// write to. It belongs to a single run and is not safe for concurrent use.
type Namespace struct {
	bindings map[string]any
	stdout   io.Writer
}

// NewNamespace creates an empty namespace whose stream discards output.
func NewNamespace() *Namespace {
	return &Namespace{
		bindings: make(map[string]any),
		stdout:   io.Discard,
	}
}

// Get returns the value bound to name.
func (ns *Namespace) Get(name string) (any, bool) {
	v, ok := ns.bindings[name]
	return v, ok
}

// Set binds name to v.
func (ns *Namespace) Set(name string, v any) {
	ns.bindings[name] = v
}

// Delete removes the binding for name.
func (ns *Namespace) Delete(name string) {
	delete(ns.bindings, name)
}

// Names returns the bound names in sorted order.
func (ns *Namespace) Names() []string {
	names := make([]string, 0, len(ns.bindings))
	for name := range ns.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stdout returns the stream commands write to.
func (ns *Namespace) Stdout() io.Writer {
	return ns.stdout
}

// Redirect points the stream at w and returns a function restoring the
// previous stream. Callers defer the restore so the redirect never outlives
// the command it was made for.
func (ns *Namespace) Redirect(w io.Writer) (restore func()) {
	prev := ns.stdout
	ns.stdout = w
	return func() { ns.stdout = prev }
}
