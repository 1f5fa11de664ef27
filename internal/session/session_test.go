package session

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamespaceBindings(t *testing.T) {
	ns := NewNamespace()
	ns.Set("b", 2)
	ns.Set("a", 1)

	v, ok := ns.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, []string{"a", "b"}, ns.Names())

	ns.Delete("a")
	_, ok = ns.Get("a")
	assert.False(t, ok)
}

func TestNamespaceRedirect(t *testing.T) {
	ns := NewNamespace()
	assert.Equal(t, io.Discard, ns.Stdout())

	var outer, inner bytes.Buffer
	restoreOuter := ns.Redirect(&outer)
	fmt.Fprint(ns.Stdout(), "a")

	restoreInner := ns.Redirect(&inner)
	fmt.Fprint(ns.Stdout(), "b")
	restoreInner()

	fmt.Fprint(ns.Stdout(), "c")
	restoreOuter()

	assert.Equal(t, "ac", outer.String())
	assert.Equal(t, "b", inner.String())
	assert.Equal(t, io.Discard, ns.Stdout())
}

func TestRaisedErrorMessage(t *testing.T) {
	assert.Equal(t, "ValueError: bad", (&RaisedError{Kind: "ValueError", Message: "bad"}).Error())
	assert.Equal(t, "StopIteration", (&RaisedError{Kind: "StopIteration"}).Error())
}
