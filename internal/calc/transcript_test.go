package calc_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/docsync/internal/calc"
	"github.com/harrison/docsync/internal/executor"
	"github.com/harrison/docsync/internal/generator"
	"github.com/harrison/docsync/internal/models"
	"github.com/harrison/docsync/internal/parser"
)

// regenerate parses src, runs it with the calc interpreter and renders it.
func regenerate(t *testing.T, src string) string {
	t.Helper()
	dialect := models.DefaultDialect()
	doc, err := parser.NewTranscriptParser(dialect).Parse(strings.NewReader(src))
	require.NoError(t, err)

	executor.NewRunner(calc.New()).Run(doc)
	return generator.New(dialect).Generate(doc)
}

func TestRegenerateTranscripts(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "fills missing output",
			src:  ">>> 2+2\n>>> 3**4\n",
			want: ">>> 2+2\n4\n>>> 3**4\n81\n",
		},
		{
			name: "replaces stale output",
			src:  ">>> 2+2\n5\n>>> 3**4\n48\n",
			want: ">>> 2+2\n4\n>>> 3**4\n81\n",
		},
		{
			name: "prose and indented examples",
			src: "The interpreter acts as a simple calculator.\n\n" +
				"    >>> 2+2\n" +
				"    >>> 50 - 5*6\n" +
				"    >>> (50 - 5*6) // 4\n" +
				"\n" +
				"Powers use the ``**`` operator::\n\n" +
				"   >>> 5 ** 2  # 5 squared\n" +
				"   >>> 2 ** 7  # 2 to the power of 7\n",
			want: "The interpreter acts as a simple calculator.\n\n" +
				"    >>> 2+2\n    4\n" +
				"    >>> 50 - 5*6\n    20\n" +
				"    >>> (50 - 5*6) // 4\n    5\n" +
				"\n" +
				"Powers use the ``**`` operator::\n\n" +
				"   >>> 5 ** 2  # 5 squared\n   25\n" +
				"   >>> 2 ** 7  # 2 to the power of 7\n   128\n",
		},
		{
			name: "blank lines between examples survive",
			src:  ">>> 1+1\n>>> 2+2\n\n\n\n>>> 2**6; 3**4\n64\n\n>>> 10//2\n",
			want: ">>> 1+1\n2\n>>> 2+2\n4\n\n\n\n>>> 2**6; 3**4\n64\n81\n\n>>> 10//2\n5\n",
		},
		{
			name: "per example indentation",
			src:  ">>> 2+3\n     >>> 3*2\n\n  >>> 7*7\n",
			want: ">>> 2+3\n5\n     >>> 3*2\n     6\n\n  >>> 7*7\n  49\n",
		},
		{
			name: "multi-line source",
			src:  ">>> for x in range(3):\n...     (x+2)**2\n",
			want: ">>> for x in range(3):\n...     (x+2)**2\n4\n9\n16\n",
		},
		{
			name: "errors become normalized reports",
			src:  ">>> int('x')\n\n>>> [][0]\n",
			want: ">>> int('x')\n" +
				"Traceback (most recent call last):\n" +
				"ValueError: invalid literal for int() with base 10: 'x'\n" +
				"\n" +
				">>> [][0]\n" +
				"Traceback (most recent call last):\n" +
				"IndexError: list index out of range\n",
		},
		{
			name: "mismatching recorded error is replaced",
			src:  ">>> 1/0\nTraceback (most recent call last):\nIndexError: xxx\n",
			want: ">>> 1/0\nTraceback (most recent call last):\nZeroDivisionError: division by zero\n",
		},
		{
			name: "blank output lines use the placeholder",
			src:  ">>> 1; print(); 42\n>>> print(' ');print(' ');print()\n",
			want: ">>> 1; print(); 42\n1\n<BLANKLINE>\n42\n" +
				">>> print(' ');print(' ');print()\n<BLANKLINE>\n<BLANKLINE>\n<BLANKLINE>\n",
		},
		{
			name: "failed command keeps bindings made before raising",
			src:  ">>> x = 1\n>>> x = 2; 1/0\n>>> x\n",
			want: ">>> x = 1\n>>> x = 2; 1/0\n" +
				"Traceback (most recent call last):\nZeroDivisionError: division by zero\n" +
				">>> x\n2\n",
		},
		{
			name: "failed command keeps new names",
			src:  ">>> a = 5; 1/0\n>>> a\n",
			want: ">>> a = 5; 1/0\n" +
				"Traceback (most recent call last):\nZeroDivisionError: division by zero\n" +
				">>> a\n5\n",
		},
		{
			name: "failed command keeps mutations",
			src:  ">>> l = [1]\n>>> l[0] = 2; 1/0\n>>> l\n",
			want: ">>> l = [1]\n>>> l[0] = 2; 1/0\n" +
				"Traceback (most recent call last):\nZeroDivisionError: division by zero\n" +
				">>> l\n[2]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, regenerate(t, tt.src))
		})
	}
}

func TestRegenerateIsIdempotent(t *testing.T) {
	src := "Intro.\n\n>>> xs = [3, 1, 2]\n>>> max(xs)\n>>> xs[5]\n>>> print('a\\n\\nb')\n"
	once := regenerate(t, src)
	assert.Equal(t, once, regenerate(t, once))
}
