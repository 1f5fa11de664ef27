package calc

import (
	"math"
	"strconv"
	"strings"
)

// Value is a runtime value: nil (None), bool, int64, float64, string,
// *List, *Range or a callable.
type Value = any

// List is a mutable sequence. Assigning a list shares it.
type List struct {
	Items []Value
}

// Range is the lazy integer sequence produced by range().
type Range struct {
	Start, Stop, Step int64
}

// Len returns the number of integers the range yields.
func (r *Range) Len() int64 {
	switch {
	case r.Step > 0 && r.Start < r.Stop:
		return (r.Stop - r.Start + r.Step - 1) / r.Step
	case r.Step < 0 && r.Start > r.Stop:
		return (r.Start - r.Stop - r.Step - 1) / -r.Step
	}
	return 0
}

// builtin is a callable provided by the interpreter.
type builtin struct {
	name string
	fn   func(f *frame, args []Value, kwargs map[string]Value) (Value, error)
}

// boundMethod is an attribute lookup on a list or string awaiting its call.
type boundMethod struct {
	recv Value
	name string
}

func typeName(v Value) string {
	switch v.(type) {
	case nil:
		return "NoneType"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "str"
	case *List:
		return "list"
	case *Range:
		return "range"
	case *builtin, *boundMethod:
		return "builtin_function_or_method"
	}
	return "object"
}

func truthy(v Value) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	case *List:
		return len(x.Items) > 0
	case *Range:
		return x.Len() > 0
	}
	return true
}

// repr renders the display form that a bare expression echoes.
func repr(v Value) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatFloat(x)
	case string:
		return quote(x)
	case *List:
		var b strings.Builder
		b.WriteByte('[')
		for i, item := range x.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			if item == v {
				b.WriteString("[...]")
				continue
			}
			b.WriteString(repr(item))
		}
		b.WriteByte(']')
		return b.String()
	case *Range:
		if x.Step == 1 {
			return "range(" + strconv.FormatInt(x.Start, 10) + ", " + strconv.FormatInt(x.Stop, 10) + ")"
		}
		return "range(" + strconv.FormatInt(x.Start, 10) + ", " + strconv.FormatInt(x.Stop, 10) + ", " + strconv.FormatInt(x.Step, 10) + ")"
	case *builtin:
		return "<built-in function " + x.name + ">"
	case *boundMethod:
		return "<built-in method " + x.name + " of " + typeName(x.recv) + " object>"
	}
	return "<object>"
}

// str renders the form print() and str() use.
func str(v Value) string {
	if s, ok := v.(string); ok {
		return s
	}
	return repr(v)
}

// formatFloat follows the shortest round-trip rendering, using exponent
// notation outside 1e-4 <= |f| < 1e16.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[0]
		digits := strings.TrimLeft(exp[1:], "0")
		if len(digits) < 2 {
			digits = strings.Repeat("0", 2-len(digits)) + digits
		}
		return mant + "e" + string(sign) + digits
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

// quote prefers single quotes, switching to double quotes when the text
// contains a single quote and no double quote.
func quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}
	var b strings.Builder
	b.WriteByte(q)
	for _, r := range s {
		switch {
		case r == rune(q) || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < 0x20 || r == 0x7f:
			b.WriteString(`\x`)
			b.WriteString(strconv.FormatInt(int64(r)+0x100, 16)[1:])
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}

// equal implements ==. Numbers compare by value across int, float and bool.
func equal(a, b Value) bool {
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			if ia, ok := a.(int64); ok {
				if ib, ok := b.(int64); ok {
					return ia == ib
				}
			}
			return fa == fb
		}
		return false
	}
	switch x := a.(type) {
	case nil:
		return b == nil
	case string:
		y, ok := b.(string)
		return ok && x == y
	case *List:
		y, ok := b.(*List)
		if !ok || len(x.Items) != len(y.Items) {
			return false
		}
		for i := range x.Items {
			if !equal(x.Items[i], y.Items[i]) {
				return false
			}
		}
		return true
	case *Range:
		y, ok := b.(*Range)
		return ok && *x == *y
	}
	return a == b
}

// number widens numeric values to float64. Booleans count as 0 and 1.
func number(v Value) (float64, bool) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// integer narrows bools and ints to int64.
func integer(v Value) (int64, bool) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case int64:
		return x, true
	}
	return 0, false
}
