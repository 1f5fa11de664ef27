// Package calc is a small interpreter for a Python-like expression and
// statement language. It implements session.Interpreter so transcripts can
// be executed without an external runtime.
package calc

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/harrison/docsync/internal/models"
	"github.com/harrison/docsync/internal/session"
)

// ReportFile is the file name raw error reports attribute frames to.
const ReportFile = "<transcript>"

// Interpreter executes commands. It holds no per-run state; every binding
// lives in the namespace passed to Exec.
type Interpreter struct {
	builtins map[string]*builtin
}

// New creates an interpreter with the standard builtins.
func New() *Interpreter {
	return &Interpreter{builtins: standardBuiltins()}
}

// raise is an error raised by a running command.
type raise struct {
	kind string
	msg  string
}

func (e *raise) Error() string {
	if e.msg == "" {
		return e.kind
	}
	return e.kind + ": " + e.msg
}

func raisef(kind, format string, args ...any) error {
	return &raise{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// frame is the state of one Exec call.
type frame struct {
	in    *Interpreter
	ns    *session.Namespace
	lines []string
	line  int
}

func (f *frame) stdout() io.Writer { return f.ns.Stdout() }

// Exec runs source against ns. Errors the command raises are returned as
// *session.RaisedError carrying a raw report.
func (in *Interpreter) Exec(ns *session.Namespace, source string) error {
	f := &frame{in: in, ns: ns, lines: strings.Split(source, "\n")}

	stmts, err := parse(source)
	if err != nil {
		var se *syntaxError
		if errors.As(err, &se) {
			return f.syntaxFailure(se)
		}
		return err
	}

	if err := f.execBlock(stmts); err != nil {
		var r *raise
		if errors.As(err, &r) {
			return f.failure(r)
		}
		return err
	}
	return nil
}

func (f *frame) failure(r *raise) error {
	var b strings.Builder
	b.WriteString(models.DefaultTracebackHeader + "\n")
	fmt.Fprintf(&b, "  File \"%s\", line %d, in <module>\n", ReportFile, f.line)
	if src := f.sourceLine(f.line); src != "" {
		b.WriteString("    " + src + "\n")
	}
	b.WriteString(r.Error() + "\n")
	return &session.RaisedError{Kind: r.kind, Message: r.msg, Report: b.String()}
}

func (f *frame) syntaxFailure(se *syntaxError) error {
	kind := "SyntaxError"
	if strings.Contains(se.msg, "indent") {
		kind = "IndentationError"
	}
	var b strings.Builder
	b.WriteString(models.DefaultTracebackHeader + "\n")
	fmt.Fprintf(&b, "  File \"%s\", line %d\n", ReportFile, se.line)
	if raw := f.rawLine(se.line); strings.TrimSpace(raw) != "" {
		trimmed := strings.TrimLeft(raw, " \t")
		b.WriteString("    " + strings.TrimRight(trimmed, " \t\r") + "\n")
		col := se.col - (len(raw) - len(trimmed))
		if col >= 0 {
			b.WriteString("    " + strings.Repeat(" ", col) + "^\n")
		}
	}
	b.WriteString(kind + ": " + se.msg + "\n")
	return &session.RaisedError{Kind: kind, Message: se.msg, Report: b.String()}
}

func (f *frame) rawLine(n int) string {
	if n < 1 || n > len(f.lines) {
		return ""
	}
	return f.lines[n-1]
}

func (f *frame) sourceLine(n int) string {
	return strings.TrimSpace(f.rawLine(n))
}

func (f *frame) execBlock(stmts []stmt) error {
	for _, s := range stmts {
		if err := f.exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (f *frame) exec(s stmt) error {
	f.line = s.lineNum()

	switch s := s.(type) {
	case *passStmt:
		return nil

	case *exprStmt:
		v, err := f.eval(s.x)
		if err != nil {
			return err
		}
		if v == nil {
			return nil
		}
		f.ns.Set("_", v)
		_, err = io.WriteString(f.stdout(), repr(v)+"\n")
		return err

	case *assignStmt:
		return f.assign(s)

	case *ifStmt:
		cond, err := f.eval(s.cond)
		if err != nil {
			return err
		}
		if truthy(cond) {
			return f.execBlock(s.body)
		}
		return f.execBlock(s.orelse)

	case *forStmt:
		iter, err := f.eval(s.iter)
		if err != nil {
			return err
		}
		return iterate(iter, func(v Value) error {
			f.ns.Set(s.name, v)
			return f.execBlock(s.body)
		})
	}
	return fmt.Errorf("unknown statement %T", s)
}

func (f *frame) assign(s *assignStmt) error {
	value, err := f.eval(s.value)
	if err != nil {
		return err
	}

	if s.op != "" {
		current, err := f.eval(s.target)
		if err != nil {
			return err
		}
		if l, ok := current.(*List); ok && s.op == "+" {
			// in-place extend keeps aliases in sync
			if err := iterate(value, func(v Value) error {
				l.Items = append(l.Items, v)
				return nil
			}); err != nil {
				return err
			}
			value = l
		} else {
			value, err = binary(s.op, current, value)
			if err != nil {
				return err
			}
		}
	}

	switch t := s.target.(type) {
	case *nameExpr:
		f.ns.Set(t.name, value)
		return nil
	case *indexExpr:
		container, err := f.eval(t.x)
		if err != nil {
			return err
		}
		index, err := f.eval(t.index)
		if err != nil {
			return err
		}
		l, ok := container.(*List)
		if !ok {
			return raisef("TypeError", "'%s' object does not support item assignment", typeName(container))
		}
		i, err := listIndex(l, index)
		if err != nil {
			return err
		}
		l.Items[i] = value
		return nil
	}
	return fmt.Errorf("unknown assignment target %T", s.target)
}

func (f *frame) lookup(name string) (Value, error) {
	if v, ok := f.ns.Get(name); ok {
		return v, nil
	}
	if b, ok := f.in.builtins[name]; ok {
		return b, nil
	}
	return nil, raisef("NameError", "name '%s' is not defined", name)
}

func (f *frame) eval(x expr) (Value, error) {
	switch x := x.(type) {
	case *constExpr:
		return x.v, nil

	case *nameExpr:
		return f.lookup(x.name)

	case *listExpr:
		l := &List{Items: make([]Value, 0, len(x.items))}
		for _, item := range x.items {
			v, err := f.eval(item)
			if err != nil {
				return nil, err
			}
			l.Items = append(l.Items, v)
		}
		return l, nil

	case *unaryExpr:
		v, err := f.eval(x.x)
		if err != nil {
			return nil, err
		}
		return unary(x.op, v)

	case *notExpr:
		v, err := f.eval(x.x)
		if err != nil {
			return nil, err
		}
		return !truthy(v), nil

	case *boolExpr:
		l, err := f.eval(x.l)
		if err != nil {
			return nil, err
		}
		if (x.op == "and") != truthy(l) {
			return l, nil
		}
		return f.eval(x.r)

	case *binaryExpr:
		l, err := f.eval(x.l)
		if err != nil {
			return nil, err
		}
		r, err := f.eval(x.r)
		if err != nil {
			return nil, err
		}
		return binary(x.op, l, r)

	case *compareExpr:
		l, err := f.eval(x.operands[0])
		if err != nil {
			return nil, err
		}
		for i, op := range x.ops {
			r, err := f.eval(x.operands[i+1])
			if err != nil {
				return nil, err
			}
			ok, err := compare(op, l, r)
			if err != nil {
				return nil, err
			}
			if !ok {
				return false, nil
			}
			l = r
		}
		return true, nil

	case *indexExpr:
		container, err := f.eval(x.x)
		if err != nil {
			return nil, err
		}
		index, err := f.eval(x.index)
		if err != nil {
			return nil, err
		}
		return subscript(container, index)

	case *attrExpr:
		recv, err := f.eval(x.x)
		if err != nil {
			return nil, err
		}
		if !hasMethod(recv, x.name) {
			return nil, raisef("AttributeError", "'%s' object has no attribute '%s'", typeName(recv), x.name)
		}
		return &boundMethod{recv: recv, name: x.name}, nil

	case *callExpr:
		return f.call(x)
	}
	return nil, fmt.Errorf("unknown expression %T", x)
}

func (f *frame) call(x *callExpr) (Value, error) {
	fn, err := f.eval(x.fn)
	if err != nil {
		return nil, err
	}
	args := make([]Value, 0, len(x.args))
	for _, a := range x.args {
		v, err := f.eval(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	var kwargs map[string]Value
	if len(x.kwargs) > 0 {
		kwargs = make(map[string]Value, len(x.kwargs))
		for _, kw := range x.kwargs {
			v, err := f.eval(kw.value)
			if err != nil {
				return nil, err
			}
			if _, dup := kwargs[kw.name]; dup {
				return nil, raisef("SyntaxError", "keyword argument repeated: %s", kw.name)
			}
			kwargs[kw.name] = v
		}
	}

	switch fn := fn.(type) {
	case *builtin:
		return fn.fn(f, args, kwargs)
	case *boundMethod:
		if len(kwargs) > 0 {
			return nil, raisef("TypeError", "%s.%s() takes no keyword arguments", typeName(fn.recv), fn.name)
		}
		return callMethod(fn, args)
	}
	return nil, raisef("TypeError", "'%s' object is not callable", typeName(fn))
}

// iterate calls yield for each element of v.
func iterate(v Value, yield func(Value) error) error {
	switch x := v.(type) {
	case *List:
		for i := 0; i < len(x.Items); i++ {
			if err := yield(x.Items[i]); err != nil {
				return err
			}
		}
		return nil
	case *Range:
		n := x.Len()
		for i := int64(0); i < n; i++ {
			if err := yield(x.Start + i*x.Step); err != nil {
				return err
			}
		}
		return nil
	case string:
		for _, r := range x {
			if err := yield(string(r)); err != nil {
				return err
			}
		}
		return nil
	}
	return raisef("TypeError", "'%s' object is not iterable", typeName(v))
}

func collect(v Value) ([]Value, error) {
	var items []Value
	err := iterate(v, func(item Value) error {
		items = append(items, item)
		return nil
	})
	return items, err
}

func unary(op string, v Value) (Value, error) {
	switch x := v.(type) {
	case bool:
		n, _ := integer(x)
		return unary(op, n)
	case int64:
		if op == "+" {
			return x, nil
		}
		if x == math.MinInt64 {
			return nil, overflow()
		}
		return -x, nil
	case float64:
		if op == "+" {
			return x, nil
		}
		return -x, nil
	}
	return nil, raisef("TypeError", "bad operand type for unary %s: '%s'", op, typeName(v))
}

func overflow() error {
	return raisef("OverflowError", "integer result out of range")
}

func unsupported(op string, l, r Value) error {
	return raisef("TypeError", "unsupported operand type(s) for %s: '%s' and '%s'", op, typeName(l), typeName(r))
}

func binary(op string, l, r Value) (Value, error) {
	li, lInt := integer(l)
	ri, rInt := integer(r)
	if lInt && rInt {
		return intBinary(op, li, ri)
	}
	lf, lNum := number(l)
	rf, rNum := number(r)
	if lNum && rNum {
		return floatBinary(op, lf, rf)
	}

	switch op {
	case "+":
		switch x := l.(type) {
		case string:
			y, ok := r.(string)
			if !ok {
				return nil, raisef("TypeError", "can only concatenate str (not \"%s\") to str", typeName(r))
			}
			return x + y, nil
		case *List:
			y, ok := r.(*List)
			if !ok {
				return nil, raisef("TypeError", "can only concatenate list (not \"%s\") to list", typeName(r))
			}
			items := make([]Value, 0, len(x.Items)+len(y.Items))
			items = append(items, x.Items...)
			items = append(items, y.Items...)
			return &List{Items: items}, nil
		}
	case "*":
		if n, ok := integer(r); ok {
			return repeat(l, n, op, r)
		}
		if n, ok := integer(l); ok {
			return repeat(r, n, op, l)
		}
	case "%":
		if s, ok := l.(string); ok {
			return formatPercent(s, r)
		}
	}
	return nil, unsupported(op, l, r)
}

func repeat(seq Value, n int64, op string, other Value) (Value, error) {
	if n < 0 {
		n = 0
	}
	switch x := seq.(type) {
	case string:
		if int64(len(x))*n > 1<<24 {
			return nil, raisef("MemoryError", "")
		}
		return strings.Repeat(x, int(n)), nil
	case *List:
		if int64(len(x.Items))*n > 1<<24 {
			return nil, raisef("MemoryError", "")
		}
		items := make([]Value, 0, len(x.Items)*int(n))
		for i := int64(0); i < n; i++ {
			items = append(items, x.Items...)
		}
		return &List{Items: items}, nil
	}
	return nil, unsupported(op, seq, other)
}

// formatPercent supports %s, %r, %d and %% against a single value or a list
// of values.
func formatPercent(format string, arg Value) (Value, error) {
	args := []Value{arg}
	if l, ok := arg.(*List); ok {
		args = l.Items
	}
	var b strings.Builder
	next := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(format) {
			return nil, raisef("ValueError", "incomplete format")
		}
		verb := format[i]
		if verb == '%' {
			b.WriteByte('%')
			continue
		}
		if next >= len(args) {
			return nil, raisef("TypeError", "not enough arguments for format string")
		}
		v := args[next]
		next++
		switch verb {
		case 's':
			b.WriteString(str(v))
		case 'r':
			b.WriteString(repr(v))
		case 'd':
			n, err := toInt(v)
			if err != nil {
				return nil, raisef("TypeError", "%%d format: a real number is required, not %s", typeName(v))
			}
			b.WriteString(repr(n))
		default:
			return nil, raisef("ValueError", "unsupported format character '%c'", verb)
		}
	}
	if next < len(args) {
		return nil, raisef("TypeError", "not all arguments converted during string formatting")
	}
	return b.String(), nil
}

func intBinary(op string, a, b int64) (Value, error) {
	switch op {
	case "+":
		s := a + b
		if (s > a) != (b > 0) {
			return nil, overflow()
		}
		return s, nil
	case "-":
		d := a - b
		if (d < a) != (b > 0) {
			return nil, overflow()
		}
		return d, nil
	case "*":
		if a == 0 || b == 0 {
			return int64(0), nil
		}
		p := a * b
		if p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
			return nil, overflow()
		}
		return p, nil
	case "/":
		if b == 0 {
			return nil, raisef("ZeroDivisionError", "division by zero")
		}
		return float64(a) / float64(b), nil
	case "//":
		if b == 0 {
			return nil, raisef("ZeroDivisionError", "integer division or modulo by zero")
		}
		if a == math.MinInt64 && b == -1 {
			return nil, overflow()
		}
		q := a / b
		if (a%b != 0) && ((a < 0) != (b < 0)) {
			q--
		}
		return q, nil
	case "%":
		if b == 0 {
			return nil, raisef("ZeroDivisionError", "integer division or modulo by zero")
		}
		if b == -1 {
			return int64(0), nil
		}
		m := a % b
		if m != 0 && ((m < 0) != (b < 0)) {
			m += b
		}
		return m, nil
	case "**":
		if b < 0 {
			if a == 0 {
				return nil, raisef("ZeroDivisionError", "0.0 cannot be raised to a negative power")
			}
			return math.Pow(float64(a), float64(b)), nil
		}
		result := int64(1)
		for i := int64(0); i < b; i++ {
			next, err := intBinary("*", result, a)
			if err != nil {
				return nil, err
			}
			result = next.(int64)
			if result == 0 || result == 1 {
				if result == 1 && a == -1 && (b-i-1)%2 == 1 {
					return int64(-1), nil
				}
				break
			}
		}
		return result, nil
	}
	return nil, fmt.Errorf("unknown operator %s", op)
}

func floatBinary(op string, a, b float64) (Value, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return nil, raisef("ZeroDivisionError", "float division by zero")
		}
		return a / b, nil
	case "//":
		if b == 0 {
			return nil, raisef("ZeroDivisionError", "float floor division by zero")
		}
		return math.Floor(a / b), nil
	case "%":
		if b == 0 {
			return nil, raisef("ZeroDivisionError", "float modulo")
		}
		m := math.Mod(a, b)
		if m != 0 && ((m < 0) != (b < 0)) {
			m += b
		}
		return m, nil
	case "**":
		if a == 0 && b < 0 {
			return nil, raisef("ZeroDivisionError", "0.0 cannot be raised to a negative power")
		}
		return math.Pow(a, b), nil
	}
	return nil, fmt.Errorf("unknown operator %s", op)
}

func compare(op string, l, r Value) (bool, error) {
	switch op {
	case "==":
		return equal(l, r), nil
	case "!=":
		return !equal(l, r), nil
	case "is":
		return identical(l, r), nil
	case "is not":
		return !identical(l, r), nil
	case "in", "not in":
		found, err := contains(r, l)
		if err != nil {
			return false, err
		}
		return found == (op == "in"), nil
	}

	c, err := order(op, l, r)
	if err != nil {
		return false, err
	}
	switch op {
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	default:
		return c >= 0, nil
	}
}

func identical(l, r Value) bool {
	switch l.(type) {
	case nil, bool:
		return l == r
	case *List, *Range, *builtin:
		return l == r
	}
	return typeName(l) == typeName(r) && equal(l, r)
}

// order returns -1, 0 or 1 comparing l with r.
func order(op string, l, r Value) (int, error) {
	if lf, ok := number(l); ok {
		if rf, ok := number(r); ok {
			li, lInt := integer(l)
			ri, rInt := integer(r)
			switch {
			case lInt && rInt && li < ri, !(lInt && rInt) && lf < rf:
				return -1, nil
			case lInt && rInt && li > ri, !(lInt && rInt) && lf > rf:
				return 1, nil
			}
			return 0, nil
		}
	}
	if ls, ok := l.(string); ok {
		if rs, ok := r.(string); ok {
			return strings.Compare(ls, rs), nil
		}
	}
	if ll, ok := l.(*List); ok {
		if rl, ok := r.(*List); ok {
			for i := 0; i < len(ll.Items) && i < len(rl.Items); i++ {
				if equal(ll.Items[i], rl.Items[i]) {
					continue
				}
				return order(op, ll.Items[i], rl.Items[i])
			}
			switch {
			case len(ll.Items) < len(rl.Items):
				return -1, nil
			case len(ll.Items) > len(rl.Items):
				return 1, nil
			}
			return 0, nil
		}
	}
	return 0, raisef("TypeError", "'%s' not supported between instances of '%s' and '%s'", op, typeName(l), typeName(r))
}

func contains(container, item Value) (bool, error) {
	switch c := container.(type) {
	case string:
		s, ok := item.(string)
		if !ok {
			return false, raisef("TypeError", "'in <string>' requires string as left operand, not %s", typeName(item))
		}
		return strings.Contains(c, s), nil
	case *List:
		for _, v := range c.Items {
			if equal(v, item) {
				return true, nil
			}
		}
		return false, nil
	case *Range:
		n, ok := integer(item)
		if !ok {
			return false, nil
		}
		if c.Step > 0 && (n < c.Start || n >= c.Stop) || c.Step < 0 && (n > c.Start || n <= c.Stop) {
			return false, nil
		}
		return (n-c.Start)%c.Step == 0, nil
	}
	return false, raisef("TypeError", "argument of type '%s' is not iterable", typeName(container))
}

func subscript(container, index Value) (Value, error) {
	switch c := container.(type) {
	case *List:
		i, err := listIndex(c, index)
		if err != nil {
			return nil, err
		}
		return c.Items[i], nil
	case string:
		runes := []rune(c)
		i, err := seqIndex("string", len(runes), index)
		if err != nil {
			return nil, err
		}
		return string(runes[i]), nil
	case *Range:
		i, err := seqIndex("range object", int(c.Len()), index)
		if err != nil {
			return nil, err
		}
		return c.Start + int64(i)*c.Step, nil
	}
	return nil, raisef("TypeError", "'%s' object is not subscriptable", typeName(container))
}

func listIndex(l *List, index Value) (int, error) {
	return seqIndex("list", len(l.Items), index)
}

func seqIndex(what string, n int, index Value) (int, error) {
	i, ok := integer(index)
	if !ok {
		indices := what
		if what == "range object" {
			indices = "range"
		}
		return 0, raisef("TypeError", "%s indices must be integers or slices, not %s", indices, typeName(index))
	}
	if i < 0 {
		i += int64(n)
	}
	if i < 0 || i >= int64(n) {
		return 0, raisef("IndexError", "%s index out of range", what)
	}
	return int(i), nil
}
