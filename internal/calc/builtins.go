package calc

import (
	"io"
	"math"
	"strconv"
	"strings"
)

func standardBuiltins() map[string]*builtin {
	defs := []*builtin{
		{name: "print", fn: builtinPrint},
		{name: "int", fn: positional("int", 0, 1, func(args []Value) (Value, error) {
			if len(args) == 0 {
				return int64(0), nil
			}
			return toInt(args[0])
		})},
		{name: "float", fn: positional("float", 0, 1, func(args []Value) (Value, error) {
			if len(args) == 0 {
				return 0.0, nil
			}
			return toFloat(args[0])
		})},
		{name: "str", fn: positional("str", 0, 1, func(args []Value) (Value, error) {
			if len(args) == 0 {
				return "", nil
			}
			return str(args[0]), nil
		})},
		{name: "repr", fn: positional("repr", 1, 1, func(args []Value) (Value, error) {
			return repr(args[0]), nil
		})},
		{name: "bool", fn: positional("bool", 0, 1, func(args []Value) (Value, error) {
			return len(args) == 1 && truthy(args[0]), nil
		})},
		{name: "len", fn: positional("len", 1, 1, func(args []Value) (Value, error) {
			switch x := args[0].(type) {
			case string:
				return int64(len([]rune(x))), nil
			case *List:
				return int64(len(x.Items)), nil
			case *Range:
				return x.Len(), nil
			}
			return nil, raisef("TypeError", "object of type '%s' has no len()", typeName(args[0]))
		})},
		{name: "range", fn: positional("range", 1, 3, builtinRange)},
		{name: "list", fn: positional("list", 0, 1, func(args []Value) (Value, error) {
			if len(args) == 0 {
				return &List{}, nil
			}
			items, err := collect(args[0])
			if err != nil {
				return nil, err
			}
			return &List{Items: items}, nil
		})},
		{name: "abs", fn: positional("abs", 1, 1, func(args []Value) (Value, error) {
			switch x := args[0].(type) {
			case bool, int64:
				n, _ := integer(x)
				if n < 0 {
					return unary("-", n)
				}
				return n, nil
			case float64:
				return math.Abs(x), nil
			}
			return nil, raisef("TypeError", "bad operand type for abs(): '%s'", typeName(args[0]))
		})},
		{name: "sum", fn: positional("sum", 1, 2, func(args []Value) (Value, error) {
			var total Value = int64(0)
			if len(args) == 2 {
				if _, ok := args[1].(string); ok {
					return nil, raisef("TypeError", "sum() can't sum strings [use ''.join(seq) instead]")
				}
				total = args[1]
			}
			err := iterate(args[0], func(v Value) error {
				next, err := binary("+", total, v)
				total = next
				return err
			})
			if err != nil {
				return nil, err
			}
			return total, nil
		})},
		{name: "min", fn: extremum("min", -1)},
		{name: "max", fn: extremum("max", 1)},
	}

	builtins := make(map[string]*builtin, len(defs))
	for _, b := range defs {
		builtins[b.name] = b
	}
	return builtins
}

// positional adapts a function taking between min and max positional
// arguments and no keyword arguments.
func positional(name string, min, max int, fn func(args []Value) (Value, error)) func(*frame, []Value, map[string]Value) (Value, error) {
	return func(_ *frame, args []Value, kwargs map[string]Value) (Value, error) {
		if len(kwargs) > 0 {
			return nil, raisef("TypeError", "%s() takes no keyword arguments", name)
		}
		switch {
		case len(args) < min && min == max:
			return nil, raisef("TypeError", "%s() takes exactly one argument (%d given)", name, len(args))
		case len(args) < min:
			return nil, raisef("TypeError", "%s expected at least %d argument, got %d", name, min, len(args))
		case len(args) > max:
			return nil, raisef("TypeError", "%s expected at most %d arguments, got %d", name, max, len(args))
		}
		return fn(args)
	}
}

func builtinPrint(f *frame, args []Value, kwargs map[string]Value) (Value, error) {
	sep, end := " ", "\n"
	for k, v := range kwargs {
		s, ok := v.(string)
		if v != nil && !ok {
			return nil, raisef("TypeError", "%s must be None or a string, not %s", k, typeName(v))
		}
		switch k {
		case "sep":
			if v != nil {
				sep = s
			}
		case "end":
			if v != nil {
				end = s
			}
		default:
			return nil, raisef("TypeError", "'%s' is an invalid keyword argument for print()", k)
		}
	}

	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = str(a)
	}
	_, err := io.WriteString(f.stdout(), strings.Join(parts, sep)+end)
	return nil, err
}

func builtinRange(args []Value) (Value, error) {
	bounds := make([]int64, len(args))
	for i, a := range args {
		n, ok := integer(a)
		if !ok {
			return nil, raisef("TypeError", "'%s' object cannot be interpreted as an integer", typeName(a))
		}
		bounds[i] = n
	}
	r := &Range{Step: 1}
	switch len(bounds) {
	case 1:
		r.Stop = bounds[0]
	case 2:
		r.Start, r.Stop = bounds[0], bounds[1]
	case 3:
		r.Start, r.Stop, r.Step = bounds[0], bounds[1], bounds[2]
		if r.Step == 0 {
			return nil, raisef("ValueError", "range() arg 3 must not be zero")
		}
	}
	return r, nil
}

func extremum(name string, want int) func(*frame, []Value, map[string]Value) (Value, error) {
	return func(_ *frame, args []Value, kwargs map[string]Value) (Value, error) {
		if len(kwargs) > 0 {
			return nil, raisef("TypeError", "%s() takes no keyword arguments", name)
		}
		if len(args) == 0 {
			return nil, raisef("TypeError", "%s expected at least 1 argument, got 0", name)
		}
		items := args
		if len(args) == 1 {
			var err error
			if items, err = collect(args[0]); err != nil {
				return nil, err
			}
			if len(items) == 0 {
				return nil, raisef("ValueError", "%s() arg is an empty sequence", name)
			}
		}
		best := items[0]
		for _, v := range items[1:] {
			op := "<"
			if want > 0 {
				op = ">"
			}
			c, err := order(op, v, best)
			if err != nil {
				return nil, err
			}
			if c == want {
				best = v
			}
		}
		return best, nil
	}
}

func toInt(v Value) (Value, error) {
	switch x := v.(type) {
	case bool, int64:
		n, _ := integer(x)
		return n, nil
	case float64:
		if math.IsInf(x, 0) {
			return nil, raisef("OverflowError", "cannot convert float infinity to integer")
		}
		if math.IsNaN(x) {
			return nil, raisef("ValueError", "cannot convert float NaN to integer")
		}
		t := math.Trunc(x)
		if t >= 9.223372036854775807e18 || t < -9.223372036854775808e18 {
			return nil, overflow()
		}
		return int64(t), nil
	case string:
		text := strings.TrimSpace(x)
		if text != "" && !strings.HasPrefix(text, "_") && !strings.HasSuffix(text, "_") && !strings.Contains(text, "__") {
			if n, err := strconv.ParseInt(strings.ReplaceAll(text, "_", ""), 10, 64); err == nil {
				return n, nil
			} else if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
				return nil, overflow()
			}
		}
		return nil, raisef("ValueError", "invalid literal for int() with base 10: %s", quote(x))
	}
	return nil, raisef("TypeError", "int() argument must be a string, a bytes-like object or a real number, not '%s'", typeName(v))
}

func toFloat(v Value) (Value, error) {
	if f, ok := number(v); ok {
		return f, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, raisef("TypeError", "float() argument must be a string or a real number, not '%s'", typeName(v))
	}
	text := strings.ToLower(strings.TrimSpace(s))
	switch strings.TrimLeft(text, "+-") {
	case "inf", "infinity", "nan":
		f, _ := strconv.ParseFloat(text, 64)
		return f, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil && !strings.Contains(err.Error(), "range") {
		return nil, raisef("ValueError", "could not convert string to float: %s", quote(s))
	}
	return f, nil
}

var methods = map[string]map[string]bool{
	"list": {"append": true, "pop": true, "extend": true, "insert": true, "index": true, "count": true, "reverse": true},
	"str": {
		"upper": true, "lower": true, "strip": true, "split": true, "join": true,
		"replace": true, "startswith": true, "endswith": true, "count": true,
	},
}

func hasMethod(recv Value, name string) bool {
	return methods[typeName(recv)][name]
}

func arity(m *boundMethod, args []Value, min, max int) error {
	if len(args) < min || len(args) > max {
		if min == max {
			return raisef("TypeError", "%s.%s() takes exactly %d argument (%d given)", typeName(m.recv), m.name, min, len(args))
		}
		return raisef("TypeError", "%s.%s() takes from %d to %d arguments (%d given)", typeName(m.recv), m.name, min, max, len(args))
	}
	return nil
}

func stringArg(m *boundMethod, v Value) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", raisef("TypeError", "%s.%s() argument must be str, not %s", typeName(m.recv), m.name, typeName(v))
	}
	return s, nil
}

func callMethod(m *boundMethod, args []Value) (Value, error) {
	switch recv := m.recv.(type) {
	case *List:
		return listMethod(m, recv, args)
	case string:
		return stringMethod(m, recv, args)
	}
	return nil, raisef("AttributeError", "'%s' object has no attribute '%s'", typeName(m.recv), m.name)
}

func listMethod(m *boundMethod, l *List, args []Value) (Value, error) {
	switch m.name {
	case "append":
		if err := arity(m, args, 1, 1); err != nil {
			return nil, err
		}
		l.Items = append(l.Items, args[0])
		return nil, nil
	case "extend":
		if err := arity(m, args, 1, 1); err != nil {
			return nil, err
		}
		items, err := collect(args[0])
		if err != nil {
			return nil, err
		}
		l.Items = append(l.Items, items...)
		return nil, nil
	case "pop":
		if err := arity(m, args, 0, 1); err != nil {
			return nil, err
		}
		if len(l.Items) == 0 {
			return nil, raisef("IndexError", "pop from empty list")
		}
		i := len(l.Items) - 1
		if len(args) == 1 {
			var err error
			if i, err = seqIndex("pop", len(l.Items), args[0]); err != nil {
				return nil, err
			}
		}
		v := l.Items[i]
		l.Items = append(l.Items[:i], l.Items[i+1:]...)
		return v, nil
	case "insert":
		if err := arity(m, args, 2, 2); err != nil {
			return nil, err
		}
		i, ok := integer(args[0])
		if !ok {
			return nil, raisef("TypeError", "'%s' object cannot be interpreted as an integer", typeName(args[0]))
		}
		n := int64(len(l.Items))
		if i < 0 {
			i += n
		}
		i = max(0, min(i, n))
		l.Items = append(l.Items, nil)
		copy(l.Items[i+1:], l.Items[i:])
		l.Items[i] = args[1]
		return nil, nil
	case "index":
		if err := arity(m, args, 1, 1); err != nil {
			return nil, err
		}
		for i, v := range l.Items {
			if equal(v, args[0]) {
				return int64(i), nil
			}
		}
		return nil, raisef("ValueError", "%s is not in list", repr(args[0]))
	case "count":
		if err := arity(m, args, 1, 1); err != nil {
			return nil, err
		}
		n := int64(0)
		for _, v := range l.Items {
			if equal(v, args[0]) {
				n++
			}
		}
		return n, nil
	case "reverse":
		if err := arity(m, args, 0, 0); err != nil {
			return nil, err
		}
		for i, j := 0, len(l.Items)-1; i < j; i, j = i+1, j-1 {
			l.Items[i], l.Items[j] = l.Items[j], l.Items[i]
		}
		return nil, nil
	}
	return nil, raisef("AttributeError", "'list' object has no attribute '%s'", m.name)
}

func stringMethod(m *boundMethod, s string, args []Value) (Value, error) {
	switch m.name {
	case "upper", "lower", "strip":
		if err := arity(m, args, 0, 0); err != nil {
			return nil, err
		}
		switch m.name {
		case "upper":
			return strings.ToUpper(s), nil
		case "lower":
			return strings.ToLower(s), nil
		}
		return strings.TrimSpace(s), nil

	case "split":
		if err := arity(m, args, 0, 1); err != nil {
			return nil, err
		}
		var parts []string
		if len(args) == 0 || args[0] == nil {
			parts = strings.Fields(s)
		} else {
			sep, err := stringArg(m, args[0])
			if err != nil {
				return nil, err
			}
			if sep == "" {
				return nil, raisef("ValueError", "empty separator")
			}
			parts = strings.Split(s, sep)
		}
		l := &List{Items: make([]Value, len(parts))}
		for i, p := range parts {
			l.Items[i] = p
		}
		return l, nil

	case "join":
		if err := arity(m, args, 1, 1); err != nil {
			return nil, err
		}
		items, err := collect(args[0])
		if err != nil {
			return nil, err
		}
		parts := make([]string, len(items))
		for i, item := range items {
			p, ok := item.(string)
			if !ok {
				return nil, raisef("TypeError", "sequence item %d: expected str instance, %s found", i, typeName(item))
			}
			parts[i] = p
		}
		return strings.Join(parts, s), nil

	case "replace":
		if err := arity(m, args, 2, 2); err != nil {
			return nil, err
		}
		old, err := stringArg(m, args[0])
		if err != nil {
			return nil, err
		}
		repl, err := stringArg(m, args[1])
		if err != nil {
			return nil, err
		}
		return strings.ReplaceAll(s, old, repl), nil

	case "startswith", "endswith", "count":
		if err := arity(m, args, 1, 1); err != nil {
			return nil, err
		}
		sub, err := stringArg(m, args[0])
		if err != nil {
			return nil, err
		}
		switch m.name {
		case "startswith":
			return strings.HasPrefix(s, sub), nil
		case "endswith":
			return strings.HasSuffix(s, sub), nil
		}
		if sub == "" {
			return int64(len([]rune(s)) + 1), nil
		}
		return int64(strings.Count(s, sub)), nil
	}
	return nil, raisef("AttributeError", "'str' object has no attribute '%s'", m.name)
}
