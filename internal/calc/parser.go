package calc

import (
	"fmt"
	"strings"
)

// Statements

type stmt interface{ lineNum() int }

type pos struct{ line int }

func (p pos) lineNum() int { return p.line }

type exprStmt struct {
	pos
	x expr
}

type assignStmt struct {
	pos
	target expr   // *nameExpr or *indexExpr
	op     string // "" for plain assignment, else the binary operator of an augmented one
	value  expr
}

type forStmt struct {
	pos
	name string
	iter expr
	body []stmt
}

type ifStmt struct {
	pos
	cond   expr
	body   []stmt
	orelse []stmt
}

type passStmt struct{ pos }

// Expressions

type expr interface{}

type constExpr struct{ v Value }

type nameExpr struct{ name string }

type listExpr struct{ items []expr }

type unaryExpr struct {
	op string
	x  expr
}

type notExpr struct{ x expr }

type binaryExpr struct {
	op   string
	l, r expr
}

type boolExpr struct {
	op   string // "and" or "or"
	l, r expr
}

type compareExpr struct {
	ops      []string
	operands []expr
}

type callExpr struct {
	fn     expr
	args   []expr
	kwargs []keyword
}

type keyword struct {
	name  string
	value expr
}

type indexExpr struct {
	x, index expr
}

type attrExpr struct {
	x    expr
	name string
}

var keywords = map[string]bool{
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"for": true, "if": true, "elif": true, "else": true, "pass": true,
	"True": true, "False": true, "None": true,
}

// srcLine is one non-blank physical line of a command.
type srcLine struct {
	num    int // 1-based
	indent int
	toks   []token
}

// parse turns command source into statements.
func parse(source string) ([]stmt, error) {
	var lines []srcLine
	for i, text := range strings.Split(strings.TrimRight(source, "\n"), "\n") {
		toks, err := tokenize(text, i+1)
		if err != nil {
			return nil, err
		}
		if toks[0].kind == tokEOF {
			continue
		}
		lines = append(lines, srcLine{num: i + 1, indent: indentOf(text), toks: toks})
	}
	if len(lines) == 0 {
		return nil, nil
	}

	bp := &blockParser{lines: lines}
	if lines[0].indent != 0 {
		return nil, &syntaxError{line: lines[0].num, msg: "unexpected indent"}
	}
	return bp.block(0)
}

func indentOf(text string) int {
	n := 0
	for n < len(text) && (text[n] == ' ' || text[n] == '\t') {
		n++
	}
	return n
}

type blockParser struct {
	lines []srcLine
	pos   int
}

// block parses consecutive lines at exactly indent.
func (bp *blockParser) block(indent int) ([]stmt, error) {
	var stmts []stmt
	for bp.pos < len(bp.lines) {
		ln := bp.lines[bp.pos]
		if ln.indent < indent {
			break
		}
		if ln.indent > indent {
			return nil, &syntaxError{line: ln.num, msg: "unexpected indent"}
		}
		if isKeyword(ln.toks[0], "elif") || isKeyword(ln.toks[0], "else") {
			return nil, &syntaxError{line: ln.num, col: ln.toks[0].col, msg: "invalid syntax"}
		}
		parsed, err := bp.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, parsed...)
	}
	return stmts, nil
}

// statement parses the line at bp.pos, plus the suite of a compound statement.
func (bp *blockParser) statement() ([]stmt, error) {
	ln := bp.lines[bp.pos]
	bp.pos++
	tp := &tokParser{toks: ln.toks, line: ln.num}

	switch {
	case isKeyword(tp.peek(), "for"):
		tp.next()
		name := tp.next()
		if name.kind != tokName || keywords[name.text] {
			return nil, tp.errorAt(name, "invalid syntax")
		}
		if !isKeyword(tp.next(), "in") {
			return nil, tp.errorAt(tp.prev(), "invalid syntax")
		}
		iter, err := tp.expression()
		if err != nil {
			return nil, err
		}
		body, err := bp.suite(tp, ln)
		if err != nil {
			return nil, err
		}
		return []stmt{&forStmt{pos: pos{ln.num}, name: name.text, iter: iter, body: body}}, nil

	case isKeyword(tp.peek(), "if"):
		tp.next()
		s, err := bp.ifChain(tp, ln)
		if err != nil {
			return nil, err
		}
		return []stmt{s}, nil
	}

	return tp.simpleStatements()
}

// ifChain parses the condition and suite of an if/elif, then any elif or
// else clause on the following lines at the same indent.
func (bp *blockParser) ifChain(tp *tokParser, ln srcLine) (stmt, error) {
	cond, err := tp.expression()
	if err != nil {
		return nil, err
	}
	body, err := bp.suite(tp, ln)
	if err != nil {
		return nil, err
	}
	s := &ifStmt{pos: pos{ln.num}, cond: cond, body: body}

	if bp.pos >= len(bp.lines) || bp.lines[bp.pos].indent != ln.indent {
		return s, nil
	}
	next := bp.lines[bp.pos]
	switch {
	case isKeyword(next.toks[0], "elif"):
		bp.pos++
		ntp := &tokParser{toks: next.toks, line: next.num}
		ntp.next()
		elif, err := bp.ifChain(ntp, next)
		if err != nil {
			return nil, err
		}
		s.orelse = []stmt{elif}
	case isKeyword(next.toks[0], "else"):
		bp.pos++
		ntp := &tokParser{toks: next.toks, line: next.num}
		ntp.next()
		orelse, err := bp.suite(ntp, next)
		if err != nil {
			return nil, err
		}
		s.orelse = orelse
	}
	return s, nil
}

// suite parses ":" followed by either inline simple statements or an
// indented block on the following lines.
func (bp *blockParser) suite(tp *tokParser, ln srcLine) ([]stmt, error) {
	if !tp.acceptOp(":") {
		return nil, tp.errorAt(tp.peek(), "expected ':'")
	}
	if tp.peek().kind != tokEOF {
		return tp.simpleStatements()
	}
	if bp.pos >= len(bp.lines) || bp.lines[bp.pos].indent <= ln.indent {
		return nil, &syntaxError{line: ln.num, msg: "expected an indented block"}
	}
	return bp.block(bp.lines[bp.pos].indent)
}

// tokParser parses the tokens of a single line.
type tokParser struct {
	toks []token
	i    int
	line int
}

func (tp *tokParser) peek() token { return tp.toks[tp.i] }

func (tp *tokParser) prev() token {
	if tp.i == 0 {
		return tp.toks[0]
	}
	return tp.toks[tp.i-1]
}

func (tp *tokParser) next() token {
	t := tp.toks[tp.i]
	if t.kind != tokEOF {
		tp.i++
	}
	return t
}

func (tp *tokParser) acceptOp(op string) bool {
	if t := tp.peek(); t.kind == tokOp && t.text == op {
		tp.i++
		return true
	}
	return false
}

func (tp *tokParser) acceptKeyword(kw string) bool {
	if isKeyword(tp.peek(), kw) {
		tp.i++
		return true
	}
	return false
}

func (tp *tokParser) errorAt(t token, msg string) error {
	return &syntaxError{line: tp.line, col: t.col, msg: msg}
}

// simpleStatements parses ";"-separated statements up to the end of the line.
func (tp *tokParser) simpleStatements() ([]stmt, error) {
	var stmts []stmt
	for {
		s, err := tp.simpleStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)

		if !tp.acceptOp(";") {
			break
		}
		if tp.peek().kind == tokEOF {
			break
		}
	}
	if t := tp.peek(); t.kind != tokEOF {
		return nil, tp.errorAt(t, "invalid syntax")
	}
	return stmts, nil
}

var augmented = map[string]string{
	"+=": "+", "-=": "-", "*=": "*", "/=": "/", "//=": "//", "%=": "%", "**=": "**",
}

func (tp *tokParser) simpleStatement() (stmt, error) {
	p := pos{tp.line}
	if tp.acceptKeyword("pass") {
		return &passStmt{pos: p}, nil
	}

	x, err := tp.expression()
	if err != nil {
		return nil, err
	}

	t := tp.peek()
	if t.kind != tokOp {
		return &exprStmt{pos: p, x: x}, nil
	}
	op, isAug := augmented[t.text]
	if t.text != "=" && !isAug {
		return &exprStmt{pos: p, x: x}, nil
	}
	switch x.(type) {
	case *nameExpr, *indexExpr:
	default:
		return nil, tp.errorAt(t, "cannot assign to expression")
	}
	tp.next()
	value, err := tp.expression()
	if err != nil {
		return nil, err
	}
	return &assignStmt{pos: p, target: x, op: op, value: value}, nil
}

func (tp *tokParser) expression() (expr, error) {
	return tp.orExpr()
}

func (tp *tokParser) orExpr() (expr, error) {
	l, err := tp.andExpr()
	if err != nil {
		return nil, err
	}
	for tp.acceptKeyword("or") {
		r, err := tp.andExpr()
		if err != nil {
			return nil, err
		}
		l = &boolExpr{op: "or", l: l, r: r}
	}
	return l, nil
}

func (tp *tokParser) andExpr() (expr, error) {
	l, err := tp.notExpr()
	if err != nil {
		return nil, err
	}
	for tp.acceptKeyword("and") {
		r, err := tp.notExpr()
		if err != nil {
			return nil, err
		}
		l = &boolExpr{op: "and", l: l, r: r}
	}
	return l, nil
}

func (tp *tokParser) notExpr() (expr, error) {
	if tp.acceptKeyword("not") {
		x, err := tp.notExpr()
		if err != nil {
			return nil, err
		}
		return &notExpr{x: x}, nil
	}
	return tp.comparison()
}

func (tp *tokParser) comparison() (expr, error) {
	first, err := tp.arith()
	if err != nil {
		return nil, err
	}
	cmp := &compareExpr{operands: []expr{first}}
	for {
		op, ok := tp.compareOp()
		if !ok {
			break
		}
		r, err := tp.arith()
		if err != nil {
			return nil, err
		}
		cmp.ops = append(cmp.ops, op)
		cmp.operands = append(cmp.operands, r)
	}
	if len(cmp.ops) == 0 {
		return first, nil
	}
	return cmp, nil
}

func (tp *tokParser) compareOp() (string, bool) {
	t := tp.peek()
	if t.kind == tokOp {
		switch t.text {
		case "==", "!=", "<", "<=", ">", ">=":
			tp.next()
			return t.text, true
		}
		return "", false
	}
	switch {
	case isKeyword(t, "in"):
		tp.next()
		return "in", true
	case isKeyword(t, "not") && isKeyword(tp.toks[tp.i+1], "in"):
		tp.next()
		tp.next()
		return "not in", true
	case isKeyword(t, "is"):
		tp.next()
		if tp.acceptKeyword("not") {
			return "is not", true
		}
		return "is", true
	}
	return "", false
}

func (tp *tokParser) arith() (expr, error) {
	l, err := tp.term()
	if err != nil {
		return nil, err
	}
	for {
		t := tp.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return l, nil
		}
		tp.next()
		r, err := tp.term()
		if err != nil {
			return nil, err
		}
		l = &binaryExpr{op: t.text, l: l, r: r}
	}
}

func (tp *tokParser) term() (expr, error) {
	l, err := tp.unary()
	if err != nil {
		return nil, err
	}
	for {
		t := tp.peek()
		if t.kind != tokOp || (t.text != "*" && t.text != "/" && t.text != "//" && t.text != "%") {
			return l, nil
		}
		tp.next()
		r, err := tp.unary()
		if err != nil {
			return nil, err
		}
		l = &binaryExpr{op: t.text, l: l, r: r}
	}
}

func (tp *tokParser) unary() (expr, error) {
	if t := tp.peek(); t.kind == tokOp && (t.text == "-" || t.text == "+") {
		tp.next()
		x, err := tp.unary()
		if err != nil {
			return nil, err
		}
		return &unaryExpr{op: t.text, x: x}, nil
	}
	return tp.power()
}

// power binds tighter than a unary operator on its left and is right
// associative: -2**2 == -(2**2), 2**3**2 == 2**(3**2).
func (tp *tokParser) power() (expr, error) {
	base, err := tp.postfix()
	if err != nil {
		return nil, err
	}
	if !tp.acceptOp("**") {
		return base, nil
	}
	exp, err := tp.unary()
	if err != nil {
		return nil, err
	}
	return &binaryExpr{op: "**", l: base, r: exp}, nil
}

func (tp *tokParser) postfix() (expr, error) {
	x, err := tp.atom()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case tp.acceptOp("("):
			call, err := tp.callArgs(x)
			if err != nil {
				return nil, err
			}
			x = call
		case tp.acceptOp("["):
			index, err := tp.expression()
			if err != nil {
				return nil, err
			}
			if !tp.acceptOp("]") {
				return nil, tp.errorAt(tp.peek(), "expected ']'")
			}
			x = &indexExpr{x: x, index: index}
		case tp.acceptOp("."):
			name := tp.next()
			if name.kind != tokName {
				return nil, tp.errorAt(name, "invalid syntax")
			}
			x = &attrExpr{x: x, name: name.text}
		default:
			return x, nil
		}
	}
}

func (tp *tokParser) callArgs(fn expr) (expr, error) {
	call := &callExpr{fn: fn}
	for !tp.acceptOp(")") {
		if len(call.args)+len(call.kwargs) > 0 && !tp.acceptOp(",") {
			return nil, tp.errorAt(tp.peek(), "invalid syntax")
		}
		if tp.acceptOp(")") {
			break
		}
		if t := tp.peek(); t.kind == tokName && !keywords[t.text] && tp.toks[tp.i+1].kind == tokOp && tp.toks[tp.i+1].text == "=" {
			tp.next()
			tp.next()
			value, err := tp.expression()
			if err != nil {
				return nil, err
			}
			call.kwargs = append(call.kwargs, keyword{name: t.text, value: value})
			continue
		}
		if len(call.kwargs) > 0 {
			return nil, tp.errorAt(tp.peek(), "positional argument follows keyword argument")
		}
		arg, err := tp.expression()
		if err != nil {
			return nil, err
		}
		call.args = append(call.args, arg)
	}
	return call, nil
}

func (tp *tokParser) atom() (expr, error) {
	t := tp.next()
	switch t.kind {
	case tokInt:
		n, err := parseInt(t.text)
		if err != nil {
			return nil, tp.errorAt(t, fmt.Sprintf("integer literal too large: %s", t.text))
		}
		return &constExpr{v: n}, nil
	case tokFloat:
		f, err := parseFloat(t.text)
		if err != nil {
			return nil, tp.errorAt(t, "invalid decimal literal")
		}
		return &constExpr{v: f}, nil
	case tokString:
		s := t.str
		// adjacent literals concatenate
		for tp.peek().kind == tokString {
			s += tp.next().str
		}
		return &constExpr{v: s}, nil
	case tokName:
		switch t.text {
		case "True":
			return &constExpr{v: true}, nil
		case "False":
			return &constExpr{v: false}, nil
		case "None":
			return &constExpr{v: nil}, nil
		}
		if keywords[t.text] {
			return nil, tp.errorAt(t, "invalid syntax")
		}
		return &nameExpr{name: t.text}, nil
	case tokOp:
		switch t.text {
		case "(":
			x, err := tp.expression()
			if err != nil {
				return nil, err
			}
			if !tp.acceptOp(")") {
				return nil, tp.errorAt(tp.peek(), "'(' was never closed")
			}
			return x, nil
		case "[":
			list := &listExpr{}
			for !tp.acceptOp("]") {
				if len(list.items) > 0 && !tp.acceptOp(",") {
					return nil, tp.errorAt(tp.peek(), "invalid syntax")
				}
				if tp.acceptOp("]") {
					break
				}
				item, err := tp.expression()
				if err != nil {
					return nil, err
				}
				list.items = append(list.items, item)
			}
			return list, nil
		}
	}
	return nil, tp.errorAt(t, "invalid syntax")
}

func isKeyword(t token, kw string) bool {
	return t.kind == tokName && t.text == kw
}
