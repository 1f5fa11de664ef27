package calc

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokName
	tokInt
	tokFloat
	tokString
	tokOp
)

type token struct {
	kind tokenKind
	text string // operator or name text, raw text for numbers
	str  string // decoded value of string literals
	col  int    // 0-based column in the line
}

// operators ordered longest first so maximal munch works by prefix test
var operators = []string{
	"**=", "//=",
	"**", "//", "==", "!=", "<=", ">=", "+=", "-=", "*=", "/=", "%=",
	"+", "-", "*", "/", "%", "<", ">", "=", "(", ")", "[", "]", ",", ":", ";", ".",
}

// syntaxError is raised while tokenizing or parsing a command.
type syntaxError struct {
	line int
	col  int
	msg  string
}

func (e *syntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.line, e.msg)
}

// tokenize splits one physical line into tokens. Comments run to the end
// of the line.
func tokenize(text string, lineNum int) ([]token, error) {
	var toks []token
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '#':
			i = len(text)
		case isDigit(c) || (c == '.' && i+1 < len(text) && isDigit(text[i+1])):
			tok, next := scanNumber(text, i)
			toks = append(toks, tok)
			i = next
		case isNameStart(c):
			j := i + 1
			for j < len(text) && isNameChar(text[j]) {
				j++
			}
			toks = append(toks, token{kind: tokName, text: text[i:j], col: i})
			i = j
		case c == '\'' || c == '"':
			tok, next, err := scanString(text, i, lineNum)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		default:
			op := matchOperator(text[i:])
			if op == "" {
				return nil, &syntaxError{line: lineNum, col: i, msg: fmt.Sprintf("invalid character '%c'", c)}
			}
			toks = append(toks, token{kind: tokOp, text: op, col: i})
			i += len(op)
		}
	}
	toks = append(toks, token{kind: tokEOF, col: len(text)})
	return toks, nil
}

func matchOperator(s string) string {
	for _, op := range operators {
		if strings.HasPrefix(s, op) {
			return op
		}
	}
	return ""
}

func scanNumber(text string, start int) (token, int) {
	i := start
	kind := tokInt
	for i < len(text) && (isDigit(text[i]) || text[i] == '_') {
		i++
	}
	if i < len(text) && text[i] == '.' {
		kind = tokFloat
		i++
		for i < len(text) && (isDigit(text[i]) || text[i] == '_') {
			i++
		}
	}
	if i < len(text) && (text[i] == 'e' || text[i] == 'E') {
		j := i + 1
		if j < len(text) && (text[j] == '+' || text[j] == '-') {
			j++
		}
		if j < len(text) && isDigit(text[j]) {
			kind = tokFloat
			i = j
			for i < len(text) && isDigit(text[i]) {
				i++
			}
		}
	}
	return token{kind: kind, text: text[start:i], col: start}, i
}

func scanString(text string, start, lineNum int) (token, int, error) {
	quote := text[start]
	var b strings.Builder
	i := start + 1
	for i < len(text) {
		c := text[i]
		switch {
		case c == quote:
			return token{kind: tokString, text: text[start : i+1], str: b.String(), col: start}, i + 1, nil
		case c == '\\' && i+1 < len(text):
			i++
			switch esc := text[i]; esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			case '\\', '\'', '"':
				b.WriteByte(esc)
			default:
				b.WriteByte('\\')
				b.WriteByte(esc)
			}
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return token{}, 0, &syntaxError{line: lineNum, col: start, msg: "unterminated string literal"}
}

// parseInt decodes an integer literal.
func parseInt(text string) (int64, error) {
	return strconv.ParseInt(strings.ReplaceAll(text, "_", ""), 10, 64)
}

// parseFloat decodes a float literal.
func parseFloat(text string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
}

func isDigit(c byte) bool     { return c >= '0' && c <= '9' }
func isNameStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isNameChar(c byte) bool  { return isNameStart(c) || isDigit(c) }
