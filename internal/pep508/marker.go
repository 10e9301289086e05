package pep508

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ralt/pupa/internal/pep440"
)

// Variable names accepted in markers, including the legacy dotted aliases.
var markerVariables = map[string]string{
	"os_name":                        "os_name",
	"sys_platform":                   "sys_platform",
	"platform_machine":               "platform_machine",
	"platform_python_implementation": "platform_python_implementation",
	"platform_release":               "platform_release",
	"platform_system":                "platform_system",
	"platform_version":               "platform_version",
	"python_version":                 "python_version",
	"python_full_version":            "python_full_version",
	"implementation_name":            "implementation_name",
	"implementation_version":         "implementation_version",
	"extra":                          "extra",
	"os.name":                        "os_name",
	"sys.platform":                   "sys_platform",
	"platform.version":               "platform_version",
	"platform.machine":               "platform_machine",
	"platform.python_implementation": "platform_python_implementation",
	"python_implementation":          "platform_python_implementation",
}

// Marker is a parsed environment marker.
type Marker struct {
	root markerNode
}

// UndefinedComparisonError reports a marker comparison that has no defined
// meaning, such as "~=" between two non-version strings.
type UndefinedComparisonError struct {
	LHS, Op, RHS string
}

func (e *UndefinedComparisonError) Error() string {
	return fmt.Sprintf("undefined comparison %q %s %q", e.LHS, e.Op, e.RHS)
}

// ParseMarker parses a marker expression such as
// `python_version < "3.8" and extra == "test"`.
func ParseMarker(s string) (*Marker, error) {
	tokens, err := tokenizeMarker(s)
	if err != nil {
		return nil, err
	}
	p := &markerParser{tokens: tokens}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, fmt.Errorf("unexpected %q in marker", p.peek().text)
	}
	return &Marker{root: node}, nil
}

// Evaluate reports whether the marker holds in env.
func (m *Marker) Evaluate(env Environment) (bool, error) {
	if m == nil || m.root == nil {
		return true, nil
	}
	return m.root.eval(env)
}

// String renders the marker in normalized form.
func (m *Marker) String() string {
	if m == nil || m.root == nil {
		return ""
	}
	return m.root.String()
}

type markerNode interface {
	eval(env Environment) (bool, error)
	String() string
}

type operand struct {
	value    string
	variable bool
}

func (o operand) resolve(env Environment) string {
	if !o.variable {
		return o.value
	}
	v, _ := env.Lookup(o.value)
	return v
}

func (o operand) String() string {
	if o.variable {
		return o.value
	}
	return `"` + o.value + `"`
}

type comparison struct {
	lhs, rhs operand
	op       string
}

func (c comparison) eval(env Environment) (bool, error) {
	lhs, rhs := c.lhs.resolve(env), c.rhs.resolve(env)
	if (c.lhs.variable && c.lhs.value == "extra") || (c.rhs.variable && c.rhs.value == "extra") {
		lhs, rhs = CanonicalizeName(lhs), CanonicalizeName(rhs)
	}
	return compareMarkerValues(lhs, c.op, rhs)
}

func (c comparison) String() string {
	return c.lhs.String() + " " + c.op + " " + c.rhs.String()
}

func compareMarkerValues(lhs, op, rhs string) (bool, error) {
	if op != "in" && op != "not in" {
		if spec, err := pep440.ParseSpecifier(op + rhs); err == nil {
			return spec.ContainsString(lhs), nil
		}
	}
	switch op {
	case "in":
		return strings.Contains(rhs, lhs), nil
	case "not in":
		return !strings.Contains(rhs, lhs), nil
	case "<":
		return lhs < rhs, nil
	case "<=":
		return lhs <= rhs, nil
	case "==":
		return lhs == rhs, nil
	case "!=":
		return lhs != rhs, nil
	case ">=":
		return lhs >= rhs, nil
	case ">":
		return lhs > rhs, nil
	}
	return false, &UndefinedComparisonError{LHS: lhs, Op: op, RHS: rhs}
}

type boolOp struct {
	op    string // "and" or "or"
	items []markerNode
}

func (b boolOp) eval(env Environment) (bool, error) {
	for _, item := range b.items {
		ok, err := item.eval(env)
		if err != nil {
			return false, err
		}
		if b.op == "or" && ok {
			return true, nil
		}
		if b.op == "and" && !ok {
			return false, nil
		}
	}
	return b.op == "and", nil
}

func (b boolOp) String() string {
	parts := make([]string, len(b.items))
	for i, item := range b.items {
		parts[i] = item.String()
	}
	return strings.Join(parts, " "+b.op+" ")
}

type group struct {
	inner markerNode
}

func (g group) eval(env Environment) (bool, error) {
	return g.inner.eval(env)
}

func (g group) String() string {
	return "(" + g.inner.String() + ")"
}

type tokenKind int

const (
	tokVariable tokenKind = iota
	tokString
	tokOp
	tokAnd
	tokOr
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
}

func tokenizeMarker(s string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			tokens = append(tokens, token{tokLParen, "("})
			i++
		case c == ')':
			tokens = append(tokens, token{tokRParen, ")"})
			i++
		case c == '\'' || c == '"':
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				return nil, fmt.Errorf("unterminated string in marker")
			}
			tokens = append(tokens, token{tokString, s[i+1 : i+1+end]})
			i += end + 2
		case strings.ContainsRune("<=!>~", rune(c)):
			op := ""
			for _, candidate := range []string{"===", "==", "!=", "~=", "<=", ">=", "<", ">"} {
				if strings.HasPrefix(s[i:], candidate) {
					op = candidate
					break
				}
			}
			if op == "" {
				return nil, fmt.Errorf("invalid operator at %q", s[i:])
			}
			tokens = append(tokens, token{tokOp, op})
			i += len(op)
		case isIdentByte(c):
			start := i
			for i < len(s) && isIdentByte(s[i]) {
				i++
			}
			word := s[start:i]
			switch word {
			case "and":
				tokens = append(tokens, token{tokAnd, word})
			case "or":
				tokens = append(tokens, token{tokOr, word})
			case "in":
				tokens = append(tokens, token{tokOp, "in"})
			case "not":
				rest := strings.TrimLeft(s[i:], " \t")
				if !strings.HasPrefix(rest, "in") || (len(rest) > 2 && isIdentByte(rest[2])) {
					return nil, fmt.Errorf("expected 'in' after 'not'")
				}
				i = len(s) - len(rest) + 2
				tokens = append(tokens, token{tokOp, "not in"})
			default:
				canonical, ok := markerVariables[word]
				if !ok {
					return nil, fmt.Errorf("unknown marker variable %q", word)
				}
				tokens = append(tokens, token{tokVariable, canonical})
			}
		default:
			return nil, fmt.Errorf("unexpected character %q in marker", c)
		}
	}
	return tokens, nil
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '.' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}

type markerParser struct {
	tokens []token
	pos    int
}

func (p *markerParser) done() bool { return p.pos >= len(p.tokens) }

func (p *markerParser) peek() token {
	if p.done() {
		return token{kind: -1}
	}
	return p.tokens[p.pos]
}

func (p *markerParser) parseOr() (markerNode, error) {
	return p.parseBool(tokOr, "or", p.parseAnd)
}

func (p *markerParser) parseAnd() (markerNode, error) {
	return p.parseBool(tokAnd, "and", p.parseAtom)
}

func (p *markerParser) parseBool(kind tokenKind, op string, next func() (markerNode, error)) (markerNode, error) {
	first, err := next()
	if err != nil {
		return nil, err
	}
	items := []markerNode{first}
	for !p.done() && p.peek().kind == kind {
		p.pos++
		item, err := next()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if len(items) == 1 {
		return first, nil
	}
	return boolOp{op: op, items: items}, nil
}

func (p *markerParser) parseAtom() (markerNode, error) {
	if p.done() {
		return nil, fmt.Errorf("unexpected end of marker")
	}
	if p.peek().kind == tokLParen {
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, fmt.Errorf("expected ')' in marker")
		}
		p.pos++
		return group{inner: inner}, nil
	}

	lhs, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	opTok := p.peek()
	if opTok.kind != tokOp {
		return nil, fmt.Errorf("expected marker operator")
	}
	p.pos++
	rhs, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return comparison{lhs: lhs, op: opTok.text, rhs: rhs}, nil
}

func (p *markerParser) parseOperand() (operand, error) {
	tok := p.peek()
	switch tok.kind {
	case tokVariable:
		p.pos++
		return operand{value: tok.text, variable: true}, nil
	case tokString:
		p.pos++
		return operand{value: tok.text}, nil
	}
	return operand{}, fmt.Errorf("expected marker variable or quoted string")
}
