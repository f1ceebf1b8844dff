package fulltext

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Aman-CERP/patrology/internal/errors"
)

// Expr is a parsed boolean query. The grammar is the boolean subset shared
// by both posting backends:
//
//	expr  := and ("OR" and)*
//	and   := unary (["AND"] unary)*      adjacent operands are ANDed
//	unary := "NOT" primary | primary
//	primary := WORD | WORD* | "quoted phrase" | "(" expr ")"
//
// Operators are case-sensitive. Every AND group needs at least one
// positive operand for NOT to exclude from.
type Expr struct {
	root node
	src  string
}

type node interface{ isNode() }

type termNode struct {
	text   string
	phrase bool
	prefix bool
}

type andNode struct{ children []node }

type orNode struct{ children []node }

type notNode struct{ x node }

func (termNode) isNode() {}
func (andNode) isNode()  {}
func (orNode) isNode()   {}
func (notNode) isNode()  {}

type tokenKind int

const (
	tokWord tokenKind = iota
	tokQuoted
	tokLParen
	tokRParen
	tokAnd
	tokOr
	tokNot
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// ParseExpr parses a boolean expression. Malformed input is a QueryError.
func ParseExpr(src string) (*Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, errors.New(errors.ErrCodeQueryEmpty, "boolean expression is empty", nil)
	}

	toks, err := lex(src)
	if err != nil {
		return nil, invalid(src, err)
	}

	p := &parser{toks: toks}
	root, err := p.parseOr()
	if err != nil {
		return nil, invalid(src, err)
	}
	if tok, ok := p.peek(); ok {
		return nil, invalid(src, fmt.Errorf("unexpected %q at offset %d", tok.text, tok.pos))
	}
	return &Expr{root: root, src: src}, nil
}

// AnyOf builds the disjunction of words. Words with nothing searchable are
// skipped; nil is returned when none remain.
func AnyOf(words []string) *Expr {
	var children []node
	for _, w := range words {
		if searchable(w) {
			children = append(children, termNode{text: w})
		}
	}
	switch len(children) {
	case 0:
		return nil
	case 1:
		return &Expr{root: children[0], src: words[0]}
	}
	return &Expr{root: orNode{children: children}, src: strings.Join(words, " OR ")}
}

// AllOf builds the conjunction of words, quoting each one.
func AllOf(words []string) string {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, `"`+strings.ReplaceAll(w, `"`, "")+`"`)
	}
	return strings.Join(quoted, " AND ")
}

func invalid(src string, cause error) error {
	return errors.QueryError(fmt.Sprintf("invalid boolean expression: %v", cause), cause).
		WithDetail("expression", src).
		WithSuggestion(`Use AND, OR, NOT, parentheses and "quoted phrases", e.g. grace AND (faith OR works)`)
}

// Source returns the expression as written.
func (e *Expr) Source() string {
	return e.src
}

// Keywords returns the lowercased words of every term not under a NOT,
// in first-seen order without duplicates.
func (e *Expr) Keywords() []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(n node)
	walk = func(n node) {
		switch x := n.(type) {
		case termNode:
			for _, f := range strings.Fields(x.text) {
				kw := strings.ToLower(strings.TrimFunc(f, func(r rune) bool {
					return !unicode.IsLetter(r) && !unicode.IsDigit(r)
				}))
				if kw != "" && !seen[kw] {
					seen[kw] = true
					out = append(out, kw)
				}
			}
		case andNode:
			for _, c := range x.children {
				walk(c)
			}
		case orNode:
			for _, c := range x.children {
				walk(c)
			}
		case notNode:
		}
	}
	walk(e.root)
	return out
}

// String renders the expression in FTS5 MATCH syntax with every term quoted.
func (e *Expr) String() string {
	return fts5(e.root)
}

func fts5(n node) string {
	switch x := n.(type) {
	case termNode:
		s := `"` + strings.ReplaceAll(x.text, `"`, `""`) + `"`
		if x.prefix {
			s += "*"
		}
		return s
	case orNode:
		parts := make([]string, len(x.children))
		for i, c := range x.children {
			parts[i] = fts5(c)
		}
		return "(" + strings.Join(parts, " OR ") + ")"
	case andNode:
		var pos, neg []string
		for _, c := range x.children {
			if nn, ok := c.(notNode); ok {
				neg = append(neg, fts5(nn.x))
			} else {
				pos = append(pos, fts5(c))
			}
		}
		s := strings.Join(pos, " AND ")
		if len(pos) > 1 {
			s = "(" + s + ")"
		}
		for _, n := range neg {
			s = "(" + s + " NOT " + n + ")"
		}
		return s
	case notNode:
		// Only reachable through andNode.
		return fts5(x.x)
	}
	return ""
}

func lex(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case r == '"':
			j := i + 1
			for j < len(rs) && rs[j] != '"' {
				j++
			}
			if j >= len(rs) {
				return nil, fmt.Errorf("unterminated quote at offset %d", i)
			}
			toks = append(toks, token{kind: tokQuoted, text: string(rs[i+1 : j]), pos: i})
			i = j + 1
		default:
			j := i
			for j < len(rs) && !unicode.IsSpace(rs[j]) && rs[j] != '(' && rs[j] != ')' && rs[j] != '"' {
				j++
			}
			w := string(rs[i:j])
			kind := tokWord
			switch w {
			case "AND":
				kind = tokAnd
			case "OR":
				kind = tokOr
			case "NOT":
				kind = tokNot
			}
			toks = append(toks, token{kind: kind, text: w, pos: i})
			i = j
		}
	}
	return toks, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) where() string {
	if tok, ok := p.peek(); ok {
		return fmt.Sprintf("at offset %d", tok.pos)
	}
	return "at end of expression"
}

func (p *parser) parseOr() (node, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	children := []node{first}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != tokOr {
			break
		}
		p.pos++
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	if len(children) == 1 {
		return first, nil
	}
	return orNode{children: children}, nil
}

func (p *parser) parseAnd() (node, error) {
	var children []node
	for {
		tok, ok := p.peek()
		if !ok || tok.kind == tokOr || tok.kind == tokRParen {
			break
		}
		if tok.kind == tokAnd {
			if len(children) == 0 {
				return nil, fmt.Errorf("AND at offset %d has no left operand", tok.pos)
			}
			p.pos++
			if next, ok := p.peek(); !ok || next.kind == tokOr || next.kind == tokRParen || next.kind == tokAnd {
				return nil, fmt.Errorf("AND at offset %d has no right operand", tok.pos)
			}
		}
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		children = append(children, x)
	}

	if len(children) == 0 {
		return nil, fmt.Errorf("expected a term %s", p.where())
	}
	positive := false
	for _, c := range children {
		if _, isNot := c.(notNode); !isNot {
			positive = true
			break
		}
	}
	if !positive {
		return nil, fmt.Errorf("NOT needs a positive term to exclude from")
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return andNode{children: children}, nil
}

func (p *parser) parseUnary() (node, error) {
	tok, _ := p.peek()
	if tok.kind != tokNot {
		return p.parsePrimary()
	}

	p.pos++
	next, ok := p.peek()
	if !ok || next.kind == tokAnd || next.kind == tokOr || next.kind == tokRParen {
		return nil, fmt.Errorf("NOT at offset %d has no operand", tok.pos)
	}
	if next.kind == tokNot {
		return nil, fmt.Errorf("NOT at offset %d cannot be doubled", next.pos)
	}
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return notNode{x: x}, nil
}

func (p *parser) parsePrimary() (node, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("expected a term at end of expression")
	}
	p.pos++

	switch tok.kind {
	case tokWord:
		text, prefix := tok.text, false
		if strings.HasSuffix(text, "*") {
			text, prefix = strings.TrimRight(text, "*"), true
		}
		if !searchable(text) {
			return nil, fmt.Errorf("term %q at offset %d has no searchable characters", tok.text, tok.pos)
		}
		return termNode{text: text, prefix: prefix}, nil
	case tokQuoted:
		if !searchable(tok.text) {
			return nil, fmt.Errorf("phrase at offset %d has no searchable characters", tok.pos)
		}
		return termNode{text: strings.Join(strings.Fields(tok.text), " "), phrase: true}, nil
	case tokLParen:
		x, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing, ok := p.peek(); !ok || closing.kind != tokRParen {
			return nil, fmt.Errorf("parenthesis at offset %d is not closed", tok.pos)
		}
		p.pos++
		return x, nil
	default:
		return nil, fmt.Errorf("unexpected %q at offset %d", tok.text, tok.pos)
	}
}

func searchable(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
