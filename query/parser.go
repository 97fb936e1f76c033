package query

import (
	"log/slog"
	"strings"
)

// operator substrings that switch a query from the simple fast path to
// full tokenization
var operatorMarkers = []string{"OR", "|", "AND", "&", "NOT", "-", "\""}

// Parser parses boolean search strings and evaluates the resulting trees.
type Parser struct {
	logger *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewParser creates a new query parser.
func NewParser(opts ...Option) (*Parser, error) {
	p := &Parser{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Parse parses a search string into a query tree. It never fails: malformed
// input produces a KindError node that matches nothing, so a bad query
// degrades a search instead of aborting it.
func (p *Parser) Parse(queryString string) *Node {
	trimmed := strings.TrimSpace(queryString)
	if trimmed == "" {
		return &Node{Kind: KindEmpty}
	}

	if !hasOperatorSyntax(trimmed) {
		// Simple query: whitespace-separated words, implicit AND.
		words := strings.Fields(trimmed)
		children := make([]*Node, 0, len(words))
		for _, word := range words {
			children = append(children, &Node{Kind: KindTerm, Value: strings.ToLower(word)})
		}
		if len(children) == 1 {
			return children[0]
		}
		return &Node{Kind: KindAnd, Children: children}
	}

	return buildTree(tokenize(trimmed))
}

// Evaluate reports whether content matches the query tree. Matching is
// case-insensitive substring containment at the leaves. A nil tree matches
// everything; an error tree matches nothing and is logged as a warning.
func (p *Parser) Evaluate(node *Node, content string) bool {
	return p.eval(node, strings.ToLower(content))
}

func (p *Parser) eval(node *Node, contentLower string) bool {
	if node == nil {
		return true
	}

	switch node.Kind {
	case KindEmpty:
		return true

	case KindTerm, KindPhrase:
		return strings.Contains(contentLower, node.Value)

	case KindAnd:
		for _, child := range node.Children {
			if !p.eval(child, contentLower) {
				return false
			}
		}
		return true

	case KindOr:
		for _, child := range node.Children {
			if p.eval(child, contentLower) {
				return true
			}
		}
		return false

	case KindNot:
		if len(node.Children) == 0 {
			return true
		}
		return !p.eval(node.Children[0], contentLower)

	case KindError:
		p.logger.Warn("search syntax error", "message", node.Message)
		return false
	}

	p.logger.Warn("unknown search condition kind", "kind", int(node.Kind))
	return false
}

func hasOperatorSyntax(q string) bool {
	for _, marker := range operatorMarkers {
		if strings.Contains(q, marker) {
			return true
		}
	}
	return false
}

type tokenKind int

const (
	tokTerm tokenKind = iota
	tokPhrase
	tokOperator
	tokOpenParen
	tokCloseParen
)

type token struct {
	kind  tokenKind
	value string // lowercased text for terms/phrases, OR/AND/NOT for operators
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

// tokenize splits a query string into terms, quoted phrases, operators and
// parenthesis tokens. An unterminated quote turns the remainder of the
// string, opening quote included, into a plain term. The word operators OR,
// AND and NOT are only recognized at a word boundary; a trailing "OR" with
// nothing after it scans as an ordinary term.
func tokenize(q string) []token {
	var tokens []token
	i := 0
	n := len(q)

	for i < n {
		c := q[i]

		if isSpaceByte(c) {
			i++
			continue
		}

		if c == '"' {
			start := i + 1
			i++
			for i < n && q[i] != '"' {
				i++
			}
			if i < n { // found the closing quote
				phrase := strings.ToLower(strings.TrimSpace(q[start:i]))
				tokens = append(tokens, token{kind: tokPhrase, value: phrase})
			} else { // no closing quote, treat the rest as plain text
				phrase := strings.ToLower(strings.TrimSpace(q[start-1:]))
				tokens = append(tokens, token{kind: tokTerm, value: phrase})
			}
			i++
			continue
		}

		switch c {
		case '|':
			tokens = append(tokens, token{kind: tokOperator, value: "OR"})
			i++
			continue
		case '&':
			tokens = append(tokens, token{kind: tokOperator, value: "AND"})
			i++
			continue
		case '-':
			tokens = append(tokens, token{kind: tokOperator, value: "NOT"})
			i++
			continue
		case '(':
			tokens = append(tokens, token{kind: tokOpenParen})
			i++
			continue
		case ')':
			tokens = append(tokens, token{kind: tokCloseParen})
			i++
			continue
		}

		if i+2 < n {
			three := strings.ToUpper(q[i : i+3])
			if three == "OR " {
				tokens = append(tokens, token{kind: tokOperator, value: "OR"})
				i += 3
				continue
			}
			if three == "AND" && (i+3 >= n || isSpaceByte(q[i+3])) {
				tokens = append(tokens, token{kind: tokOperator, value: "AND"})
				i += 3
				continue
			}
			if three == "NOT" && (i+3 >= n || isSpaceByte(q[i+3])) {
				tokens = append(tokens, token{kind: tokOperator, value: "NOT"})
				i += 3
				continue
			}
		}

		start := i
		for i < n && !isSpaceByte(q[i]) && !strings.ContainsRune("|&-()", rune(q[i])) {
			i++
		}
		if i > start {
			tokens = append(tokens, token{kind: tokTerm, value: strings.ToLower(strings.TrimSpace(q[start:i]))})
			continue
		}

		// Nothing matched, advance one byte.
		i++
	}

	return tokens
}

// buildTree assembles tokens into a tree with a single-pass grouping
// scheme: any OR splits the stream at the top level, a NOT is honored only
// as a leading prefix, and stray operators that fit no rule are dropped.
func buildTree(tokens []token) *Node {
	if len(tokens) == 0 {
		return &Node{Kind: KindEmpty}
	}

	if len(tokens) == 1 {
		return leafNode(tokens[0])
	}

	allTerms := true
	for _, t := range tokens {
		if t.kind != tokTerm && t.kind != tokPhrase {
			allTerms = false
			break
		}
	}
	if allTerms {
		children := make([]*Node, 0, len(tokens))
		for _, t := range tokens {
			children = append(children, leafNode(t))
		}
		return &Node{Kind: KindAnd, Children: children}
	}

	var orIndices []int
	for i, t := range tokens {
		if t.kind == tokOperator && t.value == "OR" {
			orIndices = append(orIndices, i)
		}
	}
	if len(orIndices) > 0 {
		var children []*Node
		last := 0
		for _, idx := range orIndices {
			if idx > last {
				children = append(children, buildTree(tokens[last:idx]))
			}
			last = idx + 1
		}
		if last < len(tokens) {
			children = append(children, buildTree(tokens[last:]))
		}
		return &Node{Kind: KindOr, Children: children}
	}

	if tokens[0].kind == tokOperator && tokens[0].value == "NOT" {
		return &Node{Kind: KindNot, Children: []*Node{buildTree(tokens[1:])}}
	}

	var children []*Node
	for _, t := range tokens {
		if t.kind == tokTerm || t.kind == tokPhrase {
			children = append(children, leafNode(t))
		}
	}
	if len(children) > 0 {
		return &Node{Kind: KindAnd, Children: children}
	}

	return &Node{Kind: KindError, Message: "unable to parse query"}
}

func leafNode(t token) *Node {
	switch t.kind {
	case tokTerm:
		return &Node{Kind: KindTerm, Value: t.value}
	case tokPhrase:
		return &Node{Kind: KindPhrase, Value: t.value}
	}
	return &Node{Kind: KindError, Message: "invalid single token"}
}
