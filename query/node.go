package query

// Kind identifies the variant of a Node.
type Kind int

const (
	// KindEmpty matches every content string.
	KindEmpty Kind = iota
	// KindTerm matches when its value is a case-insensitive substring of the content.
	KindTerm
	// KindPhrase matches exactly like a term; the value came from a quoted phrase.
	KindPhrase
	// KindAnd matches when all children match. No children matches trivially.
	KindAnd
	// KindOr matches when at least one child matches.
	KindOr
	// KindNot matches when its single child does not.
	KindNot
	// KindError never matches; Message describes the parse failure.
	KindError
)

// Node is one node of a parsed query tree. Trees are immutable after
// Parse returns and are safe to share across concurrent evaluations;
// evaluation is a pure function of (tree, content).
type Node struct {
	Kind     Kind
	Value    string  // lowercased term or phrase text
	Children []*Node // and/or children; the single not child is Children[0]
	Message  string  // parse failure description for KindError
}

// IsError reports whether the node is a parse failure marker.
func (n *Node) IsError() bool {
	return n != nil && n.Kind == KindError
}
