package tree

import "github.com/yamltree/yamltree/span"

// ID addresses a node in its tree's store. IDs are stable across
// mutation except Reorder, which renumbers the whole tree.
type ID uint32

// None is the reserved "no such node" sentinel, used for every absent
// relation (no parent, no sibling, no child).
const None ID = ^ID(0)

// Scalar is the fully decorated content of a key or a value: its tag,
// its text and its anchor or alias name. A zero-length span means the
// facet is absent; blank beats optional at the storage layer, and the
// type flags on the node are the source of truth for presence.
type Scalar struct {
	Tag    span.Sub
	Text   span.Sub
	Anchor span.Sub
}

// node is one record in the store. Relations are plain IDs into the
// same store; siblings form a doubly linked list anchored at the
// parent's firstChild/lastChild.
type node struct {
	kind Type
	key  Scalar
	val  Scalar

	parent     ID
	firstChild ID
	lastChild  ID
	prevSib    ID
	nextSib    ID
}

func blankNode() node {
	return node{
		parent:     None,
		firstChild: None,
		lastChild:  None,
		prevSib:    None,
		nextSib:    None,
	}
}
