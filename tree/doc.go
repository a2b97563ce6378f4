// Package tree provides the document tree at the center of this module:
// a flat, index-addressed node store plus an append-only string arena,
// with the full navigation and mutation surface over it.
//
// # Overview
//
// All YAML documents handled by this module (whether parsed from text or
// built programmatically) are represented as a Tree. Parsing populates a
// Tree, the mutation API edits it, and the emitter serializes it back
// out; the Tree is the central artifact, the parser and emitter are
// stateless transformations at its boundary.
//
// # Storage model
//
// The tree is deliberately not a pointer-linked structure. Every node is
// one record in a contiguous store, and every relation (parent, first
// and last child, previous and next sibling) is a plain ID into that
// store, with None standing for "no such relation". Removal pushes
// slots onto a free list for recycling. This keeps nodes small, avoids
// cyclic ownership between parents and children, and makes a whole tree
// cheap to copy or discard.
//
// Scalar text is held as spans (span.Sub). Text taken verbatim from the
// parsed source aliases the source buffer; text that had to be
// normalized (quotes removed, escapes decoded) or was synthesized by a
// setter lives in the tree's arena. The arena only grows: entries are
// never reclaimed individually, only in bulk by ClearArena. That trades
// reclaim granularity for allocation simplicity.
//
// # Node shape
//
// A node's Type is a bitmask: container bits (Map, Seq, Doc, Stream),
// scalar bits (Key, Val), decoration bits (tags, anchors, aliases on
// either side), and style bits. A map entry holding a scalar is
// Key|Val; a keyed sequence is Seq|Key; a document stream is a Stream
// root with Doc children. Key and value content are Scalar triples of
// tag, text and anchor spans, where a zero-length span means absent.
//
// # Navigation and mutation
//
//	t, _ := parse.Parse([]byte("a: 1\nb: [x, y]"))
//	root := t.Root()
//	b, _ := t.FindChild(root, "b")
//	first, _ := t.FirstChild(b)
//	v, _ := t.Val(first) // "x"
//
// Lookups and structural queries fail with ErrNodeNotFound; they never
// create nodes. Mutation goes through the setters (SetKey, SetVal,
// tags, anchors), the type transitions (ToMap, ToSeq, ToVal, ToKeyVal,
// ChangeType), and the structural edits (InsertChild, Remove,
// Duplicate, MoveNode). ChangeType refuses transitions that would
// silently discard children.
//
// # Refs and lazy creation
//
// Ref wraps (tree, id) with an optional seed. Get and At return seeded
// Refs on a miss instead of failing; the first mutation through the Ref
// creates the node (and any pending parents), so chains like
//
//	t.RootRef().Get("server").Get("port").SetVal("8080")
//
// build intermediate structure on demand. Reads on a seeded Ref fail
// with ErrNodeNotFound.
//
// # Index stability
//
// IDs are stable across mutation with one exception: Reorder renumbers
// the whole store into depth-first order, after which every previously
// obtained ID and Ref is invalid and must be re-derived from Root().
//
// # Thread safety
//
// A Tree is not internally synchronized. Concurrent read-only
// navigation is safe; any mutation requires exclusive access.
package tree
