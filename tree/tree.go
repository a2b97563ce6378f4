package tree

import (
	"fmt"

	"github.com/yamltree/yamltree/span"
)

// Tree owns a flat node store and an append-only string arena. All
// relations between nodes are IDs into the store; all normalized or
// synthesized text lives in the arena, while text that needs no
// normalization points straight into the parsed source buffer.
//
// A Tree is not safe for concurrent mutation. Any number of readers may
// navigate concurrently; a writer requires exclusive access, since
// mutation can relink nodes and Reorder renumbers them.
type Tree struct {
	nodes []node
	free  []ID
	live  int
	root  ID

	arena []byte

	// src is the buffer an in-place parse aliased, kept so spans into
	// it stay reachable and for diagnostics. Nil for owned trees.
	src []byte
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{root: None}
}

// Len is the number of live nodes.
func (t *Tree) Len() int { return t.live }

// Cap is the node-store capacity, in nodes.
func (t *Tree) Cap() int { return cap(t.nodes) }

// ArenaLen is the number of arena bytes in use.
func (t *Tree) ArenaLen() int { return len(t.arena) }

// ArenaCap is the arena capacity, in bytes.
func (t *Tree) ArenaCap() int { return cap(t.arena) }

// Reserve grows the node store capacity to at least n nodes.
func (t *Tree) Reserve(n int) {
	if cap(t.nodes) >= n {
		return
	}
	grown := make([]node, len(t.nodes), n)
	copy(grown, t.nodes)
	t.nodes = grown
}

// ReserveArena grows the arena capacity to at least n bytes.
func (t *Tree) ReserveArena(n int) {
	if cap(t.arena) >= n {
		return
	}
	grown := make([]byte, len(t.arena), n)
	copy(grown, t.arena)
	t.arena = grown
}

// Clear drops every node, keeping the node-store capacity. The arena
// is left alone; use ClearArena to reset it independently.
func (t *Tree) Clear() {
	t.nodes = t.nodes[:0]
	t.free = t.free[:0]
	t.live = 0
	t.root = None
}

// ClearArena resets arena usage, keeping its capacity. Spans issued
// into the arena before the call must no longer be used.
func (t *Tree) ClearArena() {
	t.arena = t.arena[:0]
}

// SetSource records the buffer whose bytes this tree's spans alias.
// The tree must not outlive the buffer.
func (t *Tree) SetSource(d []byte) { t.src = d }

// Source returns the aliased source buffer, nil for owned trees.
func (t *Tree) Source() []byte { return t.src }

// AddToArena copies d into the arena and returns a span of the copy.
// The arena only grows; individual entries are never reclaimed.
func (t *Tree) AddToArena(d []byte) span.Sub {
	if len(d) == 0 {
		return nil
	}
	off := len(t.arena)
	t.arena = append(t.arena, d...)
	return span.Sub(t.arena[off : off+len(d)])
}

func (t *Tree) addString(s string) span.Sub {
	if s == "" {
		return nil
	}
	off := len(t.arena)
	t.arena = append(t.arena, s...)
	return span.Sub(t.arena[off : off+len(s)])
}

// Root returns the toplevel node, allocating it on an empty tree.
func (t *Tree) Root() ID {
	if t.root == None {
		t.root = t.alloc()
	}
	return t.root
}

func (t *Tree) alloc() ID {
	if n := len(t.free); n > 0 {
		id := t.free[n-1]
		t.free = t.free[:n-1]
		t.nodes[id] = blankNode()
		t.live++
		return id
	}
	t.nodes = append(t.nodes, blankNode())
	t.live++
	return ID(len(t.nodes) - 1)
}

func (t *Tree) freeSlot(id ID) {
	t.nodes[id] = node{kind: flagFree}
	t.free = append(t.free, id)
	t.live--
	if id == t.root {
		t.root = None
	}
}

func (t *Tree) node(id ID) (*node, error) {
	if int64(id) >= int64(len(t.nodes)) || t.nodes[id].kind&flagFree != 0 {
		return nil, fmt.Errorf("%w: id %d", ErrNodeNotFound, id)
	}
	return &t.nodes[id], nil
}

// NodeType returns the node's type flags.
func (t *Tree) NodeType(id ID) (Type, error) {
	n, err := t.node(id)
	if err != nil {
		return NoType, err
	}
	return n.kind &^ flagFree, nil
}

// --- lookup family ---
//
// Each lookup fails with ErrNodeNotFound when the index is out of
// bounds or the node lacks the requested facet.

func (t *Tree) facet(id ID, flag Type, what string) (*node, error) {
	n, err := t.node(id)
	if err != nil {
		return nil, err
	}
	if n.kind&flag == 0 {
		return nil, fmt.Errorf("%w: node %d has no %s", ErrNodeNotFound, id, what)
	}
	return n, nil
}

func (t *Tree) Key(id ID) (span.Sub, error) {
	n, err := t.facet(id, Key, "key")
	if err != nil {
		return nil, err
	}
	return n.key.Text, nil
}

func (t *Tree) Val(id ID) (span.Sub, error) {
	n, err := t.facet(id, Val, "value")
	if err != nil {
		return nil, err
	}
	return n.val.Text, nil
}

func (t *Tree) KeyTag(id ID) (span.Sub, error) {
	n, err := t.facet(id, KeyTag, "key tag")
	if err != nil {
		return nil, err
	}
	return n.key.Tag, nil
}

func (t *Tree) ValTag(id ID) (span.Sub, error) {
	n, err := t.facet(id, ValTag, "value tag")
	if err != nil {
		return nil, err
	}
	return n.val.Tag, nil
}

func (t *Tree) KeyAnchor(id ID) (span.Sub, error) {
	n, err := t.facet(id, KeyAnchor, "key anchor")
	if err != nil {
		return nil, err
	}
	return n.key.Anchor, nil
}

func (t *Tree) ValAnchor(id ID) (span.Sub, error) {
	n, err := t.facet(id, ValAnchor, "value anchor")
	if err != nil {
		return nil, err
	}
	return n.val.Anchor, nil
}

func (t *Tree) KeyRef(id ID) (span.Sub, error) {
	n, err := t.facet(id, KeyRef, "key reference")
	if err != nil {
		return nil, err
	}
	return n.key.Anchor, nil
}

func (t *Tree) ValRef(id ID) (span.Sub, error) {
	n, err := t.facet(id, ValRef, "value reference")
	if err != nil {
		return nil, err
	}
	return n.val.Anchor, nil
}

func (t *Tree) KeyScalar(id ID) (Scalar, error) {
	n, err := t.facet(id, Key, "key")
	if err != nil {
		return Scalar{}, err
	}
	return n.key, nil
}

func (t *Tree) ValScalar(id ID) (Scalar, error) {
	n, err := t.facet(id, Val, "value")
	if err != nil {
		return Scalar{}, err
	}
	return n.val, nil
}

// --- structural queries ---

func (t *Tree) relation(id ID, get func(*node) ID, what string) (ID, error) {
	n, err := t.node(id)
	if err != nil {
		return None, err
	}
	rel := get(n)
	if rel == None {
		return None, fmt.Errorf("%w: node %d has no %s", ErrNodeNotFound, id, what)
	}
	return rel, nil
}

func (t *Tree) Parent(id ID) (ID, error) {
	return t.relation(id, func(n *node) ID { return n.parent }, "parent")
}

func (t *Tree) FirstChild(id ID) (ID, error) {
	return t.relation(id, func(n *node) ID { return n.firstChild }, "first child")
}

func (t *Tree) LastChild(id ID) (ID, error) {
	return t.relation(id, func(n *node) ID { return n.lastChild }, "last child")
}

func (t *Tree) NextSibling(id ID) (ID, error) {
	return t.relation(id, func(n *node) ID { return n.nextSib }, "next sibling")
}

func (t *Tree) PrevSibling(id ID) (ID, error) {
	return t.relation(id, func(n *node) ID { return n.prevSib }, "previous sibling")
}

func (t *Tree) NumChildren(id ID) (int, error) {
	n, err := t.node(id)
	if err != nil {
		return 0, err
	}
	count := 0
	for c := n.firstChild; c != None; c = t.nodes[c].nextSib {
		count++
	}
	return count, nil
}

func (t *Tree) ChildAt(id ID, pos int) (ID, error) {
	n, err := t.node(id)
	if err != nil {
		return None, err
	}
	if pos >= 0 {
		for c := n.firstChild; c != None; c = t.nodes[c].nextSib {
			if pos == 0 {
				return c, nil
			}
			pos--
		}
	}
	return None, fmt.Errorf("%w: node %d has no child at position %d", ErrNodeNotFound, id, pos)
}

// FindChild scans the ordered child list for the first child whose key
// content equals key. O(children): maps here are typically small and no
// hash index is kept per node.
func (t *Tree) FindChild(id ID, key string) (ID, error) {
	n, err := t.node(id)
	if err != nil {
		return None, err
	}
	for c := n.firstChild; c != None; c = t.nodes[c].nextSib {
		cn := &t.nodes[c]
		if cn.kind&Key != 0 && cn.key.Text.EqualString(key) {
			return c, nil
		}
	}
	return None, fmt.Errorf("%w: node %d has no child with key %q", ErrNodeNotFound, id, key)
}

// FindSibling scans forward from the first sibling for a node keyed key.
func (t *Tree) FindSibling(id ID, key string) (ID, error) {
	n, err := t.node(id)
	if err != nil {
		return None, err
	}
	if n.parent == None {
		return None, fmt.Errorf("%w: node %d has no siblings", ErrNodeNotFound, id)
	}
	return t.FindChild(n.parent, key)
}

// HasOtherSiblings reports whether the node has at least one sibling
// besides itself. The node is never counted.
func (t *Tree) HasOtherSiblings(id ID) (bool, error) {
	n, err := t.node(id)
	if err != nil {
		return false, err
	}
	return n.prevSib != None || n.nextSib != None, nil
}

// NumDocs reports the number of documents in the tree: the children of
// a Stream root, or one for any other non-empty tree.
func (t *Tree) NumDocs() int {
	if t.Len() == 0 {
		return 0
	}
	root := t.Root()
	if t.nodes[root].kind.IsStream() {
		n, _ := t.NumChildren(root)
		return n
	}
	return 1
}

// DocAt returns the i'th document. Under a Stream root that is the i'th
// child; otherwise the root itself is the only document, at index 0.
func (t *Tree) DocAt(i int) (ID, error) {
	if t.Len() == 0 {
		return None, fmt.Errorf("%w: empty tree has no documents", ErrNodeNotFound)
	}
	root := t.Root()
	if t.nodes[root].kind.IsStream() {
		return t.ChildAt(root, i)
	}
	if i != 0 {
		return None, fmt.Errorf("%w: tree has one document, no document %d", ErrNodeNotFound, i)
	}
	return root, nil
}

// --- type transitions ---

func (t *Tree) toContainer(id ID, kind, more Type) error {
	n, err := t.node(id)
	if err != nil {
		return err
	}
	n.kind = n.kind&(keyMask|valMask&^Val) | kind | more
	n.val.Text = nil
	return nil
}

// ToMap turns the node into a map container, keeping key decorations
// and dropping any value text. more is OR'd onto the canonical flags.
func (t *Tree) ToMap(id ID, more Type) error { return t.toContainer(id, Map, more) }

// ToSeq turns the node into a sequence container.
func (t *Tree) ToSeq(id ID, more Type) error { return t.toContainer(id, Seq, more) }

// ToDoc turns the node into a document node.
func (t *Tree) ToDoc(id ID, more Type) error { return t.toContainer(id, Doc, more) }

// ToStream turns the node into a document stream.
func (t *Tree) ToStream(id ID, more Type) error { return t.toContainer(id, Stream, more) }

// ToVal turns the node into a scalar with the given text. Fails with
// ErrInvalidChange while the node still has children.
func (t *Tree) ToVal(id ID, val string, more Type) error {
	n, err := t.node(id)
	if err != nil {
		return err
	}
	if n.firstChild != None {
		return fmt.Errorf("%w: node %d has children", ErrInvalidChange, id)
	}
	n.kind = n.kind&keyMask | Val | more
	n.val = Scalar{Text: t.addString(val)}
	return nil
}

// ToKeyVal turns the node into a map entry with the given key and value.
func (t *Tree) ToKeyVal(id ID, key, val string, more Type) error {
	if err := t.ToVal(id, val, more); err != nil {
		return err
	}
	return t.SetKey(id, key)
}

// ToMapWithKey is ToMap plus a key, for map entries whose value is a map.
func (t *Tree) ToMapWithKey(id ID, key string, more Type) error {
	if err := t.ToMap(id, more); err != nil {
		return err
	}
	return t.SetKey(id, key)
}

// ToSeqWithKey is ToSeq plus a key.
func (t *Tree) ToSeqWithKey(id ID, key string, more Type) error {
	if err := t.ToSeq(id, more); err != nil {
		return err
	}
	return t.SetKey(id, key)
}

// ChangeType is the general type transition. It reports whether the
// change was structurally possible: a node with children can only move
// to another container type, never to a scalar, and failure leaves the
// node untouched.
func (t *Tree) ChangeType(id ID, to Type) bool {
	n, err := t.node(id)
	if err != nil {
		return false
	}
	if n.firstChild != None && !to.IsContainer() {
		return false
	}
	keep := NoType
	if n.kind&Key != 0 && to&Key == 0 {
		keep = n.kind & keyMask
	}
	n.kind = to | keep
	if n.kind&Val == 0 {
		n.val = Scalar{}
	}
	if n.kind&Key == 0 {
		n.key = Scalar{}
	}
	return true
}

// AddFlags ORs extra flags onto the node's type.
func (t *Tree) AddFlags(id ID, f Type) error {
	n, err := t.node(id)
	if err != nil {
		return err
	}
	n.kind |= f &^ flagFree
	return nil
}

// RemFlags clears flags from the node's type.
func (t *Tree) RemFlags(id ID, f Type) error {
	n, err := t.node(id)
	if err != nil {
		return err
	}
	n.kind &^= f &^ flagFree
	return nil
}

// --- mutation ---
//
// Setters copy their text into the arena so the result survives any
// source-buffer invalidation. Removers clear the flag and blank the
// span; arena bytes are never reclaimed individually.

func (t *Tree) SetKey(id ID, key string) error {
	n, err := t.node(id)
	if err != nil {
		return err
	}
	n.kind |= Key
	n.key.Text = t.addString(key)
	return nil
}

func (t *Tree) SetVal(id ID, val string) error {
	n, err := t.node(id)
	if err != nil {
		return err
	}
	if n.kind.IsContainer() || n.firstChild != None {
		return fmt.Errorf("%w: node %d is a container", ErrInvalidChange, id)
	}
	n.kind |= Val
	n.val.Text = t.addString(val)
	return nil
}

func (t *Tree) SetKeyTag(id ID, tag string) error {
	n, err := t.facet(id, Key, "key")
	if err != nil {
		return err
	}
	n.kind |= KeyTag
	n.key.Tag = t.addString(tag)
	return nil
}

func (t *Tree) SetValTag(id ID, tag string) error {
	n, err := t.node(id)
	if err != nil {
		return err
	}
	n.kind |= ValTag
	n.val.Tag = t.addString(tag)
	return nil
}

func (t *Tree) SetKeyAnchor(id ID, anchor string) error {
	n, err := t.facet(id, Key, "key")
	if err != nil {
		return err
	}
	n.kind |= KeyAnchor
	n.key.Anchor = t.addString(anchor)
	return nil
}

func (t *Tree) SetValAnchor(id ID, anchor string) error {
	n, err := t.node(id)
	if err != nil {
		return err
	}
	n.kind |= ValAnchor
	n.val.Anchor = t.addString(anchor)
	return nil
}

func (t *Tree) SetKeyRef(id ID, name string) error {
	n, err := t.node(id)
	if err != nil {
		return err
	}
	n.kind |= Key | KeyRef
	n.key.Anchor = t.addString(name)
	n.key.Text = t.addString("*" + name)
	return nil
}

func (t *Tree) SetValRef(id ID, name string) error {
	n, err := t.node(id)
	if err != nil {
		return err
	}
	if n.kind.IsContainer() || n.firstChild != None {
		return fmt.Errorf("%w: node %d is a container", ErrInvalidChange, id)
	}
	n.kind |= Val | ValRef
	n.val.Anchor = t.addString(name)
	n.val.Text = t.addString("*" + name)
	return nil
}

func (t *Tree) RemKeyTag(id ID) error    { return t.remFacet(id, KeyTag) }
func (t *Tree) RemValTag(id ID) error    { return t.remFacet(id, ValTag) }
func (t *Tree) RemKeyAnchor(id ID) error { return t.remFacet(id, KeyAnchor) }
func (t *Tree) RemValAnchor(id ID) error { return t.remFacet(id, ValAnchor) }
func (t *Tree) RemKeyRef(id ID) error    { return t.remFacet(id, KeyRef) }
func (t *Tree) RemValRef(id ID) error    { return t.remFacet(id, ValRef) }

func (t *Tree) remFacet(id ID, flag Type) error {
	n, err := t.node(id)
	if err != nil {
		return err
	}
	n.kind &^= flag
	switch flag {
	case KeyTag:
		n.key.Tag = nil
	case ValTag:
		n.val.Tag = nil
	case KeyAnchor, KeyRef:
		n.key.Anchor = nil
	case ValAnchor, ValRef:
		n.val.Anchor = nil
	}
	return nil
}

// SetKeyScalar installs a key scalar whose spans the caller owns,
// typically views into the parsed source buffer. flags is OR'd onto
// the node's type and must include Key for the key to be visible. The
// spans must reference memory that outlives the tree.
func (t *Tree) SetKeyScalar(id ID, s Scalar, flags Type) error {
	n, err := t.node(id)
	if err != nil {
		return err
	}
	n.kind |= flags &^ flagFree
	n.key = s
	return nil
}

// SetValScalar is the value-side analog of SetKeyScalar.
func (t *Tree) SetValScalar(id ID, s Scalar, flags Type) error {
	n, err := t.node(id)
	if err != nil {
		return err
	}
	n.kind |= flags &^ flagFree
	n.val = s
	return nil
}
