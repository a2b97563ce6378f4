package tree

import "fmt"

// --- insertion ---

// InsertChild creates a new, empty node under parent, positioned right
// after the given sibling. after == None prepends. Returns the new ID.
func (t *Tree) InsertChild(parent, after ID) (ID, error) {
	p, err := t.node(parent)
	if err != nil {
		return None, err
	}
	if p.kind&Val != 0 {
		return None, fmt.Errorf("%w: node %d is a scalar", ErrInvalidChange, parent)
	}
	if after != None {
		a, err := t.node(after)
		if err != nil {
			return None, err
		}
		if a.parent != parent {
			return None, fmt.Errorf("%w: node %d is not a child of %d", ErrNodeNotFound, after, parent)
		}
	}
	id := t.alloc() // may grow the store; re-index below
	n := &t.nodes[id]
	n.parent = parent
	p = &t.nodes[parent]
	if after == None {
		n.nextSib = p.firstChild
		if p.firstChild != None {
			t.nodes[p.firstChild].prevSib = id
		}
		p.firstChild = id
		if p.lastChild == None {
			p.lastChild = id
		}
		return id, nil
	}
	a := &t.nodes[after]
	n.prevSib = after
	n.nextSib = a.nextSib
	if a.nextSib != None {
		t.nodes[a.nextSib].prevSib = id
	}
	a.nextSib = id
	if p.lastChild == after {
		p.lastChild = id
	}
	return id, nil
}

// PrependChild creates a new first child of parent.
func (t *Tree) PrependChild(parent ID) (ID, error) {
	return t.InsertChild(parent, None)
}

// AppendChild creates a new last child of parent.
func (t *Tree) AppendChild(parent ID) (ID, error) {
	p, err := t.node(parent)
	if err != nil {
		return None, err
	}
	return t.InsertChild(parent, p.lastChild)
}

// InsertSibling creates a new node next to id, right after the given
// sibling of id. after == None makes it the first sibling.
func (t *Tree) InsertSibling(id, after ID) (ID, error) {
	n, err := t.node(id)
	if err != nil {
		return None, err
	}
	if n.parent == None {
		return None, fmt.Errorf("%w: node %d is the root", ErrInvalidChange, id)
	}
	return t.InsertChild(n.parent, after)
}

// PrependSibling creates a new node right before id.
func (t *Tree) PrependSibling(id ID) (ID, error) {
	n, err := t.node(id)
	if err != nil {
		return None, err
	}
	if n.parent == None {
		return None, fmt.Errorf("%w: node %d is the root", ErrInvalidChange, id)
	}
	return t.InsertChild(n.parent, n.prevSib)
}

// AppendSibling creates a new node right after id.
func (t *Tree) AppendSibling(id ID) (ID, error) {
	if _, err := t.node(id); err != nil {
		return None, err
	}
	return t.InsertSibling(id, id)
}

// --- removal ---

func (t *Tree) unlink(id ID) {
	n := &t.nodes[id]
	if n.prevSib != None {
		t.nodes[n.prevSib].nextSib = n.nextSib
	}
	if n.nextSib != None {
		t.nodes[n.nextSib].prevSib = n.prevSib
	}
	if n.parent != None {
		p := &t.nodes[n.parent]
		if p.firstChild == id {
			p.firstChild = n.nextSib
		}
		if p.lastChild == id {
			p.lastChild = n.prevSib
		}
	}
	n.parent = None
	n.prevSib = None
	n.nextSib = None
}

func (t *Tree) freeSubtree(id ID) {
	for c := t.nodes[id].firstChild; c != None; {
		next := t.nodes[c].nextSib
		t.freeSubtree(c)
		c = next
	}
	t.freeSlot(id)
}

// Remove detaches id and discards it together with its whole subtree.
// The freed slots are recycled by later insertions.
func (t *Tree) Remove(id ID) error {
	if _, err := t.node(id); err != nil {
		return err
	}
	t.unlink(id)
	t.freeSubtree(id)
	return nil
}

// RemoveChildren discards all of id's descendants, keeping id.
func (t *Tree) RemoveChildren(id ID) error {
	n, err := t.node(id)
	if err != nil {
		return err
	}
	for c := n.firstChild; c != None; {
		next := t.nodes[c].nextSib
		t.freeSubtree(c)
		c = next
	}
	n = &t.nodes[id]
	n.firstChild = None
	n.lastChild = None
	return nil
}

// --- duplication ---

// Duplicate deep-copies the subtree at id and inserts the copy under
// parent, after the given sibling. The destination may not lie inside
// the copied subtree.
func (t *Tree) Duplicate(id, parent, after ID) (ID, error) {
	if _, err := t.node(id); err != nil {
		return None, err
	}
	if t.isInSubtree(parent, id) {
		return None, fmt.Errorf("%w: destination %d is inside the copied subtree", ErrInvalidChange, parent)
	}
	return t.duplicateFrom(t, id, parent, after)
}

// DuplicateFromTree deep-copies a subtree from another tree instance.
// src must be a distinct tree; scalar text is re-added to this tree's
// arena so the copy does not alias src's buffers.
func (t *Tree) DuplicateFromTree(src *Tree, id, parent, after ID) (ID, error) {
	if src == t {
		return None, ErrSameTree
	}
	if _, err := src.node(id); err != nil {
		return None, err
	}
	return t.duplicateFrom(src, id, parent, after)
}

func (t *Tree) isInSubtree(id, top ID) bool {
	for id != None {
		if id == top {
			return true
		}
		id = t.nodes[id].parent
	}
	return false
}

func (t *Tree) duplicateFrom(src *Tree, id, parent, after ID) (ID, error) {
	dup, err := t.InsertChild(parent, after)
	if err != nil {
		return None, err
	}
	t.copyContent(src, id, dup)
	if err := t.duplicateChildrenFrom(src, id, dup, None); err != nil {
		return None, err
	}
	return dup, nil
}

// copyContent copies type flags and scalars from src's node id onto
// this tree's node dst. Cross-tree copies go through the arena.
func (t *Tree) copyContent(src *Tree, id, dst ID) {
	sn := src.nodes[id]
	n := &t.nodes[dst]
	n.kind = sn.kind
	if src == t {
		n.key = sn.key
		n.val = sn.val
		return
	}
	n.key = Scalar{
		Tag:    t.AddToArena(sn.key.Tag),
		Text:   t.AddToArena(sn.key.Text),
		Anchor: t.AddToArena(sn.key.Anchor),
	}
	n = &t.nodes[dst] // AddToArena never moves nodes, but re-index for clarity
	n.val = Scalar{
		Tag:    t.AddToArena(sn.val.Tag),
		Text:   t.AddToArena(sn.val.Text),
		Anchor: t.AddToArena(sn.val.Anchor),
	}
}

func (t *Tree) duplicateChildrenFrom(src *Tree, id, parent, after ID) error {
	pos := after
	for c := src.nodes[id].firstChild; c != None; c = src.nodes[c].nextSib {
		dup, err := t.InsertChild(parent, pos)
		if err != nil {
			return err
		}
		t.copyContent(src, c, dup)
		if err := t.duplicateChildrenFrom(src, c, dup, None); err != nil {
			return err
		}
		pos = dup
	}
	return nil
}

// DuplicateChildren copies id's children (not id itself) under parent,
// after the given sibling. Returns the last inserted child, or after
// when id has no children.
func (t *Tree) DuplicateChildren(id, parent, after ID) (ID, error) {
	return t.duplicateChildren(t, id, parent, after)
}

// DuplicateChildrenFromTree is DuplicateChildren across two distinct trees.
func (t *Tree) DuplicateChildrenFromTree(src *Tree, id, parent, after ID) (ID, error) {
	if src == t {
		return None, ErrSameTree
	}
	return t.duplicateChildren(src, id, parent, after)
}

func (t *Tree) duplicateChildren(src *Tree, id, parent, after ID) (ID, error) {
	if _, err := src.node(id); err != nil {
		return None, err
	}
	if _, err := t.node(parent); err != nil {
		return None, err
	}
	pos := after
	for c := src.nodes[id].firstChild; c != None; c = src.nodes[c].nextSib {
		dup, err := t.InsertChild(parent, pos)
		if err != nil {
			return None, err
		}
		t.copyContent(src, c, dup)
		if err := t.duplicateChildrenFrom(src, c, dup, None); err != nil {
			return None, err
		}
		pos = dup
	}
	return pos, nil
}

// DuplicateChildrenNoRep copies id's children under parent with
// last-writer-wins conflict resolution: an incoming map entry replaces
// an existing entry with the same key, an incoming sequence item
// replaces an existing item with the same value text. Resolution is by
// position, the later occurrence superseding the earlier one.
func (t *Tree) DuplicateChildrenNoRep(id, parent, after ID) (ID, error) {
	return t.duplicateChildrenNoRep(t, id, parent, after)
}

// DuplicateChildrenNoRepFromTree is DuplicateChildrenNoRep across two
// distinct trees.
func (t *Tree) DuplicateChildrenNoRepFromTree(src *Tree, id, parent, after ID) (ID, error) {
	if src == t {
		return None, ErrSameTree
	}
	return t.duplicateChildrenNoRep(src, id, parent, after)
}

func (t *Tree) duplicateChildrenNoRep(src *Tree, id, parent, after ID) (ID, error) {
	if _, err := src.node(id); err != nil {
		return None, err
	}
	p, err := t.node(parent)
	if err != nil {
		return None, err
	}
	byKey := p.kind.IsMap()
	pos := after
	for c := src.nodes[id].firstChild; c != None; c = src.nodes[c].nextSib {
		cn := &src.nodes[c]
		prior := None
		if byKey && cn.kind&Key != 0 {
			prior = t.findChildSpan(parent, cn.key.Text)
		} else if !byKey && cn.kind&Val != 0 {
			prior = t.findChildVal(parent, cn.val.Text)
		}
		if prior != None {
			if prior == pos {
				pos = t.nodes[prior].prevSib
			}
			t.unlink(prior)
			t.freeSubtree(prior)
		}
		dup, err := t.InsertChild(parent, pos)
		if err != nil {
			return None, err
		}
		t.copyContent(src, c, dup)
		if err := t.duplicateChildrenFrom(src, c, dup, None); err != nil {
			return None, err
		}
		pos = dup
	}
	return pos, nil
}

func (t *Tree) findChildSpan(parent ID, key []byte) ID {
	for c := t.nodes[parent].firstChild; c != None; c = t.nodes[c].nextSib {
		cn := &t.nodes[c]
		if cn.kind&Key != 0 && string(cn.key.Text) == string(key) {
			return c
		}
	}
	return None
}

func (t *Tree) findChildVal(parent ID, val []byte) ID {
	for c := t.nodes[parent].firstChild; c != None; c = t.nodes[c].nextSib {
		cn := &t.nodes[c]
		if cn.kind&Val != 0 && string(cn.val.Text) == string(val) {
			return c
		}
	}
	return None
}

// --- moving ---

// MoveNode relinks the subtree at id under parent, after the given
// sibling. No nodes are renumbered and no text is copied.
func (t *Tree) MoveNode(id, parent, after ID) error {
	n, err := t.node(id)
	if err != nil {
		return err
	}
	if n.parent == None {
		return fmt.Errorf("%w: node %d is the root", ErrInvalidChange, id)
	}
	if _, err := t.node(parent); err != nil {
		return err
	}
	if t.isInSubtree(parent, id) {
		return fmt.Errorf("%w: destination %d is inside the moved subtree", ErrInvalidChange, parent)
	}
	if after != None {
		a, err := t.node(after)
		if err != nil {
			return err
		}
		if a.parent != parent {
			return fmt.Errorf("%w: node %d is not a child of %d", ErrNodeNotFound, after, parent)
		}
		if after == id {
			return nil
		}
	}
	t.unlink(id)
	n = &t.nodes[id]
	p := &t.nodes[parent]
	n.parent = parent
	if after == None {
		n.nextSib = p.firstChild
		if p.firstChild != None {
			t.nodes[p.firstChild].prevSib = id
		}
		p.firstChild = id
		if p.lastChild == None {
			p.lastChild = id
		}
		return nil
	}
	a := &t.nodes[after]
	n.prevSib = after
	n.nextSib = a.nextSib
	if a.nextSib != None {
		t.nodes[a.nextSib].prevSib = id
	}
	a.nextSib = id
	if p.lastChild == after {
		p.lastChild = id
	}
	return nil
}

// MoveNodeFromTree moves a subtree out of another tree: the subtree is
// duplicated here, then removed from src. Returns the new ID.
func (t *Tree) MoveNodeFromTree(src *Tree, id, parent, after ID) (ID, error) {
	if src == t {
		return None, ErrSameTree
	}
	dup, err := t.DuplicateFromTree(src, id, parent, after)
	if err != nil {
		return None, err
	}
	if err := src.Remove(id); err != nil {
		return None, err
	}
	return dup, nil
}

// WrapRootIntoStream converts a single-document tree into a stream:
// the root's current content (type, value scalar, children) moves into
// a new Doc child and the root becomes a Stream. Returns the Doc node.
func (t *Tree) WrapRootIntoStream() (ID, error) {
	root := t.Root()
	if t.nodes[root].kind.IsStream() {
		return None, fmt.Errorf("%w: root is already a stream", ErrInvalidChange)
	}
	doc := t.alloc() // may grow the store; index root after this
	rn := &t.nodes[root]
	dn := &t.nodes[doc]
	dn.kind = rn.kind&^flagFree | Doc
	dn.val = rn.val
	dn.parent = root
	dn.firstChild = rn.firstChild
	dn.lastChild = rn.lastChild
	for c := dn.firstChild; c != None; c = t.nodes[c].nextSib {
		t.nodes[c].parent = doc
	}
	rn.kind = Stream
	rn.val = Scalar{}
	rn.firstChild = doc
	rn.lastChild = doc
	return doc, nil
}

// --- reordering ---

// Reorder relocates nodes so the store matches depth-first pre-order.
//
// This is a tree-wide invalidation barrier: every previously obtained
// ID into this tree is invalid after the call and must be re-derived
// from Root() downward. Refs are invalidated the same way.
func (t *Tree) Reorder() {
	if t.root == None {
		return
	}
	remap := make([]ID, len(t.nodes))
	for i := range remap {
		remap[i] = None
	}
	order := make([]ID, 0, t.live)
	var visit func(ID)
	visit = func(id ID) {
		remap[id] = ID(len(order))
		order = append(order, id)
		for c := t.nodes[id].firstChild; c != None; c = t.nodes[c].nextSib {
			visit(c)
		}
	}
	visit(t.root)

	renum := func(id ID) ID {
		if id == None {
			return None
		}
		return remap[id]
	}
	fresh := make([]node, len(order), cap(t.nodes))
	for newID, oldID := range order {
		n := t.nodes[oldID]
		n.parent = renum(n.parent)
		n.firstChild = renum(n.firstChild)
		n.lastChild = renum(n.lastChild)
		n.prevSib = renum(n.prevSib)
		n.nextSib = renum(n.nextSib)
		fresh[newID] = n
	}
	t.nodes = fresh
	t.free = t.free[:0]
	t.live = len(order)
	t.root = 0
}
