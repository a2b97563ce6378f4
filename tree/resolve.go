package tree

import "fmt"

// anchorDef records the most recent definition of an anchor name at
// some point of the pre-order walk. keySide is set when the name was
// anchored to a key scalar rather than to a node's value/subtree.
type anchorDef struct {
	node    ID
	keySide bool
}

// refSub is one scheduled substitution: the alias node and the anchor
// definition it bound to.
type refSub struct {
	node    ID
	keySide bool
	target  anchorDef
}

// Resolve substitutes every alias with the content of the nearest
// preceding anchor of the same name, in document (depth-first,
// pre-order) sequence; within a node the key side precedes the value
// side. Anchor and reference marks are removed afterwards.
//
// Resolution is all-or-nothing: a dangling alias, a key alias bound to
// a container anchor, or an alias inside its own anchor's subtree fails
// the whole call with ErrResolve during the recording walk, before any
// substitution is applied. The walk is O(n)
// and each substitution costs the size of the copied subtree, which is
// why resolution is opt-in and never runs automatically after parsing.
func (t *Tree) Resolve() error {
	if t.root == None {
		return nil
	}
	latest := map[string]anchorDef{}
	var subs []refSub

	var walk func(ID) error
	walk = func(id ID) error {
		n := &t.nodes[id]
		if n.kind&KeyAnchor != 0 {
			latest[string(n.key.Anchor)] = anchorDef{node: id, keySide: true}
		}
		if n.kind&KeyRef != 0 {
			name := string(n.key.Anchor)
			def, ok := latest[name]
			if !ok {
				return fmt.Errorf("%w: no anchor named %q precedes key alias at node %d", ErrResolve, name, id)
			}
			if !def.keySide {
				tn := &t.nodes[def.node]
				if tn.kind.IsContainer() || tn.firstChild != None {
					return fmt.Errorf("%w: anchor at node %d is not a scalar and cannot substitute a key", ErrResolve, def.node)
				}
			}
			subs = append(subs, refSub{node: id, keySide: true, target: def})
		}
		if n.kind&ValAnchor != 0 {
			latest[string(n.val.Anchor)] = anchorDef{node: id}
		}
		if n.kind&ValRef != 0 {
			name := string(n.val.Anchor)
			def, ok := latest[name]
			if !ok {
				return fmt.Errorf("%w: no anchor named %q precedes alias at node %d", ErrResolve, name, id)
			}
			if !def.keySide {
				tn := &t.nodes[def.node]
				if (tn.kind.IsContainer() || tn.firstChild != None) && t.isInSubtree(id, def.node) {
					return fmt.Errorf("%w: alias at node %d lies inside the subtree of its own anchor", ErrResolve, id)
				}
			}
			subs = append(subs, refSub{node: id, target: def})
		}
		for c := n.firstChild; c != None; c = t.nodes[c].nextSib {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(t.root); err != nil {
		return err
	}

	// Substitute in document order, so an alias whose anchor content
	// itself contained an alias copies already-resolved content.
	for _, sub := range subs {
		if err := t.substitute(sub); err != nil {
			return err
		}
	}

	var strip func(ID)
	strip = func(id ID) {
		n := &t.nodes[id]
		n.kind &^= KeyAnchor | ValAnchor | KeyRef | ValRef
		n.key.Anchor = nil
		n.val.Anchor = nil
		for c := n.firstChild; c != None; c = t.nodes[c].nextSib {
			strip(c)
		}
	}
	strip(t.root)
	return nil
}

// substitute applies one scheduled substitution. Substitutability was
// checked during the recording walk, so the only failures left are
// allocation-level ones from the subtree copy.
func (t *Tree) substitute(sub refSub) error {
	target := &t.nodes[sub.target.node]
	if sub.keySide {
		// A key alias takes the anchored scalar text as its key.
		var text []byte
		if sub.target.keySide {
			text = target.key.Text
		} else {
			text = target.val.Text
		}
		n := &t.nodes[sub.node]
		n.kind &^= KeyRef
		n.key.Text = text
		n.key.Anchor = nil
		return nil
	}
	if sub.target.keySide {
		n := &t.nodes[sub.node]
		n.kind &^= ValRef
		n.val.Text = target.key.Text
		n.val.Anchor = nil
		return nil
	}
	if target.kind.IsContainer() || target.firstChild != None {
		// Copy the anchored subtree into the alias node in place.
		n := &t.nodes[sub.node]
		n.kind = n.kind&keyMask | target.kind&^(keyMask|KeyAnchor|ValAnchor|ValRef)
		n.val = Scalar{Tag: target.val.Tag}
		if err := t.duplicateChildrenFrom(t, sub.target.node, sub.node, None); err != nil {
			return err
		}
		return nil
	}
	n := &t.nodes[sub.node]
	n.kind &^= ValRef
	n.kind |= target.kind & (ValTag | ValQuoted | ValLiteral | ValFolded)
	n.val.Text = target.val.Text
	n.val.Tag = target.val.Tag
	n.val.Anchor = nil
	return nil
}
