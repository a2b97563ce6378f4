package tree

import "fmt"

type seedKind int

const (
	seedNone seedKind = iota
	seedKey
	seedPos
)

// Ref is a transient handle on one node of a tree, able to defer node
// creation. A lookup that finds nothing returns a seeded Ref instead of
// failing: the seed remembers the requested key or position, the tree
// stays unmodified, and the first mutation through the Ref materializes
// the node. Reads on a seeded Ref fail with ErrNodeNotFound; reads
// never auto-create.
//
// A Ref must not be kept across Reorder, which invalidates every ID.
type Ref struct {
	t      *Tree
	id     ID
	parent *Ref
	seed   seedKind
	key    string
	pos    int
}

// Ref wraps an existing node.
func (t *Tree) Ref(id ID) Ref { return Ref{t: t, id: id} }

// RootRef wraps the toplevel node, allocating it on an empty tree.
func (t *Tree) RootRef() Ref { return Ref{t: t, id: t.Root()} }

// IsSeed reports whether the Ref still carries a deferred lookup and
// no node exists for it yet.
func (r Ref) IsSeed() bool { return r.seed != seedNone }

// Seed describes the pending lookup, "" when none.
func (r Ref) Seed() string {
	switch r.seed {
	case seedKey:
		return r.key
	case seedPos:
		return fmt.Sprintf("[%d]", r.pos)
	}
	return ""
}

// ID returns the node this Ref resolved to.
func (r Ref) ID() (ID, error) {
	if r.seed != seedNone {
		return None, fmt.Errorf("%w: reference is an unmaterialized seed", ErrNodeNotFound)
	}
	return r.id, nil
}

// Get looks up a child by key. A miss returns a seeded Ref so that a
// chain like root.Get("a").Get("b").SetVal("x") can build intermediate
// structure on its first write.
func (r Ref) Get(key string) Ref {
	if r.seed == seedNone {
		if id, err := r.t.FindChild(r.id, key); err == nil {
			return Ref{t: r.t, id: id}
		}
		return Ref{t: r.t, id: r.id, seed: seedKey, key: key}
	}
	pending := r
	return Ref{t: r.t, id: None, parent: &pending, seed: seedKey, key: key}
}

// At looks up a child by position, seeding on a miss like Get.
func (r Ref) At(pos int) Ref {
	if r.seed == seedNone {
		if id, err := r.t.ChildAt(r.id, pos); err == nil {
			return Ref{t: r.t, id: id}
		}
		return Ref{t: r.t, id: r.id, seed: seedPos, pos: pos}
	}
	pending := r
	return Ref{t: r.t, id: None, parent: &pending, seed: seedPos, pos: pos}
}

// --- reads: short-circuit to ErrNodeNotFound while seeded ---

func (r Ref) Key() (string, error) {
	if r.seed != seedNone {
		return "", fmt.Errorf("%w: reference is an unmaterialized seed", ErrNodeNotFound)
	}
	k, err := r.t.Key(r.id)
	return k.String(), err
}

func (r Ref) Val() (string, error) {
	if r.seed != seedNone {
		return "", fmt.Errorf("%w: reference is an unmaterialized seed", ErrNodeNotFound)
	}
	v, err := r.t.Val(r.id)
	return v.String(), err
}

func (r Ref) Type() (Type, error) {
	if r.seed != seedNone {
		return NoType, fmt.Errorf("%w: reference is an unmaterialized seed", ErrNodeNotFound)
	}
	return r.t.NodeType(r.id)
}

func (r Ref) NumChildren() (int, error) {
	if r.seed != seedNone {
		return 0, fmt.Errorf("%w: reference is an unmaterialized seed", ErrNodeNotFound)
	}
	return r.t.NumChildren(r.id)
}

// --- writes: materialize on first mutating call ---

// materialize resolves the whole pending chain, creating one node per
// seed, parents first.
func (r *Ref) materialize() error {
	if r.seed == seedNone {
		return nil
	}
	if r.parent != nil {
		if err := r.parent.materialize(); err != nil {
			return err
		}
		r.id = r.parent.id
		r.parent = nil
	}
	kind, err := r.t.NodeType(r.id)
	if err != nil {
		return err
	}
	want := Map
	if r.seed == seedPos {
		want = Seq
	}
	if !kind.IsContainer() {
		if kind.HasVal() {
			v, _ := r.t.Val(r.id)
			if !v.Empty() {
				return fmt.Errorf("%w: node %d already holds a value", ErrInvalidChange, r.id)
			}
		}
		if !r.t.ChangeType(r.id, want|kind&keyMask) {
			return fmt.Errorf("%w: node %d cannot become a container", ErrInvalidChange, r.id)
		}
	}
	switch r.seed {
	case seedKey:
		id, err := r.t.AppendChild(r.id)
		if err != nil {
			return err
		}
		if err := r.t.SetKey(id, r.key); err != nil {
			return err
		}
		r.id = id
	case seedPos:
		num, err := r.t.NumChildren(r.id)
		if err != nil {
			return err
		}
		var id ID
		if r.pos >= num {
			id, err = r.t.AppendChild(r.id)
		} else if r.pos <= 0 {
			id, err = r.t.PrependChild(r.id)
		} else {
			var at ID
			at, err = r.t.ChildAt(r.id, r.pos-1)
			if err == nil {
				id, err = r.t.InsertChild(r.id, at)
			}
		}
		if err != nil {
			return err
		}
		r.id = id
	}
	r.seed = seedNone
	return nil
}

func (r *Ref) SetVal(v string) error {
	if err := r.materialize(); err != nil {
		return err
	}
	return r.t.SetVal(r.id, v)
}

func (r *Ref) SetKey(k string) error {
	if err := r.materialize(); err != nil {
		return err
	}
	return r.t.SetKey(r.id, k)
}

func (r *Ref) ToMap() error {
	if err := r.materialize(); err != nil {
		return err
	}
	return r.t.ToMap(r.id, NoType)
}

func (r *Ref) ToSeq() error {
	if err := r.materialize(); err != nil {
		return err
	}
	return r.t.ToSeq(r.id, NoType)
}

// ChangeType materializes the node, then applies the tree-level
// ChangeType with its structural safety check.
func (r *Ref) ChangeType(to Type) (bool, error) {
	if err := r.materialize(); err != nil {
		return false, err
	}
	return r.t.ChangeType(r.id, to), nil
}
