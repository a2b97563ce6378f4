package tree

import (
	"errors"
	"testing"
)

func TestRefLookupHit(t *testing.T) {
	tr, _, _, b, _, _ := buildSample(t)
	r := tr.RootRef().Get("b")
	if r.IsSeed() {
		t.Fatalf("Get on existing key must not seed")
	}
	id, err := r.ID()
	if err != nil || id != b {
		t.Errorf("ID() = %d, %v, want %d", id, err, b)
	}
	v, err := r.At(0).Val()
	if err != nil || v != "x" {
		t.Errorf("At(0).Val() = %q, %v, want %q", v, err, "x")
	}
}

func TestRefSeedReadsFail(t *testing.T) {
	tr, _, _, _, _, _ := buildSample(t)
	lenBefore := tr.Len()
	r := tr.RootRef().Get("missing")
	if !r.IsSeed() {
		t.Fatalf("Get on missing key must seed")
	}
	if got := r.Seed(); got != "missing" {
		t.Errorf("Seed() = %q, want %q", got, "missing")
	}
	if _, err := r.Val(); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Val() on seed err = %v, want ErrNodeNotFound", err)
	}
	if _, err := r.Type(); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Type() on seed err = %v, want ErrNodeNotFound", err)
	}
	if _, err := r.ID(); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("ID() on seed err = %v, want ErrNodeNotFound", err)
	}
	// reads never create
	if got := tr.Len(); got != lenBefore {
		t.Errorf("Len() = %d, want %d: seeded reads must not mutate", got, lenBefore)
	}
}

func TestRefWriteMaterializes(t *testing.T) {
	tr, root, _, _, _, _ := buildSample(t)
	r := tr.RootRef().Get("c")
	if err := r.SetVal("3"); err != nil {
		t.Fatal(err)
	}
	if r.IsSeed() {
		t.Errorf("Ref must not stay seeded after a write")
	}
	c, err := tr.FindChild(root, "c")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := tr.Val(c); !v.EqualString("3") {
		t.Errorf("Val(c) = %q, want %q", v, "3")
	}
}

func TestRefChainedMaterialize(t *testing.T) {
	tr := New()
	r := tr.RootRef().Get("outer").Get("inner").At(0)
	if !r.IsSeed() {
		t.Fatalf("chained lookups on an empty tree must seed")
	}
	if got := r.Seed(); got != "[0]" {
		t.Errorf("Seed() = %q, want %q", got, "[0]")
	}
	if err := r.SetVal("deep"); err != nil {
		t.Fatal(err)
	}
	// the whole chain exists now: {outer: {inner: [deep]}}
	outer, err := tr.FindChild(tr.Root(), "outer")
	if err != nil {
		t.Fatal(err)
	}
	if k, _ := tr.NodeType(outer); !k.IsMap() {
		t.Errorf("outer type = %v, want Map", k)
	}
	inner, err := tr.FindChild(outer, "inner")
	if err != nil {
		t.Fatal(err)
	}
	if k, _ := tr.NodeType(inner); !k.IsSeq() {
		t.Errorf("inner type = %v, want Seq", k)
	}
	item, err := tr.ChildAt(inner, 0)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := tr.Val(item); !v.EqualString("deep") {
		t.Errorf("item value = %q, want %q", v, "deep")
	}
}

func TestRefMaterializeConflicts(t *testing.T) {
	tr, _, _, _, _, _ := buildSample(t)
	// "a" holds scalar 1; descending below it must fail on write
	r := tr.RootRef().Get("a").Get("sub")
	if err := r.SetVal("x"); !errors.Is(err, ErrInvalidChange) {
		t.Errorf("SetVal below scalar err = %v, want ErrInvalidChange", err)
	}
}

func TestRefToMapToSeq(t *testing.T) {
	tr := New()
	rm := tr.RootRef().Get("m")
	if err := rm.ToMap(); err != nil {
		t.Fatal(err)
	}
	m, err := tr.FindChild(tr.Root(), "m")
	if err != nil {
		t.Fatal(err)
	}
	if k, _ := tr.NodeType(m); !k.IsMap() {
		t.Errorf("m type = %v, want Map", k)
	}
	rs := tr.RootRef().Get("s")
	if err := rs.ToSeq(); err != nil {
		t.Fatal(err)
	}
	s, err := tr.FindChild(tr.Root(), "s")
	if err != nil {
		t.Fatal(err)
	}
	if k, _ := tr.NodeType(s); !k.IsSeq() {
		t.Errorf("s type = %v, want Seq", k)
	}
}
