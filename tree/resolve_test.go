package tree_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yamltree/yamltree/parse"
	"github.com/yamltree/yamltree/tree"
)

// plain converts a subtree to nested maps/slices/strings for
// comparison. Decorations are ignored; null renders as "".
func plain(tr *tree.Tree, id tree.ID) any {
	k, err := tr.NodeType(id)
	if err != nil {
		return nil
	}
	switch {
	case k.IsMap():
		m := map[string]any{}
		c, err := tr.FirstChild(id)
		for err == nil {
			key, _ := tr.Key(c)
			m[key.String()] = plain(tr, c)
			c, err = tr.NextSibling(c)
		}
		return m
	case k.IsSeq():
		s := []any{}
		c, err := tr.FirstChild(id)
		for err == nil {
			s = append(s, plain(tr, c))
			c, err = tr.NextSibling(c)
		}
		return s
	default:
		v, err := tr.Val(id)
		if err != nil {
			return nil
		}
		return v.String()
	}
}

func TestResolveNearestPrecedingAnchor(t *testing.T) {
	tr, err := parse.Parse([]byte("a: &anc 1\nb: *anc\nc: &anc 2\nd: *anc\n"))
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Resolve(); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"a": "1", "b": "1", "c": "2", "d": "2"}
	if diff := cmp.Diff(want, plain(tr, tr.Root())); diff != "" {
		t.Errorf("resolved content mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveContainerAnchor(t *testing.T) {
	in := `base: &b
  x: 1
  y: [p, q]
copy: *b
`
	tr, err := parse.Parse([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Resolve(); err != nil {
		t.Fatal(err)
	}
	sub := map[string]any{"x": "1", "y": []any{"p", "q"}}
	want := map[string]any{"base": sub, "copy": sub}
	if diff := cmp.Diff(want, plain(tr, tr.Root())); diff != "" {
		t.Errorf("resolved content mismatch (-want +got):\n%s", diff)
	}
	// copies are deep: editing the copy leaves the original alone
	cp, err := tr.FindChild(tr.Root(), "copy")
	if err != nil {
		t.Fatal(err)
	}
	cx, err := tr.FindChild(cp, "x")
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.SetVal(cx, "99"); err != nil {
		t.Fatal(err)
	}
	base, _ := tr.FindChild(tr.Root(), "base")
	bx, _ := tr.FindChild(base, "x")
	if v, _ := tr.Val(bx); !v.EqualString("1") {
		t.Errorf("base.x = %q after editing copy.x, want %q", v, "1")
	}
}

func TestResolveNestedAlias(t *testing.T) {
	// the anchored subtree itself contains an alias; substitution in
	// document order copies already-resolved content
	in := `a: &one 1
b: &pair
  first: *one
  second: 2
c: *pair
`
	tr, err := parse.Parse([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Resolve(); err != nil {
		t.Fatal(err)
	}
	pair := map[string]any{"first": "1", "second": "2"}
	want := map[string]any{"a": "1", "b": pair, "c": pair}
	if diff := cmp.Diff(want, plain(tr, tr.Root())); diff != "" {
		t.Errorf("resolved content mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveStripsMarks(t *testing.T) {
	tr, err := parse.Parse([]byte("a: &anc 1\nb: *anc\n"))
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Resolve(); err != nil {
		t.Fatal(err)
	}
	var walk func(id tree.ID)
	walk = func(id tree.ID) {
		k, _ := tr.NodeType(id)
		if k.HasValAnchor() || k.HasKeyAnchor() || k.IsValRef() || k.IsKeyRef() {
			t.Errorf("node %d keeps anchor/alias marks after Resolve: %v", id, k)
		}
		c, err := tr.FirstChild(id)
		for err == nil {
			walk(c)
			c, err = tr.NextSibling(c)
		}
	}
	walk(tr.Root())
}

func TestResolveDangling(t *testing.T) {
	tr, err := parse.Parse([]byte("a: 1\nb: *nope\n"))
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Resolve(); !errors.Is(err, tree.ErrResolve) {
		t.Errorf("Resolve() err = %v, want ErrResolve", err)
	}
	// all-or-nothing: the alias is still there
	b, err := tr.FindChild(tr.Root(), "b")
	if err != nil {
		t.Fatal(err)
	}
	if k, _ := tr.NodeType(b); !k.IsValRef() {
		t.Errorf("failed Resolve must not strip the alias, type = %v", k)
	}
}

func TestResolveKeyAliasToContainerAllOrNothing(t *testing.T) {
	// the key alias binds a container anchor and must fail the call
	// before the earlier, valid alias is substituted
	in := "s: &sv 1\ngood: *sv\nm: &mv\n  x: 1\n*mv: boom\n"
	tr, err := parse.Parse([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Resolve(); !errors.Is(err, tree.ErrResolve) {
		t.Fatalf("Resolve() err = %v, want ErrResolve", err)
	}
	good, err := tr.FindChild(tr.Root(), "good")
	if err != nil {
		t.Fatal(err)
	}
	if k, _ := tr.NodeType(good); !k.IsValRef() {
		t.Errorf("failed Resolve must leave earlier aliases unsubstituted, type = %v", k)
	}
	if v, _ := tr.Val(good); !v.EqualString("*sv") {
		t.Errorf("Val(good) = %q, want the alias text intact", v)
	}
}

func TestResolveForwardAliasDangles(t *testing.T) {
	// anchors bind only to preceding aliases
	tr, err := parse.Parse([]byte("a: *later\nb: &later 1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Resolve(); !errors.Is(err, tree.ErrResolve) {
		t.Errorf("Resolve() err = %v, want ErrResolve", err)
	}
}

func TestResolveCyclic(t *testing.T) {
	tr, err := parse.Parse([]byte("a: &x\n  b: *x\n"))
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Resolve(); !errors.Is(err, tree.ErrResolve) {
		t.Errorf("Resolve() on cyclic alias err = %v, want ErrResolve", err)
	}
}

func TestResolveIdempotentWithoutAliases(t *testing.T) {
	tr, err := parse.Parse([]byte("a: 1\nb: [2, 3]\n"))
	if err != nil {
		t.Fatal(err)
	}
	before := plain(tr, tr.Root())
	if err := tr.Resolve(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, plain(tr, tr.Root())); diff != "" {
		t.Errorf("Resolve without aliases changed content (-before +after):\n%s", diff)
	}
}
