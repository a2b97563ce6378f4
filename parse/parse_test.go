package parse

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yamltree/yamltree/tree"
)

// plain converts a subtree to nested maps/slices/strings. Streams
// become slices of documents; null renders as "".
func plain(tr *tree.Tree, id tree.ID) any {
	k, err := tr.NodeType(id)
	if err != nil {
		return nil
	}
	if k.IsStream() {
		docs := []any{}
		c, err := tr.FirstChild(id)
		for err == nil {
			docs = append(docs, plain(tr, c))
			c, err = tr.NextSibling(c)
		}
		return docs
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

func mustParse(t *testing.T, in string) *tree.Tree {
	t.Helper()
	tr, err := Parse([]byte(in))
	if err != nil {
		t.Fatalf("Parse(%q): %v", in, err)
	}
	return tr
}

func TestParseStructures(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want any
	}{
		{
			name: "scalar doc",
			in:   "hello\n",
			want: "hello",
		},
		{
			name: "quoted scalar doc",
			in:   "\"a: b\"\n",
			want: "a: b",
		},
		{
			name: "flat map",
			in:   "a: 1\nb: 2\n",
			want: map[string]any{"a": "1", "b": "2"},
		},
		{
			name: "nested map",
			in:   "a:\n  b:\n    c: deep\n",
			want: map[string]any{"a": map[string]any{"b": map[string]any{"c": "deep"}}},
		},
		{
			name: "sequence",
			in:   "- x\n- y\n",
			want: []any{"x", "y"},
		},
		{
			name: "zero-indent sequence under key",
			in:   "k:\n- 1\n- 2\n",
			want: map[string]any{"k": []any{"1", "2"}},
		},
		{
			name: "indented sequence under key",
			in:   "k:\n  - 1\n  - 2\n",
			want: map[string]any{"k": []any{"1", "2"}},
		},
		{
			name: "seq of maps",
			in:   "- a: 1\n  b: 2\n- a: 3\n",
			want: []any{map[string]any{"a": "1", "b": "2"}, map[string]any{"a": "3"}},
		},
		{
			name: "nested dashes on one line",
			in:   "- - x\n  - y\n",
			want: []any{[]any{"x", "y"}},
		},
		{
			name: "null values",
			in:   "a:\nb: 1\n",
			want: map[string]any{"a": "", "b": "1"},
		},
		{
			name: "flow map",
			in:   "{a: 1, b: 2, c: [0, 1, 2, 3]}\n",
			want: map[string]any{"a": "1", "b": "2", "c": []any{"0", "1", "2", "3"}},
		},
		{
			name: "flow seq with pairs",
			in:   "[a, {b: 1}, c: 2]\n",
			want: []any{"a", map[string]any{"b": "1"}, map[string]any{"c": "2"}},
		},
		{
			name: "flow value in block map",
			in:   "k: {x: 1}\n",
			want: map[string]any{"k": map[string]any{"x": "1"}},
		},
		{
			name: "multi-line flow",
			in:   "k: [1,\n    2]\n",
			want: map[string]any{"k": []any{"1", "2"}},
		},
		{
			name: "plain multi-line scalar folds",
			in:   "a: one\n  two\n",
			want: map[string]any{"a": "one two"},
		},
		{
			name: "comments ignored",
			in:   "# head\na: 1 # tail\n# foot\n",
			want: map[string]any{"a": "1"},
		},
		{
			name: "single quote escape",
			in:   "a: 'it''s'\n",
			want: map[string]any{"a": "it's"},
		},
		{
			name: "double quote escapes",
			in:   "a: \"x\\ty\\u00e9\"\n",
			want: map[string]any{"a": "x\ty\u00e9"},
		},
		{
			name: "stream",
			in:   "---\na: 1\n---\nb: 2\n",
			want: []any{map[string]any{"a": "1"}, map[string]any{"b": "2"}},
		},
		{
			name: "stream with content before first marker",
			in:   "a: 1\n---\nb: 2\n",
			want: []any{map[string]any{"a": "1"}, map[string]any{"b": "2"}},
		},
		{
			name: "scalar documents",
			in:   "--- one\n--- two\n",
			want: []any{"one", "two"},
		},
		{
			name: "explicit end marker",
			in:   "---\na: 1\n...\n---\nb: 2\n",
			want: []any{map[string]any{"a": "1"}, map[string]any{"b": "2"}},
		},
		{
			name: "crlf line endings",
			in:   "a: 1\r\nb: two\r\n",
			want: map[string]any{"a": "1", "b": "two"},
		},
		{
			name: "crlf nested structures",
			in:   "m:\r\n  k: v\r\ns:\r\n  - x\r\n  - y\r\n",
			want: map[string]any{
				"m": map[string]any{"k": "v"},
				"s": []any{"x", "y"},
			},
		},
		{
			name: "crlf quoted scalar across lines",
			in:   "a: \"one\r\ntwo\"\r\n",
			want: map[string]any{"a": "one two"},
		},
		{
			name: "crlf stream",
			in:   "---\r\na: 1\r\n---\r\nb: 2\r\n",
			want: []any{map[string]any{"a": "1"}, map[string]any{"b": "2"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := mustParse(t, tt.in)
			if diff := cmp.Diff(tt.want, plain(tr, tr.Root())); diff != "" {
				t.Errorf("structure mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseKeyValNodeCount(t *testing.T) {
	// a map entry is one node carrying both key and value
	tr := mustParse(t, "key: value\n")
	if got := tr.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2 (root plus one entry)", got)
	}
	c, err := tr.FirstChild(tr.Root())
	if err != nil {
		t.Fatal(err)
	}
	k, _ := tr.NodeType(c)
	if !k.HasKey() || !k.HasVal() {
		t.Errorf("entry type = %v, want KeyVal", k)
	}
}

func TestParseBlockScalars(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		flag tree.Type
	}{
		{
			name: "literal clip",
			in:   "k: |\n  line1\n  line2\n",
			want: "line1\nline2\n",
			flag: tree.ValLiteral,
		},
		{
			name: "literal strip",
			in:   "k: |-\n  x\n",
			want: "x",
			flag: tree.ValLiteral,
		},
		{
			name: "literal keep",
			in:   "k: |+\n  x\n\n\nz: 1\n",
			want: "x\n\n\n",
			flag: tree.ValLiteral,
		},
		{
			name: "literal interior blank",
			in:   "k: |\n  a\n\n  b\n",
			want: "a\n\nb\n",
			flag: tree.ValLiteral,
		},
		{
			name: "explicit indent",
			in:   "k: |2\n   a\n",
			want: " a\n",
			flag: tree.ValLiteral,
		},
		{
			name: "folded",
			in:   "k: >\n  a\n  b\n\n  c\n",
			want: "a b\nc\n",
			flag: tree.ValFolded,
		},
		{
			name: "folded more-indented stays literal",
			in:   "k: >\n  a\n    b\n  c\n",
			want: "a\n  b\nc\n",
			flag: tree.ValFolded,
		},
		{
			name: "literal with crlf input",
			in:   "k: |\r\n  line1\r\n  line2\r\n",
			want: "line1\nline2\n",
			flag: tree.ValLiteral,
		},
		{
			name: "literal crlf interior blank",
			in:   "k: |\r\n  a\r\n\r\n  b\r\n",
			want: "a\n\nb\n",
			flag: tree.ValLiteral,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := mustParse(t, tt.in)
			c, err := tr.FindChild(tr.Root(), "k")
			if err != nil {
				t.Fatal(err)
			}
			v, err := tr.Val(c)
			if err != nil {
				t.Fatal(err)
			}
			if v.String() != tt.want {
				t.Errorf("value = %q, want %q", v, tt.want)
			}
			if k, _ := tr.NodeType(c); k&tt.flag == 0 {
				t.Errorf("type = %v, want %v set", k, tt.flag)
			}
		})
	}
}

func TestParseDecorations(t *testing.T) {
	tr := mustParse(t, "a: !int 5\nb: &anc hi\nc: *anc\n!t d: 1\n\"q k\": 2\n")
	root := tr.Root()

	a, _ := tr.FindChild(root, "a")
	if tag, err := tr.ValTag(a); err != nil || !tag.EqualString("!int") {
		t.Errorf("ValTag(a) = %q, %v, want !int", tag, err)
	}
	b, _ := tr.FindChild(root, "b")
	if anc, err := tr.ValAnchor(b); err != nil || !anc.EqualString("anc") {
		t.Errorf("ValAnchor(b) = %q, %v, want anc", anc, err)
	}
	if v, _ := tr.Val(b); !v.EqualString("hi") {
		t.Errorf("Val(b) = %q, want hi", v)
	}
	c, _ := tr.FindChild(root, "c")
	k, _ := tr.NodeType(c)
	if !k.IsValRef() {
		t.Fatalf("NodeType(c) = %v, want ValRef set", k)
	}
	if ref, err := tr.ValRef(c); err != nil || !ref.EqualString("anc") {
		t.Errorf("ValRef(c) = %q, %v, want anc", ref, err)
	}
	if v, _ := tr.Val(c); !v.EqualString("*anc") {
		t.Errorf("Val(c) = %q, want *anc", v)
	}
	d, err := tr.FindChild(root, "d")
	if err != nil {
		t.Fatal(err)
	}
	if tag, err := tr.KeyTag(d); err != nil || !tag.EqualString("!t") {
		t.Errorf("KeyTag(d) = %q, %v, want !t", tag, err)
	}
	q, err := tr.FindChild(root, "q k")
	if err != nil {
		t.Fatal(err)
	}
	if k, _ := tr.NodeType(q); k&tree.KeyQuoted == 0 {
		t.Errorf("NodeType(quoted key) = %v, want KeyQuoted set", k)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
		line int
	}{
		{
			name: "tab indentation",
			in:   "a: 1\n\tb: 2\n",
			want: ErrParseIndent,
			line: 2,
		},
		{
			name: "bad de-indent",
			in:   "a:\n    b: 1\n  c: 2\n",
			want: ErrParseIndent,
			line: 3,
		},
		{
			name: "unterminated single quote",
			in:   "a: 'open\n",
			want: ErrParseUnterminated,
			line: 1,
		},
		{
			name: "unterminated double quote",
			in:   "a: \"open\n",
			want: ErrParseUnterminated,
			line: 1,
		},
		{
			name: "unterminated flow",
			in:   "a: [1, 2\n",
			want: ErrParseUnterminated,
			line: 1,
		},
		{
			name: "bad escape",
			in:   "a: \"x\\q\"\n",
			want: ErrParseEscape,
			line: 1,
		},
		{
			name: "seq entry in map",
			in:   "a: 1\n- x\n",
			want: ErrParse,
			line: 2,
		},
		{
			name: "map entry in seq",
			in:   "- x\na: 1\n",
			want: ErrParse,
			line: 2,
		},
		{
			name: "empty anchor",
			in:   "a: & x\n",
			want: ErrParse,
			line: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.in), Filename("t.yaml"))
			if !errors.Is(err, tt.want) {
				t.Fatalf("Parse err = %v, want %v", err, tt.want)
			}
			var pe *ParseErr
			if !errors.As(err, &pe) {
				t.Fatalf("error %v is not a *ParseErr", err)
			}
			if pe.File != "t.yaml" {
				t.Errorf("File = %q, want t.yaml", pe.File)
			}
			if pe.Pos.Line != tt.line {
				t.Errorf("Line = %d, want %d (err %v)", pe.Pos.Line, tt.line, err)
			}
		})
	}
}

func TestParseBadUTF8(t *testing.T) {
	_, err := Parse([]byte{'a', ':', ' ', 0xff, '\n'})
	if !errors.Is(err, ErrParseUTF8) {
		t.Errorf("Parse err = %v, want ErrParseUTF8", err)
	}
}

func TestParseInPlace(t *testing.T) {
	buf := []byte("a: \"x\\ny\"\n")
	tr, err := ParseInPlace(buf)
	if err != nil {
		t.Fatal(err)
	}
	if &tr.Source()[0] != &buf[0] {
		t.Errorf("Source() must alias the caller's buffer")
	}
	a, err := tr.FindChild(tr.Root(), "a")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := tr.Val(a); !v.EqualString("x\ny") {
		t.Errorf("Val(a) = %q, want %q", v, "x\ny")
	}
}

func TestParseCopiesBuffer(t *testing.T) {
	buf := []byte("a: hello\n")
	tr, err := Parse(buf)
	if err != nil {
		t.Fatal(err)
	}
	// clobbering the caller's buffer must not affect the tree
	for i := range buf {
		buf[i] = '#'
	}
	a, err := tr.FindChild(tr.Root(), "a")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := tr.Val(a); !v.EqualString("hello") {
		t.Errorf("Val(a) = %q, want %q", v, "hello")
	}
}

func TestParseIntoTreeReuses(t *testing.T) {
	tr, err := Parse([]byte("a: 1\nb: 2\nc: 3\n"))
	if err != nil {
		t.Fatal(err)
	}
	capBefore := tr.Cap()
	if err := ParseIntoTree(tr, []byte("x: 9\n")); err != nil {
		t.Fatal(err)
	}
	if got := tr.Cap(); got != capBefore {
		t.Errorf("Cap() = %d, want %d (reparse must reuse capacity)", got, capBefore)
	}
	want := map[string]any{"x": "9"}
	if diff := cmp.Diff(want, plain(tr, tr.Root())); diff != "" {
		t.Errorf("reparsed structure mismatch (-want +got):\n%s", diff)
	}
}

func TestParseReserves(t *testing.T) {
	tr, err := Parse([]byte("a: 1\n"), ReserveNodes(64), ReserveArena(1024))
	if err != nil {
		t.Fatal(err)
	}
	if got := tr.Cap(); got < 64 {
		t.Errorf("Cap() = %d, want >= 64", got)
	}
	if got := tr.ArenaCap(); got < 1024 {
		t.Errorf("ArenaCap() = %d, want >= 1024", got)
	}
}
