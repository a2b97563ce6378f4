package span

import "testing"

func TestTrimSpace(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"   ", ""},
		{"a", "a"},
		{"  a b  ", "a b"},
		{"\ta\t", "a"},
		{" \t mixed \t ", "mixed"},
		{"1\r", "1"},
		{"\r\ttwo words \r ", "two words"},
	}
	for _, tt := range tests {
		got := Sub(tt.in).TrimSpace()
		if !got.EqualString(tt.want) {
			t.Errorf("TrimSpace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEqual(t *testing.T) {
	a := Sub("hello")
	b := Sub([]byte{'h', 'e', 'l', 'l', 'o'})
	if !a.Equal(b) {
		t.Errorf("equal content in distinct buffers must compare equal")
	}
	if a.Equal(Sub("hell")) {
		t.Errorf("prefixes must not compare equal")
	}
	var empty Sub
	if !empty.Equal(Sub("")) {
		t.Errorf("nil and empty spans must compare equal")
	}
}

func TestHasPrefix(t *testing.T) {
	s := Sub("*anchor")
	if !s.HasPrefix("*") {
		t.Errorf("HasPrefix(*) = false")
	}
	if s.HasPrefix("*anchorx") {
		t.Errorf("prefix longer than span must not match")
	}
}

func TestMutRo(t *testing.T) {
	buf := []byte("abc")
	m := Mut(buf)
	m[0] = 'x'
	if got := m.Ro().String(); got != "xbc" {
		t.Errorf("Ro() = %q, want %q", got, "xbc")
	}
}
