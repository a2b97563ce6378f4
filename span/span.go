// Package span provides non-owning views over text buffers.
//
// A Sub is a read-only window into a source buffer or a tree's arena; a
// Mut is the writable variant used during in-place parsing. Neither copies:
// both are plain byte slices, so a span stays valid as long as something
// still references the backing array, but it never observes writes made
// through a different, relocated buffer. Equality is by content, never by
// location.
package span

import "bytes"

// Sub is a read-only view of a contiguous byte range.
type Sub []byte

// Mut is a mutable view. The in-place parser rewrites scalar content
// through a Mut, shrink-only and left to right, so decoded text never
// overtakes undecoded input.
type Mut []byte

// Ro freezes a mutable view.
func (m Mut) Ro() Sub { return Sub(m) }

func (s Sub) Len() int    { return len(s) }
func (s Sub) Empty() bool { return len(s) == 0 }

// Equal compares content, not location.
func (s Sub) Equal(o Sub) bool { return bytes.Equal(s, o) }

// EqualString compares content against a Go string without copying.
func (s Sub) EqualString(o string) bool { return string(s) == o }

func (s Sub) String() string { return string(s) }

// HasPrefix reports whether s begins with prefix.
func (s Sub) HasPrefix(prefix string) bool {
	return len(s) >= len(prefix) && string(s[:len(prefix)]) == prefix
}

// TrimSpace returns s with leading and trailing spaces, tabs and
// carriage returns removed. Newlines are structural in YAML and are
// never part of a span, so they are not trimmed here; a carriage
// return at an edge is the remnant of a CRLF line break, not content.
func (s Sub) TrimSpace() Sub {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\r') {
		i++
	}
	j := len(s)
	for j > i && (s[j-1] == ' ' || s[j-1] == '\t' || s[j-1] == '\r') {
		j--
	}
	return s[i:j]
}
