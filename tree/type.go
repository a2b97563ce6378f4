package tree

import "strings"

// Type is a bitmask describing a node's role and how its key and value
// are decorated. Flags combine: a map entry carrying a scalar is
// Key|Val on its parent's child list, a tagged container is Map|ValTag,
// and so on. Composite constants cover the common shapes.
type Type uint32

const (
	// Val marks a node holding scalar value text.
	Val Type = 1 << iota
	// Key marks a node addressed by a key in its parent map.
	Key
	// Map marks a container with keyed children.
	Map
	// Seq marks a container with ordered, unkeyed children.
	Seq
	// Doc marks one document in a stream.
	Doc
	flagStream

	// KeyRef and ValRef mark alias nodes (*name) on the key or value
	// side; the referenced name is in the scalar's Anchor span.
	KeyRef
	ValRef
	// KeyAnchor and ValAnchor mark anchor definitions (&name).
	KeyAnchor
	ValAnchor
	// KeyTag and ValTag mark explicit tags (!name).
	KeyTag
	ValTag

	// Style bits recorded by the parser and consulted by the emitter.
	KeyQuoted
	ValQuoted
	ValLiteral
	ValFolded

	// flagFree marks a recycled node-store slot. Never observable
	// through the public API.
	flagFree
)

// NoType is a freshly inserted node whose role is not yet determined.
const NoType Type = 0

const (
	// KeyVal is a plain map entry.
	KeyVal = Key | Val
	// Stream is a sequence of documents. It deliberately carries the
	// Seq bit: stream children are ordered and unkeyed.
	Stream = Seq | flagStream
)

const (
	keyMask       = Key | KeyRef | KeyAnchor | KeyTag | KeyQuoted
	valMask       = Val | ValRef | ValAnchor | ValTag | ValQuoted | ValLiteral | ValFolded
	containerMask = Map | Seq | Doc | flagStream
)

func (t Type) IsContainer() bool { return t&containerMask != 0 }
func (t Type) IsMap() bool       { return t&Map != 0 }
func (t Type) IsSeq() bool       { return t&Seq != 0 }
func (t Type) IsDoc() bool       { return t&Doc != 0 }
func (t Type) IsStream() bool    { return t&Stream == Stream }
func (t Type) IsVal() bool       { return t&Val != 0 }

func (t Type) HasKey() bool       { return t&Key != 0 }
func (t Type) HasVal() bool       { return t&Val != 0 }
func (t Type) HasKeyTag() bool    { return t&KeyTag != 0 }
func (t Type) HasValTag() bool    { return t&ValTag != 0 }
func (t Type) HasKeyAnchor() bool { return t&KeyAnchor != 0 }
func (t Type) HasValAnchor() bool { return t&ValAnchor != 0 }
func (t Type) IsKeyRef() bool     { return t&KeyRef != 0 }
func (t Type) IsValRef() bool     { return t&ValRef != 0 }

var typeNames = []struct {
	bit  Type
	name string
}{
	{flagStream, "Stream"},
	{Val, "Val"},
	{Key, "Key"},
	{Map, "Map"},
	{Seq, "Seq"},
	{Doc, "Doc"},
	{KeyRef, "KeyRef"},
	{ValRef, "ValRef"},
	{KeyAnchor, "KeyAnchor"},
	{ValAnchor, "ValAnchor"},
	{KeyTag, "KeyTag"},
	{ValTag, "ValTag"},
	{KeyQuoted, "KeyQuoted"},
	{ValQuoted, "ValQuoted"},
	{ValLiteral, "ValLiteral"},
	{ValFolded, "ValFolded"},
}

func (t Type) String() string {
	if t == NoType {
		return "NoType"
	}
	parts := []string{}
	if t.IsStream() {
		// report Stream rather than its Seq|stream decomposition
		t &^= Seq
	}
	for _, tn := range typeNames {
		if t&tn.bit != 0 {
			parts = append(parts, tn.name)
		}
	}
	return strings.Join(parts, "|")
}
