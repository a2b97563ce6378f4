// Package emit serializes a tree.Tree back to YAML or JSON text.
//
// YAML output is block style throughout, with empty containers in
// their compact flow spelling ({} and []). Scalars stay plain unless
// they were parsed quoted or would not survive a plain reparse, and
// multi-line text comes out as a literal block. JSON output is a
// single line; constructs JSON cannot spell, tags, anchors, aliases
// and multi-document streams, fail with ErrEmitJSON rather than being
// dropped.
//
// Emit returns a string, EmitToWriter streams, and EmitToBuffer fills
// a caller-owned buffer: too-small buffers either fail with
// ErrBufferTooSmall or truncate while still reporting the full size,
// so a retry loop can size the buffer from the first attempt.
//
// Colored terminal output renders through a palette keyed by scalar
// kind and attribute; ColorsIfTerminal enables it only when the
// destination is a terminal.
package emit
