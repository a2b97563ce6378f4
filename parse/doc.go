// Package parse turns YAML text into a populated tree.Tree.
//
// The parser is a single pass over the source, driven line by line for
// block structure against an explicit stack of open containers, with
// flow collections ({...}, [...]) consumed in place. It recognizes
// block and flow collections, plain and quoted scalars, literal and
// folded block scalars, document markers, tags, anchors and aliases.
//
// Parse copies the source; ParseInPlace borrows the caller's buffer
// and decodes quoted scalars destructively inside it, so the tree's
// spans alias the buffer and the tree must not outlive it.
//
// All failures are user-input errors reported as *ParseErr values
// wrapping the ErrParse sentinels, with the offending position.
// Parsing stops at the first fatal error.
package parse
