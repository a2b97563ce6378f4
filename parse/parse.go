package parse

import (
	"fmt"
	"unicode/utf8"

	"github.com/yamltree/yamltree/debug"
	"github.com/yamltree/yamltree/tree"
)

// Parse copies d into a tree-owned buffer and parses from the copy,
// leaving the caller's buffer untouched.
func Parse(d []byte, opts ...Option) (*tree.Tree, error) {
	pOpts := &parseOpts{}
	for _, f := range opts {
		f(pOpts)
	}
	t := tree.New()
	applyReserves(t, pOpts, len(d))
	buf := make([]byte, len(d))
	copy(buf, d)
	t.SetSource(buf)
	return t, parseInto(t, buf, pOpts)
}

// ParseInPlace parses directly from the caller's buffer, borrowing from
// it for the tree's lifetime and decoding quoted scalars destructively
// within it. The rewrite is shrink-only and left to right, so decoded
// text never overruns content not yet consumed. The tree must not
// outlive the buffer.
func ParseInPlace(d []byte, opts ...Option) (*tree.Tree, error) {
	pOpts := &parseOpts{}
	for _, f := range opts {
		f(pOpts)
	}
	t := tree.New()
	applyReserves(t, pOpts, len(d))
	t.SetSource(d)
	return t, parseInto(t, d, pOpts)
}

// ParseIntoTree reparses into an existing tree instance, reusing its
// node-store and arena capacity. The tree is cleared first.
func ParseIntoTree(t *tree.Tree, d []byte, opts ...Option) error {
	pOpts := &parseOpts{}
	for _, f := range opts {
		f(pOpts)
	}
	t.Clear()
	t.ClearArena()
	applyReserves(t, pOpts, len(d))
	t.SetSource(d)
	return parseInto(t, d, pOpts)
}

func applyReserves(t *tree.Tree, o *parseOpts, srcLen int) {
	if o.reserveNodes > 0 {
		t.Reserve(o.reserveNodes)
	}
	if o.reserveArena > 0 {
		t.ReserveArena(o.reserveArena)
	}
	_ = srcLen
}

func parseInto(t *tree.Tree, d []byte, opts *parseOpts) error {
	if !utf8.Valid(d) {
		return &ParseErr{Err: ErrParseUTF8, File: opts.filename, Pos: posAt(d, badUTF8At(d))}
	}
	p := &parser{t: t, src: d, opts: opts}
	if err := p.run(); err != nil {
		return err
	}
	if debug.Parse() {
		debug.Logf("parsed %s: %d nodes, %d arena bytes\n", opts.filename, t.Len(), t.ArenaLen())
	}
	return nil
}

func badUTF8At(d []byte) int {
	for i := 0; i < len(d); {
		r, size := utf8.DecodeRune(d[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return len(d)
}

// level is one open container on the parser's stack: the node being
// built and the column its block content lives at.
type level struct {
	node   tree.ID
	indent int
}

// parser is the single-pass state machine. Block structure is driven
// line by line against the level stack; flow collections are consumed
// within the line loop by parseFlow, which tracks its own nesting.
type parser struct {
	t    *tree.Tree
	src  []byte
	pos  int
	opts *parseOpts

	stack []level

	// curIndent is the indentation of the physical line being parsed,
	// which bounds block-scalar content indentation.
	curIndent int

	inStream bool
}

func (p *parser) errf(base error, format string, args ...any) error {
	return p.errAt(base, p.pos, format, args...)
}

func (p *parser) errAt(base error, off int, format string, args ...any) error {
	err := base
	if format != "" {
		err = fmt.Errorf("%w: %s", base, fmt.Sprintf(format, args...))
	}
	return &ParseErr{Err: err, File: p.opts.filename, Pos: posAt(p.src, off)}
}

func (p *parser) top() *level { return &p.stack[len(p.stack)-1] }

func (p *parser) push(node tree.ID, indent int) {
	p.stack = append(p.stack, level{node: node, indent: indent})
}

func (p *parser) atEOF() bool { return p.pos >= len(p.src) }

func (p *parser) atEOL() bool {
	i := p.pos
	for i < len(p.src) && (p.src[i] == ' ' || p.src[i] == '\t' || p.src[i] == '\r') {
		i++
	}
	if i < len(p.src) && p.src[i] == '#' && (i == p.pos || isBlank(p.src[i-1])) {
		return true
	}
	return i >= len(p.src) || p.src[i] == '\n'
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' || c == '\r' }

// atBreak reports whether the current position starts a line break,
// either a bare newline or a CRLF pair.
func (p *parser) atBreak() bool {
	if p.pos >= len(p.src) {
		return false
	}
	c := p.src[p.pos]
	return c == '\n' || (c == '\r' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '\n')
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.src) && isBlank(p.src[p.pos]) {
		p.pos++
	}
}

// endOfLine consumes trailing spaces, an optional comment and the
// newline. Anything else on the line is an error.
func (p *parser) endOfLine() error {
	p.skipSpaces()
	if p.pos < len(p.src) && p.src[p.pos] == '#' {
		for p.pos < len(p.src) && p.src[p.pos] != '\n' {
			p.pos++
		}
	}
	if p.pos >= len(p.src) {
		return nil
	}
	if p.src[p.pos] != '\n' {
		return p.errf(ErrParse, "unexpected content %q", p.src[p.pos])
	}
	p.pos++
	return nil
}

func (p *parser) run() error {
	root := p.t.Root()
	p.stack = []level{{node: root, indent: 0}}
	for !p.atEOF() {
		if err := p.parseLine(); err != nil {
			return err
		}
	}
	p.finalizePending(root)
	return nil
}

// parseLine handles one physical line of block-mode input: indentation
// alignment against the level stack, document markers, then content.
func (p *parser) parseLine() error {
	lineStart := p.pos
	indent := 0
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
		indent++
	}
	if p.pos < len(p.src) && p.src[p.pos] == '\t' {
		// a tab may trail content but never forms structure
		return p.errf(ErrParseIndent, "tab used for indentation")
	}
	if p.atEOL() {
		return p.endOfLine()
	}
	p.curIndent = indent
	if indent == 0 && p.atMarker("---") {
		p.pos += 3
		if err := p.startDoc(); err != nil {
			return err
		}
		p.skipSpaces()
		if p.atEOL() {
			return p.endOfLine()
		}
		p.curIndent = p.pos - lineStart
		return p.parseContent()
	}
	if indent == 0 && p.atMarker("...") {
		p.pos += 3
		p.endDoc()
		return p.endOfLine()
	}
	if err := p.alignLevel(indent); err != nil {
		return err
	}
	return p.parseContent()
}

func (p *parser) atMarker(m string) bool {
	if p.pos+len(m) > len(p.src) {
		return false
	}
	if string(p.src[p.pos:p.pos+len(m)]) != m {
		return false
	}
	rest := p.pos + len(m)
	return rest >= len(p.src) || isBlank(p.src[rest]) || p.src[rest] == '\n'
}

// alignLevel positions the stack for a line at the given indentation:
// deeper opens a level on the pending last child (or continues a
// scalar), shallower pops to an exactly matching open level.
func (p *parser) alignLevel(indent int) error {
	top := p.top()
	if indent > top.indent {
		lc, lcErr := p.t.LastChild(top.node)
		if lcErr == nil {
			lk, _ := p.t.NodeType(lc)
			if lk.IsContainer() {
				return p.errf(ErrParseIndent, "indent matches no open level")
			}
			p.push(lc, indent)
			return nil
		}
		k, _ := p.t.NodeType(top.node)
		if k.HasVal() {
			p.push(top.node, indent)
			return nil
		}
		// no content yet under this level: learn its indentation
		top.indent = indent
		return nil
	}
	for len(p.stack) > 1 && p.top().indent > indent {
		p.stack = p.stack[:len(p.stack)-1]
	}
	top = p.top()
	if top.indent != indent {
		return p.errf(ErrParseIndent, "de-indent matches no open level")
	}
	// a sequence may sit at the same indentation as its parent map key
	if p.src[p.pos] == '-' && p.dashAhead() {
		k, _ := p.t.NodeType(top.node)
		if k.IsMap() {
			lc, err := p.t.LastChild(top.node)
			if err != nil {
				return p.errf(ErrParse, "sequence entry in mapping context")
			}
			lk, _ := p.t.NodeType(lc)
			if lk.IsContainer() || lk.HasVal() {
				return p.errf(ErrParse, "sequence entry in mapping context")
			}
			p.push(lc, indent)
		}
	}
	return nil
}

func (p *parser) dashAhead() bool {
	return p.src[p.pos] == '-' &&
		(p.pos+1 >= len(p.src) || isBlank(p.src[p.pos+1]) || p.src[p.pos+1] == '\n')
}

// parseContent parses the content of one line at the current level,
// first unwinding any sequence dashes, which each open a level.
func (p *parser) parseContent() error {
	for p.dashAhead() {
		top := p.top()
		if err := p.ensureSeq(top.node); err != nil {
			return err
		}
		p.pos++
		p.skipSpaces()
		entry, err := p.t.AppendChild(top.node)
		if err != nil {
			return p.errf(ErrParse, "cannot append sequence entry")
		}
		if p.atEOL() {
			// entry body on following, deeper lines
			return p.endOfLine()
		}
		p.push(entry, p.col())
	}
	return p.parseNodeContent()
}

// col is the column (0-based) of the current position within its line.
func (p *parser) col() int {
	i := p.pos
	for i > 0 && p.src[i-1] != '\n' {
		i--
	}
	return p.pos - i
}

// parseNodeContent parses a line's content into the node at the top of
// the stack: a flow collection, a map entry, or scalar content for the
// node itself.
func (p *parser) parseNodeContent() error {
	top := p.top()
	c := p.src[p.pos]
	if c == '{' || c == '[' {
		if err := p.parseFlow(top.node); err != nil {
			return err
		}
		return p.endOfLine()
	}
	if p.lineHasKey() {
		if err := p.ensureMap(top.node); err != nil {
			return err
		}
		ksi, err := p.scanScalar(false)
		if err != nil {
			return err
		}
		p.skipSpaces()
		if p.atEOF() || p.src[p.pos] != ':' {
			return p.errf(ErrParse, "expected ':' after key")
		}
		p.pos++
		child, err := p.t.AppendChild(top.node)
		if err != nil {
			return p.errf(ErrParse, "cannot append map entry")
		}
		if err := p.t.SetKeyScalar(child, ksi.s, tree.Key|ksi.keyFlags()); err != nil {
			return err
		}
		p.skipSpaces()
		if p.atEOL() {
			// value on following, deeper lines, or null
			return p.endOfLine()
		}
		return p.parseValueInto(child)
	}
	// scalar content for the node itself
	return p.parseScalarContent(top.node)
}

// parseValueInto parses the value part of a map entry or document, on
// the same line as its key.
func (p *parser) parseValueInto(node tree.ID) error {
	c := p.src[p.pos]
	if c == '{' || c == '[' {
		if err := p.parseFlow(node); err != nil {
			return err
		}
		return p.endOfLine()
	}
	if p.blockScalarAhead() {
		return p.parseBlockScalarInto(node, scalarInfo{})
	}
	si, err := p.scanScalar(false)
	if err != nil {
		return err
	}
	if !si.hasText && !si.alias {
		// decorations only; the value may still be a flow collection,
		// a block scalar, or nested block content
		p.skipSpaces()
		if !p.atEOL() {
			switch p.src[p.pos] {
			case '{', '[':
				if err := p.applyValDecorations(node, si); err != nil {
					return err
				}
				if err := p.parseFlow(node); err != nil {
					return err
				}
				return p.endOfLine()
			}
			if p.blockScalarAhead() {
				return p.parseBlockScalarInto(node, si)
			}
			return p.errf(ErrParse, "unexpected content after node properties")
		}
		if err := p.applyValDecorations(node, si); err != nil {
			return err
		}
		return p.endOfLine()
	}
	if err := p.applyVal(node, si); err != nil {
		return err
	}
	return p.endOfLine()
}

// parseScalarContent handles a line that is plain scalar content for
// the node itself: a scalar document, a pending value on a deeper
// line, or the continuation of a multi-line plain scalar.
func (p *parser) parseScalarContent(node tree.ID) error {
	if p.blockScalarAhead() {
		return p.parseBlockScalarInto(node, scalarInfo{})
	}
	si, err := p.scanScalar(false)
	if err != nil {
		return err
	}
	k, _ := p.t.NodeType(node)
	if k.HasVal() {
		if v, err := p.t.Val(node); err == nil && !v.Empty() {
			if !si.hasText {
				return p.errf(ErrParse, "unexpected content in scalar continuation")
			}
			folded := append(append([]byte{}, v...), ' ')
			folded = append(folded, si.s.Text...)
			sp := p.t.AddToArena(folded)
			return p.t.SetValScalar(node, tree.Scalar{Text: sp}, tree.Val)
		}
	}
	if !si.hasText && !si.alias {
		if err := p.applyValDecorations(node, si); err != nil {
			return err
		}
		return p.endOfLine()
	}
	if err := p.applyVal(node, si); err != nil {
		return err
	}
	return p.endOfLine()
}

// lineHasKey reports whether the line at the current position reads as
// "scalar :" with the colon followed by a space or the end of line.
// The probe neither consumes input nor decodes quoted text; in-place
// decoding may only happen once, on the committed scan.
func (p *parser) lineHasKey() bool {
	save := p.pos
	defer func() { p.pos = save }()
	for {
		p.skipSpaces()
		if p.atEOF() {
			return false
		}
		c := p.src[p.pos]
		if c == '!' || c == '&' {
			p.pos++
			for !p.atEOF() && isAnchorChar(p.src[p.pos]) {
				p.pos++
			}
			continue
		}
		break
	}
	switch c := p.src[p.pos]; c {
	case '*':
		p.pos++
		start := p.pos
		for !p.atEOF() && isAnchorChar(p.src[p.pos]) {
			p.pos++
		}
		if p.pos == start {
			return false
		}
	case '\'', '"':
		if !p.skipQuoted(c) {
			return false
		}
	default:
		if len(p.scanPlain(false)) == 0 {
			return false
		}
	}
	p.skipSpaces()
	if p.atEOF() || p.src[p.pos] != ':' {
		return false
	}
	after := p.pos + 1
	return after >= len(p.src) || isBlank(p.src[after]) || p.src[after] == '\n'
}

// skipQuoted advances past a quoted scalar without decoding it.
func (p *parser) skipQuoted(q byte) bool {
	p.pos++
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == q {
			if q == '\'' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '\'' {
				p.pos += 2
				continue
			}
			p.pos++
			return true
		}
		if q == '"' && c == '\\' {
			p.pos += 2
			continue
		}
		p.pos++
	}
	return false
}

func (p *parser) ensureMap(id tree.ID) error {
	k, err := p.t.NodeType(id)
	if err != nil {
		return err
	}
	if k.IsMap() {
		return nil
	}
	if k.IsSeq() || k.IsStream() {
		return p.errf(ErrParse, "mapping entry in sequence context")
	}
	if k.HasVal() {
		return p.errf(ErrParse, "mapping entry after scalar content")
	}
	return p.t.AddFlags(id, tree.Map)
}

func (p *parser) ensureSeq(id tree.ID) error {
	k, err := p.t.NodeType(id)
	if err != nil {
		return err
	}
	if k.IsSeq() {
		return nil
	}
	if k.IsMap() {
		return p.errf(ErrParse, "sequence entry in mapping context")
	}
	if k.HasVal() {
		return p.errf(ErrParse, "sequence entry after scalar content")
	}
	return p.t.AddFlags(id, tree.Seq)
}

// --- documents ---

// startDoc begins a new document at a "---" marker, converting the
// tree to a stream on the first marker.
func (p *parser) startDoc() error {
	t := p.t
	if !p.inStream {
		p.inStream = true
		root := t.Root()
		k, _ := t.NodeType(root)
		empty := k == tree.NoType
		if empty {
			if n, err := t.NumChildren(root); err != nil || n > 0 {
				empty = false
			}
		}
		if empty {
			// marker before any content: root becomes the stream
			if err := t.ToStream(root, tree.NoType); err != nil {
				return err
			}
		} else {
			if _, err := t.WrapRootIntoStream(); err != nil {
				return err
			}
		}
	}
	doc, err := p.t.AppendChild(p.t.Root())
	if err != nil {
		return p.errf(ErrParse, "cannot start document")
	}
	if err := p.t.AddFlags(doc, tree.Doc); err != nil {
		return err
	}
	p.stack = p.stack[:0]
	p.push(doc, 0)
	return nil
}

// endDoc closes the current document at a "..." marker.
func (p *parser) endDoc() {
	if len(p.stack) > 1 {
		p.stack = p.stack[:1]
	}
}

// finalizePending upgrades nodes that never received content to null
// scalars: a key with no value, a sequence entry with no body.
func (p *parser) finalizePending(id tree.ID) {
	k, err := p.t.NodeType(id)
	if err != nil {
		return
	}
	if !k.IsContainer() && !k.HasVal() {
		p.t.AddFlags(id, tree.Val)
	}
	c, err := p.t.FirstChild(id)
	for err == nil {
		p.finalizePending(c)
		c, err = p.t.NextSibling(c)
	}
}
