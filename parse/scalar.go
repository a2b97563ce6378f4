package parse

import (
	"unicode/utf8"

	"github.com/yamltree/yamltree/span"
	"github.com/yamltree/yamltree/tree"
)

// scalarInfo is one scanned scalar together with its decorations:
// tag, anchor, alias, quoting.
type scalarInfo struct {
	s         tree.Scalar
	hasText   bool
	quoted    bool
	alias     bool
	hasTag    bool
	hasAnchor bool
}

func (si scalarInfo) valFlags() tree.Type {
	f := tree.NoType
	if si.hasTag {
		f |= tree.ValTag
	}
	if si.hasAnchor {
		f |= tree.ValAnchor
	}
	if si.alias {
		f |= tree.ValRef
	}
	if si.quoted {
		f |= tree.ValQuoted
	}
	return f
}

func (si scalarInfo) keyFlags() tree.Type {
	f := tree.NoType
	if si.hasTag {
		f |= tree.KeyTag
	}
	if si.hasAnchor {
		f |= tree.KeyAnchor
	}
	if si.alias {
		f |= tree.KeyRef
	}
	if si.quoted {
		f |= tree.KeyQuoted
	}
	return f
}

func (p *parser) applyVal(node tree.ID, si scalarInfo) error {
	return p.t.SetValScalar(node, si.s, tree.Val|si.valFlags())
}

func (p *parser) applyValDecorations(node tree.ID, si scalarInfo) error {
	if si.valFlags() == tree.NoType {
		return p.errf(ErrParse, "unexpected content")
	}
	return p.t.SetValScalar(node, si.s, si.valFlags())
}

func isAnchorChar(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', ',', '[', ']', '{', '}':
		return false
	}
	return true
}

// scanScalar scans one decorated scalar: leading !tag and &anchor
// properties in either order, then quoted or plain text, or a *alias.
// Plain text that is absent leaves hasText false; a quoted empty
// string is a real value.
func (p *parser) scanScalar(flow bool) (scalarInfo, error) {
	si := scalarInfo{}
props:
	for {
		p.skipSpaces()
		if p.atEOF() {
			return si, nil
		}
		switch p.src[p.pos] {
		case '!':
			start := p.pos
			p.pos++
			for !p.atEOF() && isAnchorChar(p.src[p.pos]) {
				p.pos++
			}
			si.s.Tag = span.Sub(p.src[start:p.pos])
			si.hasTag = true
		case '&':
			p.pos++
			start := p.pos
			for !p.atEOF() && isAnchorChar(p.src[p.pos]) {
				p.pos++
			}
			if p.pos == start {
				return si, p.errf(ErrParse, "empty anchor name")
			}
			si.s.Anchor = span.Sub(p.src[start:p.pos])
			si.hasAnchor = true
		case '*':
			mark := p.pos
			p.pos++
			start := p.pos
			for !p.atEOF() && isAnchorChar(p.src[p.pos]) {
				p.pos++
			}
			if p.pos == start {
				return si, p.errf(ErrParse, "empty alias name")
			}
			si.s.Anchor = span.Sub(p.src[start:p.pos])
			si.s.Text = span.Sub(p.src[mark:p.pos])
			si.alias = true
			return si, nil
		default:
			break props
		}
	}
	switch p.src[p.pos] {
	case '\'':
		sp, err := p.scanSingleQuoted()
		if err != nil {
			return si, err
		}
		si.s.Text = sp
		si.hasText = true
		si.quoted = true
		return si, nil
	case '"':
		sp, err := p.scanDoubleQuoted()
		if err != nil {
			return si, err
		}
		si.s.Text = sp
		si.hasText = true
		si.quoted = true
		return si, nil
	}
	sp := p.scanPlain(flow)
	if len(sp) > 0 {
		si.s.Text = sp
		si.hasText = true
	}
	return si, nil
}

// scanPlain scans an unquoted scalar up to its terminator: end of
// line, a ": " key separator, a " #" comment, or in flow style any of
// ",}]".
func (p *parser) scanPlain(flow bool) span.Sub {
	start := p.pos
	switch p.src[p.pos] {
	case '{', '[':
		return nil
	case '}', ']', ',':
		if flow {
			return nil
		}
	}
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '\n' {
			break
		}
		if c == '#' && p.pos > start && isBlank(p.src[p.pos-1]) {
			break
		}
		if c == ':' {
			next := p.pos + 1
			if next >= len(p.src) || isBlank(p.src[next]) || p.src[next] == '\n' {
				break
			}
			if flow && (p.src[next] == ',' || p.src[next] == '}' || p.src[next] == ']') {
				break
			}
		}
		if flow && (c == ',' || c == '}' || c == ']') {
			break
		}
		p.pos++
	}
	return span.Sub(p.src[start:p.pos]).TrimSpace()
}

// scanSingleQuoted decodes a single-quoted scalar in place: the ''
// escape shrinks, line breaks fold to a space (blank lines to
// newlines), so the write cursor never passes the read cursor.
func (p *parser) scanSingleQuoted() (span.Sub, error) {
	open := p.pos
	p.pos++
	start := p.pos
	w, r := p.pos, p.pos
	for {
		if r >= len(p.src) {
			return nil, p.errAt(ErrParseUnterminated, open, "single-quoted scalar")
		}
		c := p.src[r]
		if c == '\'' {
			if r+1 < len(p.src) && p.src[r+1] == '\'' {
				p.src[w] = '\''
				w++
				r += 2
				continue
			}
			r++
			break
		}
		if c == '\r' && r+1 < len(p.src) && p.src[r+1] == '\n' {
			w, r = p.foldQuotedBreak(w, r+1)
			continue
		}
		if c == '\n' {
			w, r = p.foldQuotedBreak(w, r)
			continue
		}
		p.src[w] = c
		w++
		r++
	}
	p.pos = r
	return span.Sub(p.src[start:w]), nil
}

// scanDoubleQuoted decodes a double-quoted scalar in place. Every
// escape decodes to at most as many bytes as it consumes, keeping the
// rewrite shrink-only.
func (p *parser) scanDoubleQuoted() (span.Sub, error) {
	open := p.pos
	p.pos++
	start := p.pos
	w, r := p.pos, p.pos
	for {
		if r >= len(p.src) {
			return nil, p.errAt(ErrParseUnterminated, open, "double-quoted scalar")
		}
		c := p.src[r]
		if c == '"' {
			r++
			break
		}
		if c == '\r' && r+1 < len(p.src) && p.src[r+1] == '\n' {
			w, r = p.foldQuotedBreak(w, r+1)
			continue
		}
		if c == '\n' {
			w, r = p.foldQuotedBreak(w, r)
			continue
		}
		if c != '\\' {
			p.src[w] = c
			w++
			r++
			continue
		}
		if r+1 >= len(p.src) {
			return nil, p.errAt(ErrParseUnterminated, open, "double-quoted scalar")
		}
		e := p.src[r+1]
		simple, ok := simpleEscape(e)
		if ok {
			p.src[w] = simple
			w++
			r += 2
			continue
		}
		switch e {
		case '\n':
			// escaped line break: continuation without separator
			r += 2
			for r < len(p.src) && isBlank(p.src[r]) {
				r++
			}
		case 'x', 'u', 'U':
			digits := map[byte]int{'x': 2, 'u': 4, 'U': 8}[e]
			if r+2+digits > len(p.src) {
				return nil, p.errAt(ErrParseEscape, r, "truncated \\%c escape", e)
			}
			v := 0
			for i := 0; i < digits; i++ {
				h := hexVal(p.src[r+2+i])
				if h < 0 {
					return nil, p.errAt(ErrParseEscape, r, "bad hex digit in \\%c escape", e)
				}
				v = v<<4 | h
			}
			if e == 'x' {
				p.src[w] = byte(v)
				w++
			} else {
				w += utf8.EncodeRune(p.src[w:], rune(v))
			}
			r += 2 + digits
		default:
			return nil, p.errAt(ErrParseEscape, r, "\\%c", e)
		}
	}
	p.pos = r
	return span.Sub(p.src[start:w]), nil
}

// foldQuotedBreak folds a line break inside a quoted scalar: one break
// becomes a space, n blank lines become n newlines.
func (p *parser) foldQuotedBreak(w, r int) (int, int) {
	r++ // the newline
	blanks := 0
	for r < len(p.src) {
		for r < len(p.src) && isBlank(p.src[r]) {
			r++
		}
		if r < len(p.src) && p.src[r] == '\n' {
			blanks++
			r++
			continue
		}
		break
	}
	if blanks == 0 {
		p.src[w] = ' '
		w++
		return w, r
	}
	for i := 0; i < blanks; i++ {
		p.src[w] = '\n'
		w++
	}
	return w, r
}

func simpleEscape(e byte) (byte, bool) {
	switch e {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case '0':
		return 0, true
	case 'a':
		return 7, true
	case 'b':
		return 8, true
	case 'f':
		return 12, true
	case 'v':
		return 11, true
	case 'e':
		return 0x1b, true
	case '\\', '"', '\'', '/':
		return e, true
	case ' ':
		return ' ', true
	case 'N':
		return 0, false // multi-byte escapes are not in the supported subset
	}
	return 0, false
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

// --- block scalars ---

func (p *parser) blockScalarAhead() bool {
	c := p.src[p.pos]
	if c != '|' && c != '>' {
		return false
	}
	i := p.pos + 1
	for i < len(p.src) && (p.src[i] == '+' || p.src[i] == '-' || (p.src[i] >= '1' && p.src[i] <= '9')) {
		i++
	}
	for i < len(p.src) && isBlank(p.src[i]) {
		i++
	}
	return i >= len(p.src) || p.src[i] == '\n' || p.src[i] == '#'
}

const (
	chompClip = iota
	chompStrip
	chompKeep
)

// parseBlockScalarInto scans a literal (|) or folded (>) block scalar.
// The decoded text is synthesized into the arena: indentation
// stripping and line joining cannot alias the source. deco carries any
// tag/anchor properties scanned before the indicator.
func (p *parser) parseBlockScalarInto(node tree.ID, deco scalarInfo) error {
	style := p.src[p.pos]
	p.pos++
	chomp := chompClip
	explicit := 0
	for !p.atEOF() {
		c := p.src[p.pos]
		if c == '+' {
			chomp = chompKeep
		} else if c == '-' {
			chomp = chompStrip
		} else if c >= '1' && c <= '9' {
			explicit = int(c - '0')
		} else {
			break
		}
		p.pos++
	}
	if err := p.endOfLine(); err != nil {
		return err
	}
	minIndent := p.curIndent
	baseIndent := -1
	if explicit > 0 {
		baseIndent = minIndent + explicit
	}
	var lines [][]byte
	for !p.atEOF() {
		lineStart := p.pos
		ind := 0
		for p.pos < len(p.src) && p.src[p.pos] == ' ' {
			p.pos++
			ind++
		}
		if p.atEOF() || p.atBreak() {
			lines = append(lines, nil)
			if !p.atEOF() {
				if p.src[p.pos] == '\r' {
					p.pos++
				}
				p.pos++
			}
			continue
		}
		if ind <= minIndent || (baseIndent >= 0 && ind < baseIndent) {
			p.pos = lineStart
			break
		}
		if baseIndent < 0 {
			baseIndent = ind
		}
		cStart := lineStart + baseIndent
		for p.pos < len(p.src) && p.src[p.pos] != '\n' {
			p.pos++
		}
		ln := p.src[cStart:p.pos]
		if n := len(ln); n > 0 && ln[n-1] == '\r' {
			ln = ln[:n-1]
		}
		lines = append(lines, ln)
		if p.pos < len(p.src) {
			p.pos++
		}
	}
	trailing := 0
	for len(lines) > 0 && len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
		trailing++
	}
	out := buildBlockScalar(style, lines)
	if len(out) > 0 {
		switch chomp {
		case chompClip:
			out = append(out, '\n')
		case chompKeep:
			out = append(out, '\n')
			for i := 0; i < trailing; i++ {
				out = append(out, '\n')
			}
		}
	}
	sp := p.t.AddToArena(out)
	styleFlag := tree.ValLiteral
	if style == '>' {
		styleFlag = tree.ValFolded
	}
	sc := tree.Scalar{Tag: deco.s.Tag, Text: sp, Anchor: deco.s.Anchor}
	return p.t.SetValScalar(node, sc, tree.Val|styleFlag|deco.valFlags())
}

func buildBlockScalar(style byte, lines [][]byte) []byte {
	var out []byte
	if style == '|' {
		for i, ln := range lines {
			if i > 0 {
				out = append(out, '\n')
			}
			out = append(out, ln...)
		}
		return out
	}
	prevContent, prevMore := false, false
	for _, ln := range lines {
		if len(ln) == 0 {
			out = append(out, '\n')
			prevContent = false
			continue
		}
		more := ln[0] == ' ' || ln[0] == '\t'
		if prevContent {
			if prevMore || more {
				out = append(out, '\n')
			} else {
				out = append(out, ' ')
			}
		}
		out = append(out, ln...)
		prevContent, prevMore = true, more
	}
	return out
}
