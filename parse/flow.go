package parse

import "github.com/yamltree/yamltree/tree"

// skipFlowWS skips spaces, line breaks and comments. Newlines carry no
// structure inside flow collections.
func (p *parser) skipFlowWS() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if isBlank(c) || c == '\n' {
			p.pos++
			continue
		}
		if c == '#' {
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
			continue
		}
		return
	}
}

// parseFlow consumes one flow collection, the opening bracket at the
// current position, into node. Nested collections recurse; the nesting
// depth tracks itself through the call stack.
func (p *parser) parseFlow(node tree.ID) error {
	open := p.src[p.pos]
	openOff := p.pos
	isMap := open == '{'
	p.pos++
	var err error
	if isMap {
		err = p.ensureMap(node)
	} else {
		err = p.ensureSeq(node)
	}
	if err != nil {
		return err
	}
	for {
		p.skipFlowWS()
		if p.atEOF() {
			return p.errAt(ErrParseUnterminated, openOff, "unclosed %q", string(open))
		}
		switch c := p.src[p.pos]; c {
		case '}', ']':
			if (c == '}') != isMap {
				return p.errf(ErrParse, "mismatched %q", string(c))
			}
			p.pos++
			return nil
		case ',':
			p.pos++
			continue
		}
		if isMap {
			if err := p.parseFlowMapEntry(node); err != nil {
				return err
			}
		} else {
			if err := p.parseFlowSeqEntry(node); err != nil {
				return err
			}
		}
	}
}

func (p *parser) parseFlowMapEntry(node tree.ID) error {
	ksi, err := p.scanScalar(true)
	if err != nil {
		return err
	}
	if !ksi.hasText && !ksi.alias {
		return p.errf(ErrParse, "expected key in flow mapping")
	}
	child, err := p.t.AppendChild(node)
	if err != nil {
		return p.errf(ErrParse, "cannot append flow map entry")
	}
	if err := p.t.SetKeyScalar(child, ksi.s, tree.Key|ksi.keyFlags()); err != nil {
		return err
	}
	p.skipFlowWS()
	if p.atEOF() || p.src[p.pos] != ':' {
		// bare key, null value: {a, b}
		return nil
	}
	p.pos++
	return p.parseFlowValueInto(child)
}

func (p *parser) parseFlowSeqEntry(node tree.ID) error {
	child, err := p.t.AppendChild(node)
	if err != nil {
		return p.errf(ErrParse, "cannot append flow sequence entry")
	}
	if err := p.parseFlowValueInto(child); err != nil {
		return err
	}
	// a "key: value" pair inside a flow sequence is a one-entry map
	p.skipFlowWS()
	if !p.atEOF() && p.src[p.pos] == ':' {
		p.pos++
		k, _ := p.t.NodeType(child)
		if k.IsContainer() {
			return p.errf(ErrParse, "unexpected ':' in flow sequence")
		}
		// move the scanned scalar to the key side of a nested entry
		ks, _ := p.t.ValScalar(child)
		if err := p.t.RemFlags(child, tree.Val|tree.ValQuoted|tree.ValAnchor|tree.ValTag|tree.ValRef); err != nil {
			return err
		}
		if err := p.t.SetValScalar(child, tree.Scalar{}, tree.NoType); err != nil {
			return err
		}
		if err := p.t.AddFlags(child, tree.Map); err != nil {
			return err
		}
		grand, err := p.t.AppendChild(child)
		if err != nil {
			return err
		}
		kf := tree.Key
		if k&tree.ValQuoted != 0 {
			kf |= tree.KeyQuoted
		}
		if err := p.t.SetKeyScalar(grand, ks, kf); err != nil {
			return err
		}
		p.skipFlowWS()
		if !p.atEOF() && p.src[p.pos] != ',' && p.src[p.pos] != ']' {
			return p.parseFlowValueInto(grand)
		}
	}
	return nil
}

// parseFlowValueInto parses one value in flow context: a nested
// collection, a scalar, or nothing (null) before ','/']'/'}'.
func (p *parser) parseFlowValueInto(node tree.ID) error {
	p.skipFlowWS()
	if p.atEOF() {
		return p.errf(ErrParseUnterminated, "flow collection")
	}
	switch p.src[p.pos] {
	case '{', '[':
		return p.parseFlow(node)
	case ',', '}', ']':
		// null value; finalized at end of parse
		return nil
	}
	si, err := p.scanScalar(true)
	if err != nil {
		return err
	}
	if !si.hasText && !si.alias {
		p.skipFlowWS()
		if !p.atEOF() && (p.src[p.pos] == '{' || p.src[p.pos] == '[') {
			if err := p.applyValDecorations(node, si); err != nil {
				return err
			}
			return p.parseFlow(node)
		}
		if si.valFlags() != tree.NoType {
			return p.applyValDecorations(node, si)
		}
		return p.errf(ErrParse, "expected value in flow collection")
	}
	return p.applyVal(node, si)
}
