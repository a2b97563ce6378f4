package emit

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yamltree/yamltree/tree"
)

// Emit serializes t and returns the text.
func Emit(t *tree.Tree, opts ...EmitOption) (string, error) {
	var buf bytes.Buffer
	if _, err := EmitToWriter(t, &buf, opts...); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// EmitToWriter serializes t into w and returns the number of bytes
// written.
func EmitToWriter(t *tree.Tree, w io.Writer, opts ...EmitOption) (int, error) {
	es := newEmitState(opts)
	e := &emitter{t: t, w: w, es: es}
	return e.n, e.run()
}

// EmitToSink serializes t into a write+seek sink and returns the sink
// position after the write.
func EmitToSink(t *tree.Tree, sink io.WriteSeeker, opts ...EmitOption) (int64, error) {
	if _, err := EmitToWriter(t, sink, opts...); err != nil {
		return 0, err
	}
	return sink.Seek(0, io.SeekCurrent)
}

// EmitToBuffer serializes t into buf. When buf cannot hold the output
// and errorOnExcess is set it fails with ErrBufferTooSmall; otherwise
// the output is truncated at len(buf) and the returned count is the
// size the full serialization needs, so the caller can grow the buffer
// and retry.
func EmitToBuffer(t *tree.Tree, buf []byte, errorOnExcess bool, opts ...EmitOption) (int, error) {
	bw := &boundedWriter{buf: buf}
	n, err := EmitToWriter(t, bw, opts...)
	if err != nil {
		return n, err
	}
	if bw.short && errorOnExcess {
		return n, fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, n, len(buf))
	}
	return n, nil
}

// boundedWriter fills a fixed buffer and keeps counting past its end.
type boundedWriter struct {
	buf   []byte
	n     int
	short bool
}

func (b *boundedWriter) Write(p []byte) (int, error) {
	if b.n < len(b.buf) {
		copy(b.buf[b.n:], p)
	}
	if b.n+len(p) > len(b.buf) {
		b.short = true
	}
	b.n += len(p)
	return len(p), nil
}

func newEmitState(opts []EmitOption) *emitState {
	es := &emitState{
		indent: 2,
		start:  tree.None,
	}
	for _, opt := range opts {
		opt(es)
	}
	if es.indent < 1 {
		es.indent = 1
	}
	return es
}

type emitter struct {
	t  *tree.Tree
	w  io.Writer
	es *emitState
	n  int
}

func (e *emitter) str(s string) error {
	n, err := io.WriteString(e.w, s)
	e.n += n
	return err
}

func (e *emitter) colored(k Kind, a ColorAttr, s string) error {
	if e.es.colors != nil {
		s = e.es.colors.Color(k, a, s)
	}
	return e.str(s)
}

func (e *emitter) run() error {
	start := e.es.start
	if start == tree.None {
		start = e.t.Root()
	}
	if e.es.format.IsJSON() {
		if err := e.json(start); err != nil {
			return err
		}
		return e.str("\n")
	}
	return e.yaml(start)
}

// --- YAML ---

func (e *emitter) yaml(id tree.ID) error {
	k, err := e.t.NodeType(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmit, err)
	}
	if k.IsStream() {
		c, err := e.t.FirstChild(id)
		for err == nil {
			if err := e.colored(ContainerKind, MarkColor, "---"); err != nil {
				return err
			}
			if err := e.yamlDocBody(c); err != nil {
				return err
			}
			c, err = e.t.NextSibling(c)
		}
		return nil
	}
	if k.IsMap() || k.IsSeq() {
		if e.numChildren(id) == 0 {
			if k.IsSeq() {
				return e.str("[]\n")
			}
			return e.str("{}\n")
		}
		return e.yamlChildren(id, 0)
	}
	// bare scalar root
	if !k.HasVal() {
		return e.str("\n")
	}
	if k.HasValAnchor() {
		a, err := e.t.ValAnchor(id)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEmit, err)
		}
		if err := e.colored(StringKind, AnchorColor, "&"+a.String()); err != nil {
			return err
		}
		if err := e.str(" "); err != nil {
			return err
		}
	}
	if k.HasValTag() {
		tg, err := e.t.ValTag(id)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEmit, err)
		}
		if err := e.colored(StringKind, TagColor, tg.String()); err != nil {
			return err
		}
		if err := e.str(" "); err != nil {
			return err
		}
	}
	v, err := e.t.Val(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmit, err)
	}
	if k.IsValRef() {
		if err := e.colored(StringKind, RefColor, v.String()); err != nil {
			return err
		}
		return e.str("\n")
	}
	if v.Empty() && k&tree.ValQuoted == 0 {
		return e.str("\n")
	}
	if err := e.scalarText(v.String(), k&tree.ValQuoted != 0, ValueColor); err != nil {
		return err
	}
	return e.str("\n")
}

// yamlDocBody renders one document after its "---" marker.
func (e *emitter) yamlDocBody(id tree.ID) error {
	k, err := e.t.NodeType(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmit, err)
	}
	return e.yamlValuePart(id, k, -1)
}

func (e *emitter) yamlChildren(parent tree.ID, depth int) error {
	pk, err := e.t.NodeType(parent)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmit, err)
	}
	c, err := e.t.FirstChild(parent)
	for err == nil {
		if err := e.yamlEntry(c, pk, depth); err != nil {
			return err
		}
		c, err = e.t.NextSibling(c)
	}
	return nil
}

func (e *emitter) yamlEntry(id tree.ID, parentKind tree.Type, depth int) error {
	k, err := e.t.NodeType(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmit, err)
	}
	if err := e.str(strings.Repeat(" ", depth*e.es.indent)); err != nil {
		return err
	}
	if parentKind.IsMap() {
		if err := e.yamlKey(id, k); err != nil {
			return err
		}
		if err := e.colored(ContainerKind, SepColor, ":"); err != nil {
			return err
		}
	} else {
		if err := e.colored(ContainerKind, SepColor, "-"); err != nil {
			return err
		}
	}
	return e.yamlValuePart(id, k, depth)
}

// yamlKey renders the key side of a map entry: anchor and tag
// properties, then the key text.
func (e *emitter) yamlKey(id tree.ID, k tree.Type) error {
	if k.HasKeyAnchor() {
		a, err := e.t.KeyAnchor(id)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEmit, err)
		}
		if err := e.colored(StringKind, AnchorColor, "&"+a.String()); err != nil {
			return err
		}
		if err := e.str(" "); err != nil {
			return err
		}
	}
	if k.HasKeyTag() {
		tg, err := e.t.KeyTag(id)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEmit, err)
		}
		if err := e.colored(StringKind, TagColor, tg.String()); err != nil {
			return err
		}
		if err := e.str(" "); err != nil {
			return err
		}
	}
	key, err := e.t.Key(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmit, err)
	}
	if k.IsKeyRef() {
		return e.colored(StringKind, RefColor, key.String())
	}
	return e.scalarText(key.String(), k&tree.KeyQuoted != 0, KeyColor)
}

// yamlValuePart renders what follows a "key:" or "-" marker, or a
// "---" document marker: value properties, then scalar text on the
// same line or children on the following lines. depth is the entry's
// level; -1 means a document whose children start at column zero.
func (e *emitter) yamlValuePart(id tree.ID, k tree.Type, depth int) error {
	if k.HasValAnchor() {
		a, err := e.t.ValAnchor(id)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEmit, err)
		}
		if err := e.str(" "); err != nil {
			return err
		}
		if err := e.colored(StringKind, AnchorColor, "&"+a.String()); err != nil {
			return err
		}
	}
	if k.HasValTag() {
		tg, err := e.t.ValTag(id)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEmit, err)
		}
		if err := e.str(" "); err != nil {
			return err
		}
		if err := e.colored(StringKind, TagColor, tg.String()); err != nil {
			return err
		}
	}
	// a document node can carry scalar content directly; only treat it
	// as a container when it really holds structure
	if k.IsMap() || k.IsSeq() {
		if e.numChildren(id) == 0 {
			if k.IsSeq() {
				return e.str(" []\n")
			}
			return e.str(" {}\n")
		}
		if err := e.str("\n"); err != nil {
			return err
		}
		return e.yamlChildren(id, depth+1)
	}
	if !k.HasVal() {
		// null: nothing after the marker
		return e.str("\n")
	}
	if k.IsValRef() {
		v, err := e.t.Val(id)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEmit, err)
		}
		if err := e.str(" "); err != nil {
			return err
		}
		if err := e.colored(StringKind, RefColor, v.String()); err != nil {
			return err
		}
		return e.str("\n")
	}
	v, err := e.t.Val(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmit, err)
	}
	text := v.String()
	if text == "" && k&tree.ValQuoted == 0 {
		// plain empty value is a null; only an explicitly quoted empty
		// string renders as ""
		return e.str("\n")
	}
	if k&(tree.ValLiteral|tree.ValFolded) != 0 && strings.Contains(text, "\n") {
		return e.blockScalar(text, depth)
	}
	if err := e.str(" "); err != nil {
		return err
	}
	if err := e.scalarText(text, k&tree.ValQuoted != 0, ValueColor); err != nil {
		return err
	}
	return e.str("\n")
}

// scalarText renders one scalar, quoting when the text would not
// survive a plain reparse.
func (e *emitter) scalarText(text string, quoted bool, attr ColorAttr) error {
	if quoted || needsQuote(text) {
		return e.colored(StringKind, attr, strconv.Quote(text))
	}
	return e.colored(classify(text), attr, text)
}

// blockScalar renders multi-line text as a literal block. Folded
// source is re-emitted literal too: the stored text already has its
// folds applied and a literal block reproduces it byte for byte.
func (e *emitter) blockScalar(text string, depth int) error {
	header := "|"
	switch {
	case !strings.HasSuffix(text, "\n"):
		header += "-"
	case strings.HasSuffix(text, "\n\n"):
		header += "+"
	}
	body := strings.TrimSuffix(text, "\n")
	lines := strings.Split(body, "\n")
	// leading spaces on the first content line need the explicit
	// indentation indicator
	if len(lines) > 0 && strings.HasPrefix(lines[0], " ") && e.es.indent <= 9 {
		header += strconv.Itoa(e.es.indent)
	}
	if err := e.str(" "); err != nil {
		return err
	}
	if err := e.colored(StringKind, SepColor, header); err != nil {
		return err
	}
	if err := e.str("\n"); err != nil {
		return err
	}
	pad := strings.Repeat(" ", (depth+1)*e.es.indent)
	for _, ln := range lines {
		if ln == "" {
			if err := e.str("\n"); err != nil {
				return err
			}
			continue
		}
		if err := e.str(pad); err != nil {
			return err
		}
		if err := e.colored(StringKind, LiteralColor, ln); err != nil {
			return err
		}
		if err := e.str("\n"); err != nil {
			return err
		}
	}
	return nil
}

// needsQuote reports whether plain text would reparse to something
// else: empty or padded text, indicator-leading text, an embedded
// key separator or comment, or control characters.
func needsQuote(s string) bool {
	if s == "" {
		return true
	}
	if s[0] == ' ' || s[len(s)-1] == ' ' {
		return true
	}
	switch s[0] {
	case '!', '&', '*', '[', ']', '{', '}', ',', '#', '|', '>', '\'', '"', '%', '@', '`':
		return true
	case '-', '?', ':':
		if len(s) == 1 || s[1] == ' ' {
			return true
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 {
			return true
		}
		switch c {
		case ':':
			if i+1 == len(s) || s[i+1] == ' ' {
				return true
			}
		case '#':
			if i > 0 && s[i-1] == ' ' {
				return true
			}
		}
	}
	return false
}

// --- JSON ---

func (e *emitter) json(id tree.ID) error {
	k, err := e.t.NodeType(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmit, err)
	}
	if err := jsonLegal(k); err != nil {
		return err
	}
	if k.IsStream() {
		nc := e.numChildren(id)
		if nc > 1 {
			return fmt.Errorf("%w: multi-document stream", ErrEmitJSON)
		}
		if nc == 0 {
			return e.jsonNull()
		}
		c, err := e.t.FirstChild(id)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEmit, err)
		}
		return e.json(c)
	}
	switch {
	case k.IsMap():
		return e.jsonMap(id)
	case k.IsSeq():
		return e.jsonSeq(id)
	case k.HasVal():
		return e.jsonScalar(id, k)
	}
	return e.jsonNull()
}

// jsonLegal rejects node decorations JSON has no spelling for.
func jsonLegal(k tree.Type) error {
	switch {
	case k.HasKeyTag() || k.HasValTag():
		return fmt.Errorf("%w: tag", ErrEmitJSON)
	case k.HasKeyAnchor() || k.HasValAnchor():
		return fmt.Errorf("%w: anchor", ErrEmitJSON)
	case k.IsKeyRef() || k.IsValRef():
		return fmt.Errorf("%w: alias", ErrEmitJSON)
	}
	return nil
}

func (e *emitter) jsonMap(id tree.ID) error {
	if err := e.colored(ContainerKind, SepColor, "{"); err != nil {
		return err
	}
	first := true
	c, err := e.t.FirstChild(id)
	for err == nil {
		if !first {
			if err := e.colored(ContainerKind, SepColor, ", "); err != nil {
				return err
			}
		}
		first = false
		key, kerr := e.t.Key(c)
		if kerr != nil {
			return fmt.Errorf("%w: map entry without key", ErrEmitJSON)
		}
		if err := e.colored(StringKind, KeyColor, strconv.Quote(key.String())); err != nil {
			return err
		}
		if err := e.colored(ContainerKind, SepColor, ": "); err != nil {
			return err
		}
		if err := e.json(c); err != nil {
			return err
		}
		c, err = e.t.NextSibling(c)
	}
	return e.colored(ContainerKind, SepColor, "}")
}

func (e *emitter) jsonSeq(id tree.ID) error {
	if err := e.colored(ContainerKind, SepColor, "["); err != nil {
		return err
	}
	first := true
	c, err := e.t.FirstChild(id)
	for err == nil {
		if !first {
			if err := e.colored(ContainerKind, SepColor, ", "); err != nil {
				return err
			}
		}
		first = false
		if err := e.json(c); err != nil {
			return err
		}
		c, err = e.t.NextSibling(c)
	}
	return e.colored(ContainerKind, SepColor, "]")
}

func (e *emitter) jsonScalar(id tree.ID, k tree.Type) error {
	v, err := e.t.Val(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmit, err)
	}
	text := v.String()
	if k&tree.ValQuoted != 0 {
		return e.colored(StringKind, ValueColor, strconv.Quote(text))
	}
	switch classify(text) {
	case NullKind:
		return e.jsonNull()
	case BoolKind:
		if text == "true" || text == "false" {
			return e.colored(BoolKind, ValueColor, text)
		}
	case NumberKind:
		if isJSONNumber(text) {
			return e.colored(NumberKind, ValueColor, text)
		}
	}
	return e.colored(StringKind, ValueColor, strconv.Quote(text))
}

func (e *emitter) jsonNull() error {
	return e.colored(NullKind, ValueColor, "null")
}

// isJSONNumber checks the RFC 8259 number grammar, which is stricter
// than what ParseFloat accepts: no leading '+', no leading zeros, no
// bare '.5' or '5.', no hex, no Inf or NaN.
func isJSONNumber(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	if i >= len(s) {
		return false
	}
	if s[i] == '0' {
		i++
	} else if s[i] >= '1' && s[i] <= '9' {
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	} else {
		return false
	}
	if i < len(s) && s[i] == '.' {
		i++
		if i >= len(s) || s[i] < '0' || s[i] > '9' {
			return false
		}
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		if i >= len(s) || s[i] < '0' || s[i] > '9' {
			return false
		}
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	return i == len(s)
}

func (e *emitter) numChildren(id tree.ID) int {
	nc, err := e.t.NumChildren(id)
	if err != nil {
		return 0
	}
	return nc
}
