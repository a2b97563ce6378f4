package emit

import (
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Kind classifies scalar content for coloring. The tree stores text
// only; the classification is a display concern and never feeds back
// into the data model.
type Kind int

const (
	NullKind Kind = iota
	BoolKind
	NumberKind
	StringKind
	ContainerKind
)

func classify(s string) Kind {
	switch s {
	case "", "~", "null", "Null", "NULL":
		return NullKind
	case "true", "false", "True", "False", "TRUE", "FALSE":
		return BoolKind
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return NumberKind
	}
	return StringKind
}

type Colorable struct {
	Kind Kind
	Attr ColorAttr
}

type ColorAttr int

const (
	KeyColor ColorAttr = iota
	ValueColor
	TagColor
	AnchorColor
	RefColor
	SepColor
	MarkColor
	LiteralColor
)

type Colors struct {
	Default func(string, ...any) string
	Map     map[Colorable]func(string, ...any) string
}

func NewColors() *Colors {
	colors := &Colors{
		Default: colorDefault,
		Map:     map[Colorable]func(string, ...any) string{},
	}
	for k := NullKind; k <= ContainerKind; k++ {
		able := Colorable{
			Kind: k,
			Attr: TagColor,
		}
		colors.Map[able] = color.RGB(74, 92, 138).SprintfFunc()
		able.Attr = AnchorColor
		colors.Map[able] = color.RGB(196, 168, 128).SprintfFunc()
		able.Attr = RefColor
		colors.Map[able] = color.RGB(196, 168, 128).SprintfFunc()
		able.Attr = KeyColor
		colors.Map[able] = color.RGB(128, 168, 196).SprintfFunc()
		able.Attr = SepColor
		colors.Map[able] = color.RGB(196, 128, 128).SprintfFunc()
		able.Attr = MarkColor
		colors.Map[able] = color.RGB(255, 0, 196).SprintfFunc()
	}
	able := Colorable{Attr: ValueColor}

	able.Kind = NumberKind
	colors.Map[able] = color.RGB(128, 216, 236).SprintfFunc()

	able.Kind = NullKind
	colors.Map[able] = color.RGB(168, 0, 196).SprintfFunc()

	able.Kind = BoolKind
	colors.Map[able] = color.CyanString

	able.Kind = StringKind
	colors.Map[able] = color.RGB(8, 196, 16).SprintfFunc()
	able.Attr = LiteralColor
	colors.Map[able] = color.RGB(198, 198, 46).SprintfFunc()
	for k, f := range colors.Map {
		colors.Map[k] = func(v string, _ ...any) string {
			return f(strings.Replace(v, "%", "%%", -1))
		}
	}
	return colors
}

func colorDefault(v string, _ ...any) string { return v }

func (c *Colors) Color(k Kind, a ColorAttr, s string) string {
	return c.Get(k, a)(s)
}

func (c *Colors) Get(k Kind, a ColorAttr) func(string, ...any) string {
	f := c.Map[Colorable{Kind: k, Attr: a}]
	if f == nil {
		return c.Default
	}
	return f
}
