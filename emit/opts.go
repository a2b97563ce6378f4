package emit

import (
	"os"

	"github.com/mattn/go-isatty"

	"github.com/yamltree/yamltree/format"
	"github.com/yamltree/yamltree/tree"
)

type emitState struct {
	format format.Format
	indent int
	start  tree.ID
	colors *Colors
}

type EmitOption func(*emitState)

func EmitFormat(f format.Format) EmitOption {
	return func(es *emitState) { es.format = f }
}

func EmitJSON() EmitOption { return EmitFormat(format.JSONFormat) }

func EmitYAML() EmitOption { return EmitFormat(format.YAMLFormat) }

// Indent sets the number of spaces per block level.
func Indent(n int) EmitOption {
	return func(es *emitState) { es.indent = n }
}

// StartNode emits from the given node instead of the root.
func StartNode(id tree.ID) EmitOption {
	return func(es *emitState) { es.start = id }
}

func EmitColors(c *Colors) EmitOption {
	return func(es *emitState) { es.colors = c }
}

// ColorsIfTerminal enables colored output when f is a terminal.
func ColorsIfTerminal(f *os.File) EmitOption {
	return func(es *emitState) {
		if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
			es.colors = NewColors()
		}
	}
}
