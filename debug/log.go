package debug

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/yamltree/yamltree/emit"
	"github.com/yamltree/yamltree/tree"
)

// Logf writes a formatted message to stderr. Tree arguments render
// through the emitter; maps and slices render as indented JSON.
func Logf(msg string, args ...any) {
	for i := range args {
		a := args[i]
		switch x := a.(type) {
		case map[string]any, []any, json.Number:
			d, err := json.MarshalIndent(a, "   |", "  ")
			if err != nil {
				args[i] = fmt.Sprintf("%v", a)
				continue
			}
			args[i] = string(d)
		case *tree.Tree:
			out, err := emit.Emit(x)
			if err != nil {
				args[i] = fmt.Sprintf("[raw tree, %d nodes] %v", x.Len(), err)
				continue
			}
			args[i] = out
		case bool, string, float64, int:

		default:
		}
	}
	fmt.Fprintf(os.Stderr, msg, args...)
}
