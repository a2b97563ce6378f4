// Package debug holds env-gated diagnostics for the parse, resolve
// and emit paths. All flags are read once at startup.
package debug

import (
	"os"
	"strconv"
)

type debug struct {
	Parse   bool
	Resolve bool
	Emit    bool
	Ref     bool
}

var d *debug

func init() {
	d = &debug{}
	d.Parse = boolEnv("YT_DEBUG_PARSE")
	d.Resolve = boolEnv("YT_DEBUG_RESOLVE")
	d.Emit = boolEnv("YT_DEBUG_EMIT")
	d.Ref = boolEnv("YT_DEBUG_REF")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Parse() bool {
	return d.Parse
}
func Resolve() bool {
	return d.Resolve
}
func Emit() bool {
	return d.Emit
}
func Ref() bool {
	return d.Ref
}
