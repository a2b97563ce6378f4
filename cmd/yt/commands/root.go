package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/scott-cotton/cli"
)

const usageText = `yt - YAML tree tool

Usage:
  yt fmt [--json] [--indent n] [--color] [file]   Reformat a document
  yt resolve [--json] [file]                      Resolve anchors and aliases
  yt get <path> [file]                            Print the subtree at a dotted path

Input comes from the file argument or standard input.

Examples:
  yt fmt config.yaml
  yt fmt --json config.yaml
  cat doc.yaml | yt resolve
  yt get spec.containers.0 pod.yaml`

// Root returns the root command for yt.
func Root() *cli.Command {
	return cli.NewCommand("yt").
		WithSynopsis("yt - YAML tree tool").
		WithDescription(usageText).
		WithSubs(
			FmtCommand(),
			ResolveCommand(),
			GetCommand(),
		)
}

// readInput returns the document bytes and a display name, from the
// first argument or standard input.
func readInput(cc *cli.Context, args []string) ([]byte, string, error) {
	if len(args) > 0 {
		d, err := os.ReadFile(args[0])
		if err != nil {
			return nil, "", fmt.Errorf("cannot read %s: %w", args[0], err)
		}
		return d, args[0], nil
	}
	d, err := io.ReadAll(cc.In)
	if err != nil {
		return nil, "", fmt.Errorf("cannot read stdin: %w", err)
	}
	return d, "<stdin>", nil
}
