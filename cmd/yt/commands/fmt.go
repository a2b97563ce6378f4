package commands

import (
	"os"

	"github.com/scott-cotton/cli"
	"github.com/yamltree/yamltree/debug"
	"github.com/yamltree/yamltree/emit"
	"github.com/yamltree/yamltree/parse"
)

type fmtConfig struct {
	*cli.Command
	JSON   bool `cli:"name=json aliases=j desc='emit JSON instead of YAML'"`
	Indent int  `cli:"name=indent desc='spaces per block level'"`
	Color  bool `cli:"name=color desc='force colored output'"`
}

// FmtCommand returns the fmt subcommand.
func FmtCommand() *cli.Command {
	cfg := &fmtConfig{Indent: 2}
	opts, _ := cli.StructOpts(cfg)
	return cli.NewCommandAt(&cfg.Command, "fmt").
		WithSynopsis("fmt [--json] [--indent n] [--color] [file] - Reformat a document").
		WithOpts(opts...).
		WithRun(cfg.run)
}

func (cfg *fmtConfig) run(cc *cli.Context, args []string) error {
	args, err := cfg.Parse(cc, args)
	if err != nil {
		return err
	}
	data, name, err := readInput(cc, args)
	if err != nil {
		return err
	}
	t, err := parse.Parse(data, parse.Filename(name))
	if err != nil {
		return err
	}
	if debug.Emit() {
		debug.Logf("fmt %s: %d nodes, %d arena bytes\n", name, t.Len(), t.ArenaLen())
	}
	eOpts := []emit.EmitOption{emit.Indent(cfg.Indent)}
	if cfg.JSON {
		eOpts = append(eOpts, emit.EmitJSON())
	}
	if cfg.Color {
		eOpts = append(eOpts, emit.EmitColors(emit.NewColors()))
	} else {
		eOpts = append(eOpts, emit.ColorsIfTerminal(os.Stdout))
	}
	_, err = emit.EmitToWriter(t, cc.Out, eOpts...)
	return err
}
