package commands

import (
	"github.com/scott-cotton/cli"
	"github.com/yamltree/yamltree/debug"
	"github.com/yamltree/yamltree/emit"
	"github.com/yamltree/yamltree/parse"
)

type resolveConfig struct {
	*cli.Command
	JSON   bool `cli:"name=json aliases=j desc='emit JSON instead of YAML'"`
	Indent int  `cli:"name=indent desc='spaces per block level'"`
}

// ResolveCommand returns the resolve subcommand.
func ResolveCommand() *cli.Command {
	cfg := &resolveConfig{Indent: 2}
	opts, _ := cli.StructOpts(cfg)
	return cli.NewCommandAt(&cfg.Command, "resolve").
		WithSynopsis("resolve [--json] [file] - Resolve anchors and aliases").
		WithOpts(opts...).
		WithRun(cfg.run)
}

func (cfg *resolveConfig) run(cc *cli.Context, args []string) error {
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
	if err := t.Resolve(); err != nil {
		return err
	}
	if debug.Resolve() {
		debug.Logf("resolved %s:\n%v", name, t)
	}
	eOpts := []emit.EmitOption{emit.Indent(cfg.Indent)}
	if cfg.JSON {
		eOpts = append(eOpts, emit.EmitJSON())
	}
	_, err = emit.EmitToWriter(t, cc.Out, eOpts...)
	return err
}
