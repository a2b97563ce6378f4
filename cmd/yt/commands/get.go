package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/scott-cotton/cli"
	"github.com/yamltree/yamltree/debug"
	"github.com/yamltree/yamltree/emit"
	"github.com/yamltree/yamltree/parse"
	"github.com/yamltree/yamltree/tree"
)

type getConfig struct {
	*cli.Command
	JSON bool `cli:"name=json aliases=j desc='emit JSON instead of YAML'"`
}

// GetCommand returns the get subcommand.
func GetCommand() *cli.Command {
	cfg := &getConfig{}
	opts, _ := cli.StructOpts(cfg)
	return cli.NewCommandAt(&cfg.Command, "get").
		WithSynopsis("get <path> [file] - Print the subtree at a dotted path").
		WithOpts(opts...).
		WithRun(cfg.run)
}

func (cfg *getConfig) run(cc *cli.Context, args []string) error {
	args, err := cfg.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("get needs a path argument")
	}
	path := args[0]
	data, name, err := readInput(cc, args[1:])
	if err != nil {
		return err
	}
	t, err := parse.Parse(data, parse.Filename(name))
	if err != nil {
		return err
	}
	id, err := walkPath(t, path)
	if err != nil {
		return err
	}
	if debug.Ref() {
		debug.Logf("path %q resolved to node %d in %s\n", path, id, name)
	}
	eOpts := []emit.EmitOption{emit.StartNode(id)}
	if cfg.JSON {
		eOpts = append(eOpts, emit.EmitJSON())
	}
	_, err = emit.EmitToWriter(t, cc.Out, eOpts...)
	return err
}

// walkPath follows a dotted path from the root: map segments look up
// keys, sequence segments are numeric indices.
func walkPath(t *tree.Tree, path string) (tree.ID, error) {
	id := t.Root()
	for _, seg := range strings.Split(path, ".") {
		k, err := t.NodeType(id)
		if err != nil {
			return tree.None, err
		}
		switch {
		case k.IsMap():
			id, err = t.FindChild(id, seg)
		case k.IsSeq():
			var i int
			i, err = strconv.Atoi(seg)
			if err != nil {
				return tree.None, fmt.Errorf("path segment %q indexes a sequence", seg)
			}
			id, err = t.ChildAt(id, i)
		default:
			return tree.None, fmt.Errorf("path segment %q descends into a scalar", seg)
		}
		if err != nil {
			return tree.None, fmt.Errorf("path %q: %w", path, err)
		}
	}
	return id, nil
}
