package main

import (
	"context"

	"github.com/scott-cotton/cli"
	"github.com/yamltree/yamltree/cmd/yt/commands"
)

func main() {
	cli.MainContext(context.Background(), commands.Root())
}
