package main

import (
	"context"
	"os"

	"github.com/reshetovitsme/steam-browser/internal/transport/cli"
)

// main runs "steambrowser serve", forwarding flags such as --config
func main() {
	root := cli.NewRootCommand()
	root.SetArgs(append([]string{"serve"}, os.Args[1:]...))

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
