package main

import (
	"context"
	"os"

	"github.com/reshetovitsme/steam-browser/internal/transport/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
