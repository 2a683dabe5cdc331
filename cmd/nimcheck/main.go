package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/mashiike/nimcheck/cli"

	//builtin backends import
	_ "github.com/mashiike/nimcheck/provider/nim"
	_ "github.com/mashiike/nimcheck/provider/sagemaker"
)

func main() {
	if code := run(context.Background()); code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context) int {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()
	var c cli.CLI
	return c.Run(ctx)
}
