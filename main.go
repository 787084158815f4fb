package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kyleking/gh-ci-helpers/internal/cli"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.NewRootCmd(version, cli.DefaultDeps()).ExecuteContext(ctx)
	stop()

	os.Exit(cli.Report(os.Stderr, err))
}
