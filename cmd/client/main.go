package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/zkvault/internal/client/cli"
	"github.com/iudanet/zkvault/internal/client/iocli"
	"github.com/iudanet/zkvault/internal/client/ui"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.New(iocli.NewStdio(), cli.WithVersion(version()))
	if err := app.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, ui.Error.Sprint("Error:"), cli.Describe(err))
		stop()
		os.Exit(1)
	}
}

func version() string {
	return fmt.Sprintf("%s (built %s, commit %s)", Version, BuildDate, GitCommit)
}
