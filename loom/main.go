// Command loom is the operator CLI for the thread discovery engine: list and
// collect threads from a terminal, resolve identifiers, and manage the
// snapshot cache.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"loom/internal/command"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := command.NewRootCmd(version)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", command.AppName, err)
		os.Exit(1)
	}
}
