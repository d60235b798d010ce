package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cliplugins "backupwatch/internal/cli_plugins"
	"backupwatch/pkg/cli"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-signalChan
		cancel()
		// A second signal skips the graceful stop.
		<-signalChan
		os.Exit(130)
	}()

	c := cli.NewCLI("backupwatch", "Keep a timestamped copy of every file you change")
	cliplugins.Register(c)

	if err := c.Run(ctx, nil); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
