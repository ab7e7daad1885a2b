package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/flickx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:     "flickx",
		Usage:    "Movie discovery proxy, client and terminal UI",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   runner.Load,
		Commands: runner.register(),
	}

	err := app.Run(ctx, os.Args)
	stop()
	runner.Close()
	if err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
