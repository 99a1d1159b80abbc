package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cronls/internal/app"
	"cronls/internal/config"
	"cronls/internal/shared"
)

func main() {
	os.Exit(run())
}

func run() int {
	application, err := app.New(os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			return shared.ExitOK
		}
		fmt.Fprintf(os.Stderr, "cronls: %v\n", err)
		return shared.ExitCode(err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "cronls: %v\n", err)
		return shared.ExitCode(err)
	}
	return shared.ExitOK
}
