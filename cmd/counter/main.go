package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/weegigs/wee-counter-go/support"
)

func run(ctx context.Context) error {
	cfg, err := support.LoadConfig()
	if err != nil {
		return err
	}

	shutdown, err := support.StartTracing(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer shutdown()

	return newRootCommand(cfg).ExecuteContext(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
