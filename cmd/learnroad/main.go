package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/learnroad/internal/infrastructure/cli"
	"github.com/felixgeelhaar/learnroad/internal/infrastructure/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := observability.InitTracing(ctx, slog.Default(), observability.TracingConfig{
		ServiceName: "learnroad",
		Version:     cli.Version,
	})
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}()

	return cli.ExitCode(cli.ExecuteContext(ctx))
}
