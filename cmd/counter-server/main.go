package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

func run(ctx context.Context) error {
	app, cleanup, err := initialize(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to configure server")
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              app.Config.Server.Address(),
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdown); err != nil {
			app.Log.Warn().Err(err).Msg("shutdown interrupted")
		}
	}()

	app.Log.Info().Str("address", srv.Addr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
