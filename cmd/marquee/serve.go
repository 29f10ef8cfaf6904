package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/slipstream/marquee/internal/api"
	"github.com/slipstream/marquee/internal/api/ratelimit"
	"github.com/slipstream/marquee/internal/movies"
	"github.com/slipstream/marquee/internal/scheduler"
	"github.com/slipstream/marquee/internal/scheduler/tasks"
	"github.com/slipstream/marquee/internal/tmdb"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP proxy server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := newLogger(cfg)
	defer log.Close()

	log.Info().
		Str("version", version).
		Str("logLevel", cfg.Logging.Level).
		Msg("starting Marquee")

	tmdbClient := tmdb.NewClient(cfg.TMDB, log.WithComponent("tmdb"))
	service := movies.NewService(tmdbClient, log.WithComponent("movies"))
	limiter := ratelimit.New(cfg.RateLimit.Max, cfg.RateLimit.Window(), log.WithComponent("ratelimit"))

	sched, err := scheduler.New(log.WithComponent("scheduler"))
	if err != nil {
		return err
	}
	if err := tasks.RegisterRateLimitCleanupTask(sched, limiter, log.WithComponent("ratelimit")); err != nil {
		return err
	}
	if err := tasks.RegisterConfigRefreshTask(sched, tmdbClient); err != nil {
		return err
	}

	server, err := api.NewServer(cfg, api.Deps{
		Movies:    service,
		Limiter:   limiter,
		Scheduler: sched,
		Logs:      log,
	}, log.Logger)
	if err != nil {
		return err
	}

	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Error().Err(err).Msg("scheduler shutdown error")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		addr := cfg.Server.Address()
		log.Info().Str("address", addr).Str("prefix", cfg.Server.Prefix).Msg("HTTP server listening")
		errCh <- server.Start(addr)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
		log.Info().Msg("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server error")
			return err
		}
		return errors.New("server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
	return nil
}
