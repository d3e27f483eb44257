package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/redleadhq/redlead/internal/app"
	"github.com/redleadhq/redlead/internal/config"
)

func main() {
	mode := flag.String("mode", "serve", "Service mode (serve, worker, discover)")
	campaignID := flag.String("campaign", "", "Campaign id (for discover mode)")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build application")
	}
	defer application.Close()

	// Start health server in background
	go func() {
		if err := application.StartHealthServer(ctx); err != nil {
			logger.Error().Err(err).Msg("health check server error")
		}
	}()

	if err := runMode(ctx, application, *mode, *campaignID); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func runMode(ctx context.Context, application *app.App, mode, campaignID string) error {
	switch mode {
	case "serve":
		return application.RunServe(ctx)
	case "worker":
		return application.RunWorker(ctx)
	case "discover":
		if campaignID == "" {
			log.Fatalf("Usage: %s --mode=discover --campaign=<id>", os.Args[0])
		}

		return application.RunDiscover(ctx, campaignID)
	default:
		log.Fatalf("Usage: %s --mode=[serve|worker|discover]", os.Args[0])

		return nil
	}
}
