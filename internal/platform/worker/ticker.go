// Package worker provides the ticker loop driving scheduled discovery.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const logFieldWorker = "worker"

// Config configures a ticker-driven worker loop.
type Config struct {
	// Name identifies the worker for logging.
	Name string

	// Interval between ticks.
	Interval time.Duration

	// OnTick runs on every tick, including once at startup.
	OnTick func(ctx context.Context)

	// Logger for the worker.
	Logger *zerolog.Logger
}

// TickerLoop runs OnTick at the configured interval until the context
// is canceled. The first tick fires immediately. Returns a wrapped
// context error when the context is canceled.
func TickerLoop(ctx context.Context, cfg Config) error {
	cfg.Logger.Info().
		Str(logFieldWorker, cfg.Name).
		Dur("interval", cfg.Interval).
		Msg("starting ticker loop")

	defer cfg.Logger.Info().Str(logFieldWorker, cfg.Name).Msg("ticker loop stopped")

	cfg.OnTick(ctx)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("ticker loop %s: %w", cfg.Name, ctx.Err())
		case <-ticker.C:
			cfg.OnTick(ctx)
		}
	}
}
