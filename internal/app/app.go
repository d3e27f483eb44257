// Package app wires configuration, storage, the LLM registry and the
// discovery pipeline into runnable service modes.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/redleadhq/redlead/internal/config"
	"github.com/redleadhq/redlead/internal/core/llm"
	"github.com/redleadhq/redlead/internal/platform/observability"
	"github.com/redleadhq/redlead/internal/platform/worker"
	"github.com/redleadhq/redlead/internal/process/discovery"
	"github.com/redleadhq/redlead/internal/process/engagement"
	"github.com/redleadhq/redlead/internal/server"
	"github.com/redleadhq/redlead/internal/storage"
)

const (
	httpShutdownTimeout   = 5 * time.Second
	httpReadHeaderTimeout = 10 * time.Second
)

// App holds the assembled service.
type App struct {
	cfg     *config.Config
	store   storage.Store
	llm     llm.Client
	runner  *discovery.Runner
	replies *engagement.Generator
	logger  *zerolog.Logger
}

// New builds the application. With a POSTGRES_DSN the store is
// PostgreSQL (migrations applied on startup); otherwise an in-memory
// store is used.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	llmClient := llm.NewClient(cfg, logger)

	reddit, err := discovery.NewRedditClient(discovery.RedditConfig{
		UserAgent: cfg.RedditUserAgent,
		Timeout:   cfg.RedditTimeout,
		RPS:       cfg.RedditRPS,
		Proxy: discovery.ProxyConfig{
			Enabled: cfg.ProxyEnabled,
			Type:    discovery.ProxyType(cfg.ProxyType),
			APIKey:  cfg.ScraperAPIKey,
			URL:     cfg.ProxyURL,
		},
	}, logger)
	if err != nil {
		store.Close()

		return nil, fmt.Errorf("build reddit client: %w", err)
	}

	return &App{
		cfg:     cfg,
		store:   store,
		llm:     llmClient,
		runner:  discovery.NewRunner(reddit, llmClient, store, store, cfg.SubredditPause, logger),
		replies: engagement.NewGenerator(llmClient, logger),
		logger:  logger,
	}, nil
}

func newStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (storage.Store, error) {
	if cfg.PostgresDSN == "" {
		logger.Warn().Msg("POSTGRES_DSN not set, using in-memory store")

		return storage.NewMemory(), nil
	}

	poolOpts := storage.PoolOptions{
		MaxConns:          cfg.DBMaxConnections,
		MinConns:          cfg.DBMinConnections,
		MaxConnIdleTime:   cfg.DBMaxConnIdleTime,
		MaxConnLifetime:   cfg.DBMaxConnLifetime,
		HealthCheckPeriod: cfg.DBHealthCheckPeriod,
	}

	db, err := storage.NewWithOptions(ctx, cfg.PostgresDSN, poolOpts, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()

		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// Close releases the application's resources.
func (a *App) Close() {
	a.store.Close()
}

// StartHealthServer runs the health and metrics endpoint until the
// context is canceled.
func (a *App) StartHealthServer(ctx context.Context) error {
	return observability.NewServer(a.store, a.cfg.HealthPort, a.logger).Start(ctx)
}

// RunServe runs the HTTP API until the context is canceled.
func (a *App) RunServe(ctx context.Context) error {
	handler := server.NewRouter(&server.RouterDeps{
		Campaigns: a.store,
		Leads:     a.store,
		Discovery: a.runner,
		Replies:   a.replies,
		Logger:    a.logger,
	})

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: httpReadHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)

		defer cancel()

		//nolint:errcheck,contextcheck // shutdown in signal handler is best-effort, non-inherited context intentional
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("API server starting")

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// RunWorker runs scheduled global discovery for all campaigns.
func (a *App) RunWorker(ctx context.Context) error {
	return worker.TickerLoop(ctx, worker.Config{
		Name:     "global-discovery",
		Interval: a.cfg.GlobalDiscoveryInterval,
		OnTick:   a.globalDiscoveryTick,
		Logger:   a.logger,
	})
}

func (a *App) globalDiscoveryTick(ctx context.Context) {
	campaigns, err := a.store.ListAllCampaigns(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to list campaigns for global discovery")
		return
	}

	for _, campaign := range campaigns {
		if len(campaign.GeneratedKeywords) == 0 {
			continue
		}

		result, err := a.runner.RunGlobal(ctx, campaign.ID)
		if err != nil {
			a.logger.Warn().
				Err(err).
				Str("campaign_id", campaign.ID).
				Msg("scheduled global discovery failed")

			continue
		}

		a.logger.Info().
			Str("campaign_id", campaign.ID).
			Int("count", result.Count).
			Msg("scheduled global discovery complete")
	}
}

// RunDiscover triggers a single manual discovery run and exits. Useful
// for cron jobs and debugging.
func (a *App) RunDiscover(ctx context.Context, campaignID string) error {
	result, err := a.runner.RunManual(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("manual discovery: %w", err)
	}

	a.logger.Info().
		Str("campaign_id", campaignID).
		Int("count", result.Count).
		Bool("all_blocked", result.Diagnostics.AllBlocked).
		Msg("manual discovery complete")

	return nil
}
