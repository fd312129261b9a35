package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/adapter/repo"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/decision"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
	httpapi "github.com/abderrazaqq12/adspark-ai-sub011/internal/http"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/http/handlers"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/infra"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/infra/credentials"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/infra/geoip"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/middleware"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/notify"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/orchestrator"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/probe"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/providers/engine"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/registry"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/storage"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/validate"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Engine catalog
	engines := registry.DefaultCatalog()
	if cfg.EngineCatalogPath != "" {
		engines, err = registry.LoadCatalog(cfg.EngineCatalogPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.EngineCatalogPath).Msg("load engine catalog")
		}
	}
	reg := registry.New(engines)

	// Job store: Postgres when configured, in-memory otherwise.
	var store domain.JobStore = repo.NewMemoryStore()
	credSet := infra.CredentialsFromEnv(credentialKeys(engines))
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		store = repo.NewJobRepository(pool)

		stored, err := credentials.NewStore(pool).Load(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("load stored credentials")
		} else {
			credSet = credentials.Merge(credSet, stored)
		}
	} else {
		logger.Warn().Msg("DATABASE_URL not set, using in-memory job store")
	}

	// Render node probe, refreshed in the background.
	refresher := probe.NewRefresher(probe.New(cfg.RenderNodeURL, nil), cfg.ProbeInterval, logger)
	go refresher.Run(ctx)

	// Progress sinks: always the log, Redis fan-out when configured.
	var sink notify.Sink = notify.NewLogSink(logger)
	if cfg.RedisURL != "" {
		redisSink, err := notify.NewRedisSink(cfg.RedisURL, cfg.EventChannel, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("redis sink unavailable, events go to log only")
		} else {
			defer redisSink.Close()
			sink = notify.Multi{sink, redisSink}
		}
	}

	// Artifact storage for engines that return inline bytes.
	artifacts, err := storage.NewFileStore(staticDir())
	if err != nil {
		logger.Fatal().Err(err).Msg("init artifact store")
	}

	local := engine.NewLocalClient(cfg.RenderNodeURL, nil, logger)
	invoker := engine.NewRouter(local, engine.NewRemoteInvoker(nil, credSet, logger))
	validator := validate.New(validate.Options{
		MaxAttempts: cfg.ValidationMaxAttempts,
		RetryDelay:  cfg.ValidationRetryDelay,
		Logger:      logger,
	})

	pool := orchestrator.NewPool(cfg.PipelineWorkers, logger, nil)
	pool.Start(ctx)

	orch := orchestrator.New(
		store,
		decision.NewScorer(reg),
		invoker,
		local,
		validator,
		artifacts,
		refresher,
		sink,
		pool,
		orchestrator.Config{
			Retry: orchestrator.RetryPolicy{
				MaxAttempts: cfg.EngineRetryMaxAttempts,
				BackoffBase: cfg.EngineRetryBackoff,
			},
			BatchTimeout: cfg.BatchTimeout,
			PollInterval: cfg.TaskPollInterval,
			Credentials:  credSet,
			StorageBase:  cfg.StorageBaseURL,
		},
		logger,
	)

	var markets middleware.MarketLookup
	if resolver, err := geoip.NewResolver(cfg.GeoIPDBPath); err != nil {
		logger.Warn().Err(err).Msg("geoip resolver unavailable")
	} else if resolver != nil {
		markets = resolver.Market
	}

	app := &handlers.App{
		Batches:     orch,
		Estimator:   decision.NewOptimizer(reg),
		Engines:     reg,
		Snapshots:   refresher,
		Credentials: credSet,
		Logger:      logger,
	}
	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		Logger:          logger,
		MarketLookup:    markets,
		RateLimitPerMin: cfg.RateLimitPerMin,
		StaticDir:       artifacts.BasePath(),
		AllowedOrigins:  cfg.AllowedOrigins,
	})

	server := infra.NewHTTPServer(cfg, router)
	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func credentialKeys(engines []domain.EngineDefinition) []string {
	keys := make([]string, 0, len(engines))
	for _, e := range engines {
		keys = append(keys, e.CredentialKey)
	}
	return keys
}

func staticDir() string {
	if dir := os.Getenv("STATIC_DIR"); dir != "" {
		return dir
	}
	return "./static"
}
