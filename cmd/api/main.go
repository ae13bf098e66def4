package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"comercio/internal/adapter/repo"
	"comercio/internal/artifact"
	"comercio/internal/catalog"
	"comercio/internal/delivery"
	"comercio/internal/http/handlers"
	httpapi "comercio/internal/http/httpapi"
	"comercio/internal/infra"
	"comercio/internal/infra/credentials"
	"comercio/internal/infra/geoip"
	"comercio/internal/middleware"
	"comercio/internal/providers/render"
	"comercio/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	store, err := newArtifactStore(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure artifact store")
	}
	defer store.Close()

	uploader, closeUploader, err := newUploader(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage backend")
	}
	defer closeUploader()

	renderer, err := render.NewClient(render.Options{
		BaseURL: cfg.RendererBaseURL,
		APIKey:  renderAPIKey(ctx, cfg, runner, logger),
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure renderer client")
	}

	products := repo.NewProductRepository(runner)
	producer := catalog.NewProducer(products, renderer, store, catalog.ProducerOptions{
		TTL:    cfg.ArtifactTTL,
		Logger: &logger,
	})

	queue := delivery.NewQueue(runner, delivery.QueueOptions{
		MaxAttempts: cfg.DeliveryMaxAttempts,
		BackoffBase: cfg.DeliveryBackoffBase,
		Logger:      &logger,
	})
	dispatcher := delivery.NewDispatcher(store, uploader, queue, delivery.DispatcherOptions{
		Logger: &logger,
	})

	app := &handlers.App{
		Producer:   producer,
		Dispatcher: dispatcher,
		Artifacts:  store,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:         logger,
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		DefaultLocale:  "es",
		CountryLookup:  newCountryLookup(cfg, logger),
		RateLimit:      cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func newArtifactStore(cfg *infra.Config, logger infra.Logger) (artifact.Store, error) {
	switch cfg.ArtifactStore {
	case infra.ArtifactStoreRedis:
		return artifact.NewRedisStore(cfg.RedisAddr, artifact.RedisOptions{
			TTL:    cfg.ArtifactTTL,
			Logger: &logger,
		})
	default:
		return artifact.NewMemoryStore(artifact.MemoryOptions{
			TTL:           cfg.ArtifactTTL,
			SweepInterval: cfg.ArtifactSweepInterval,
			Logger:        &logger,
		}), nil
	}
}

func newUploader(ctx context.Context, cfg *infra.Config) (storage.Uploader, func(), error) {
	switch cfg.StorageBackend {
	case infra.StorageBackendGCS:
		uploader, err := storage.NewGCSUploader(ctx, cfg.GCSBucket, cfg.GCSCDNDomain)
		if err != nil {
			return nil, nil, err
		}
		return uploader, func() { _ = uploader.Close() }, nil
	default:
		uploader, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return uploader, func() {}, nil
	}
}

// renderAPIKey prefers the environment and falls back to the integration
// token stored in the database. An empty key keeps the synthetic renderer.
func renderAPIKey(ctx context.Context, cfg *infra.Config, runner *infra.SQLRunner, logger infra.Logger) string {
	key := strings.TrimSpace(cfg.RendererAPIKey)
	if key != "" {
		return key
	}
	key, err := credentials.NewStore(runner).RenderAPIKey(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load renderer api key from store")
		return ""
	}
	if key == "" {
		logger.Warn().Msg("no renderer api key configured, using synthetic renderer")
	}
	return key
}

func newCountryLookup(cfg *infra.Config, logger infra.Logger) middleware.CountryLookup {
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip lookups disabled")
		return nil
	}
	if resolver == nil {
		return nil
	}
	return resolver.CountryCode
}
