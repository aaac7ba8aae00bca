package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JetJadeja/celebxplain/internal/adapter/repo"
	"github.com/JetJadeja/celebxplain/internal/catalog"
	"github.com/JetJadeja/celebxplain/internal/http/handlers"
	"github.com/JetJadeja/celebxplain/internal/http/httpapi"
	"github.com/JetJadeja/celebxplain/internal/infra"
	"github.com/JetJadeja/celebxplain/internal/infra/geoip"
	"github.com/JetJadeja/celebxplain/internal/middleware"
	"github.com/JetJadeja/celebxplain/internal/queue"
	"github.com/JetJadeja/celebxplain/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	if err := repo.EnsureSchema(ctx, dbpool); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}

	personas, err := catalog.Load(cfg.PersonasPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.PersonasPath).Msg("failed to load persona catalog")
	}

	queueClient := queue.NewClient(cfg.RedisAddr, cfg.RedisPassword)
	defer func() {
		_ = queueClient.Close()
	}()

	store, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		defer func() {
			_ = resolver.Close()
		}()
		countryLookup = resolver.CountryCode
	}

	jobs := repo.NewJobRepository(dbpool)
	app := handlers.NewApp(jobs, personas, queueClient, store, logger)
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		CountryLookup:   countryLookup,
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

func buildStore(ctx context.Context, cfg *infra.Config) (storage.Store, error) {
	if cfg.UseMinIO() {
		return storage.NewMinIOStore(ctx, storage.MinIOOptions{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
			URLExpiry: cfg.MinIOURLExpiry,
		})
	}
	return storage.NewFileStore(cfg.StoragePath)
}
