package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/JetJadeja/celebxplain/internal/adapter/repo"
	"github.com/JetJadeja/celebxplain/internal/assemble"
	"github.com/JetJadeja/celebxplain/internal/catalog"
	"github.com/JetJadeja/celebxplain/internal/infra"
	"github.com/JetJadeja/celebxplain/internal/providers/lipsync"
	"github.com/JetJadeja/celebxplain/internal/providers/script"
	"github.com/JetJadeja/celebxplain/internal/providers/speech"
	"github.com/JetJadeja/celebxplain/internal/providers/visuals"
	"github.com/JetJadeja/celebxplain/internal/storage"
	"github.com/JetJadeja/celebxplain/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	personas, err := catalog.Load(cfg.PersonasPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.PersonasPath).Msg("worker: failed to load persona catalog")
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}

	scriptGen := buildScriptGenerator(cfg, httpClient, logger)

	speechClient, err := speech.NewClient(speech.Options{
		BaseURL:    cfg.TTSBaseURL,
		APIKey:     cfg.TTSAPIKey,
		HTTPClient: httpClient,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure speech client")
	}

	lipsyncClient, err := lipsync.NewClient(lipsync.Options{
		BaseURL:    cfg.SieveBaseURL,
		APIKey:     cfg.SieveAPIKey,
		HTTPClient: httpClient,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure lipsync client")
	}

	planner, err := visuals.NewOpenAIPlanner(visuals.Options{
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.OpenAIModel,
		BaseURL:    cfg.OpenAIBaseURL,
		HTTPClient: httpClient,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure visuals planner")
	}

	processor := worker.NewProcessor(worker.ProcessorOptions{
		Jobs:       repo.NewJobRepository(pool),
		Catalog:    personas,
		Script:     scriptGen,
		Speech:     speechClient,
		Lipsync:    lipsyncClient,
		Visuals:    planner,
		Composer:   assemble.NewComposer(cfg.FFmpegPath),
		Store:      store,
		APIBaseURL: cfg.APIBaseURL,
		WorkDir:    filepath.Join(os.TempDir(), "celebxplain"),
		Logger:     logger,
	})

	srv, mux := worker.NewServer(cfg, processor, logger)

	go func() {
		<-ctx.Done()
		logger.Info().Msg("worker: shutting down")
		srv.Shutdown()
	}()

	logger.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("worker: started")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func buildScriptGenerator(cfg *infra.Config, httpClient *http.Client, logger infra.Logger) script.Generator {
	if cfg.OpenAIAPIKey == "" {
		logger.Warn().Msg("worker: openai api key missing, using static script generation")
		return script.NewStaticGenerator()
	}
	gen, err := script.NewOpenAIGenerator(script.OpenAIOptions{
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.OpenAIModel,
		BaseURL:    cfg.OpenAIBaseURL,
		HTTPClient: httpClient,
		Fallback:   script.NewStaticGenerator(),
		OnFallback: func(reason string, err error) {
			logger.Warn().Err(err).Str("reason", reason).Msg("worker: script generation fell back to static")
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure script generator")
	}
	return gen
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
