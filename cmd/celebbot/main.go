package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/JetJadeja/celebxplain/internal/bot"
	"github.com/JetJadeja/celebxplain/internal/infra"
	"github.com/JetJadeja/celebxplain/pkg/jobclient"
)

func main() {
	_ = godotenv.Load()

	logger := infra.NewLogger(getEnv("APP_ENV", "development"))

	apiBaseURL := getEnv("API_BASE_URL", "http://localhost:8080")
	client := jobclient.NewClient(apiBaseURL)

	twitter, err := bot.NewTwitterClient(bot.TwitterOptions{
		BaseURL:     os.Getenv("TWITTER_API_BASE_URL"),
		BearerToken: os.Getenv("TWITTER_BEARER_TOKEN"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure twitter client")
	}

	parser, err := bot.NewOpenAIParser(bot.OpenAIParserOptions{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		Model:   os.Getenv("OPENAI_MODEL"),
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure mention parser")
	}

	b := bot.New(bot.Options{
		Twitter:         twitter,
		Parser:          parser,
		Client:          client,
		MentionInterval: secondsEnv("MENTIONS_POLL_SECONDS", 30),
		JobPollInterval: secondsEnv("JOB_POLL_SECONDS", 30),
		SinceIDPath:     getEnv("SINCE_ID_PATH", "data/since_id.txt"),
		Logger:          logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("api", apiBaseURL).Msg("bot listening for mentions")
	if err := b.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("bot stopped")
	}
	logger.Info().Msg("bot stopped")
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func secondsEnv(key string, fallback int) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return time.Duration(i) * time.Second
		}
	}
	return time.Duration(fallback) * time.Second
}
