package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string

	// APIBaseURL is the address clients use to reach this API. It is the
	// single base-URL setting the client library consumes.
	APIBaseURL string

	PersonasPath string

	StoragePath     string
	MinIOEndpoint   string
	MinIOAccessKey  string
	MinIOSecretKey  string
	MinIOBucket     string
	MinIOUseSSL     bool
	MinIOURLExpiry  time.Duration

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	TTSBaseURL string
	TTSAPIKey  string

	SieveBaseURL string
	SieveAPIKey  string

	FFmpegPath string

	GeoIPDBPath string

	WorkerConcurrency int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	AllowedOrigins   []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		APIBaseURL:        getEnv("API_BASE_URL", "http://localhost:8080"),
		PersonasPath:      getEnv("PERSONAS_PATH", "data/personas.json"),
		StoragePath:       getEnv("STORAGE_PATH", "./storage"),
		MinIOEndpoint:     os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKey:    os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey:    os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:       getEnv("MINIO_BUCKET", "celebxplain"),
		MinIOUseSSL:       getEnvBool("MINIO_USE_SSL", false),
		MinIOURLExpiry:    time.Hour * time.Duration(getEnvInt("MINIO_URL_EXPIRY_HOURS", 24)),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		TTSBaseURL:        os.Getenv("TTS_BASE_URL"),
		TTSAPIKey:         os.Getenv("TTS_API_KEY"),
		SieveBaseURL:      getEnv("SIEVE_BASE_URL", "https://mango.sievedata.com/v2"),
		SieveAPIKey:       os.Getenv("SIEVE_API_KEY"),
		FFmpegPath:        getEnv("FFMPEG_PATH", "ffmpeg"),
		GeoIPDBPath:       os.Getenv("GEOIP_DB_PATH"),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 5),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		AllowedOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

// UseMinIO reports whether object storage is configured; otherwise the local
// filesystem store is used.
func (c *Config) UseMinIO() bool {
	return c.MinIOEndpoint != "" && c.MinIOAccessKey != "" && c.MinIOSecretKey != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
