package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from the environment.
type Config struct {
	AppEnv   string
	LogLevel string

	HTTPListenAddr   string
	PublicBasePath   string
	MetricsNamespace string

	// Storage. Driver is "postgres" or "sqlite".
	DatabaseDriver string
	DatabaseURL    string
	SQLitePath     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTLS      bool

	EtsyBaseURL      string
	EtsyClientID     string
	EtsyClientSecret string
	EtsyRedirectURI  string
	EtsyTimeout      time.Duration
	ListingCacheTTL  time.Duration

	OpenAIBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAITimeout time.Duration

	SyncReceiptLimit int
	StatsCacheTTL    time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPListenAddr:   getEnv("HTTP_LISTEN_ADDR", ":8080"),
		PublicBasePath:   getEnv("PUBLIC_BASE_PATH", ""),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "esamind"),

		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", "postgres")),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SQLitePath:     getEnv("SQLITE_PATH", "data/esamind.db"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		EtsyBaseURL:      getEnv("ETSY_BASE_URL", "https://api.etsy.com/v3"),
		EtsyClientID:     os.Getenv("ETSY_CLIENT_ID"),
		EtsyClientSecret: os.Getenv("ETSY_CLIENT_SECRET"),
		EtsyRedirectURI:  os.Getenv("ETSY_REDIRECT_URI"),

		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o"),
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RedisTLS, err = getEnvBool("REDIS_TLS", false); err != nil {
		return nil, err
	}
	if cfg.EtsyTimeout, err = getEnvDuration("ETSY_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.ListingCacheTTL, err = getEnvDuration("LISTING_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.OpenAITimeout, err = getEnvDuration("OPENAI_TIMEOUT", 120*time.Second); err != nil {
		return nil, err
	}
	if cfg.SyncReceiptLimit, err = getEnvInt("SYNC_RECEIPT_LIMIT", 100); err != nil {
		return nil, err
	}
	if cfg.StatsCacheTTL, err = getEnvDuration("STATS_CACHE_TTL", time.Minute); err != nil {
		return nil, err
	}

	switch cfg.DatabaseDriver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER=postgres")
		}
	case "sqlite":
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("SQLITE_PATH is required when DATABASE_DRIVER=sqlite")
		}
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if cfg.EtsyClientID == "" {
		return nil, fmt.Errorf("ETSY_CLIENT_ID is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}
