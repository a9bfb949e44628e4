package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	AdminAPIKey        string
	CORSAllowedOrigins []string

	CurrencyCode    string
	PricingTaxBps   int
	DeliveryFees    map[string]int64
	DefaultDelivery int64

	CartTTL           time.Duration
	IdempotencyTTL    time.Duration
	CatalogCacheTTL   time.Duration
	SalesCacheTTL     time.Duration
	CatalogPageSize   int
	CatalogMaxLimit   int
	RateLimitPeriod   time.Duration
	RateLimitMax      int64
	BackupDir         string
	BackupLockTTL     time.Duration
	WorkerConcurrency int
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		AdminAPIKey:        strings.TrimSpace(k.String("ADMIN_API_KEY")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		CurrencyCode:    valueOrDefault(k.String("CURRENCY_CODE"), "TZS"),
		PricingTaxBps:   parseInt(k.String("PRICING_TAX_RATE_BPS"), 1600),
		DefaultDelivery: parseInt64(k.String("DELIVERY_DEFAULT_FEE"), 500),
		DeliveryFees: map[string]int64{
			"local_transport": parseInt64(k.String("DELIVERY_FEE_LOCAL_TRANSPORT"), 500),
			"air_cargo":       parseInt64(k.String("DELIVERY_FEE_AIR_CARGO"), 500),
			"bus_cargo":       parseInt64(k.String("DELIVERY_FEE_BUS_CARGO"), 500),
		},

		CartTTL:           parseDuration(k.String("CART_TTL"), "168h"),
		IdempotencyTTL:    parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		CatalogCacheTTL:   parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		SalesCacheTTL:     parseDuration(k.String("SALES_CACHE_TTL"), "1m"),
		CatalogPageSize:   parseInt(k.String("CATALOG_PAGE_SIZE"), 20),
		CatalogMaxLimit:   parseInt(k.String("CATALOG_MAX_LIMIT"), 100),
		RateLimitPeriod:   parseDuration(k.String("RATE_LIMIT_PERIOD"), "1m"),
		RateLimitMax:      parseInt64(k.String("RATE_LIMIT_MAX"), 300),
		BackupDir:         valueOrDefault(k.String("BACKUP_DIR"), "./backups"),
		BackupLockTTL:     parseDuration(k.String("BACKUP_LOCK_TTL"), "10m"),
		WorkerConcurrency: parseInt(k.String("WORKER_CONCURRENCY"), 4),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseInt64(value string, fallback int64) int64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
