package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	// Ledger behavior
	DefaultCurrency string
	RebuildInterval time.Duration

	// Exchange rate provider
	RateProviderURL  string
	RateFetchTimeout time.Duration
	RateFreshness    time.Duration

	// HTTP surface
	RateLimitPerMinute int64
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("DEFAULT_CURRENCY", "USD")
	viper.SetDefault("REBUILD_INTERVAL", "30s")
	viper.SetDefault("RATE_PROVIDER_URL", "https://open.er-api.com/v6/latest")
	viper.SetDefault("RATE_FETCH_TIMEOUT", "10s")
	viper.SetDefault("RATE_FRESHNESS", "24h")
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 300)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"})

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.DefaultCurrency = viper.GetString("DEFAULT_CURRENCY")
	cfg.RebuildInterval = parseDurationOr("REBUILD_INTERVAL", 30*time.Second)

	cfg.RateProviderURL = viper.GetString("RATE_PROVIDER_URL")
	cfg.RateFetchTimeout = parseDurationOr("RATE_FETCH_TIMEOUT", 10*time.Second)
	cfg.RateFreshness = parseDurationOr("RATE_FRESHNESS", 24*time.Hour)

	cfg.RateLimitPerMinute = viper.GetInt64("RATE_LIMIT_PER_MINUTE")
	cfg.CORSAllowedOrigins = viper.GetStringSlice("CORS_ALLOWED_ORIGINS")

	return cfg, nil
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}
