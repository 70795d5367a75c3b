package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port              int
	DatabasePath      string
	HistoryDir        string
	QuoteCachePath    string
	ReportingCurrency string
	CacheTTL          time.Duration
	ProviderTimeout   time.Duration
	ProviderSpacing   time.Duration
	RiskFreeRate      float64
	LogLevel          string
	DevMode           bool

	// Optional nightly ledger backup to S3; disabled when bucket is empty
	BackupBucket string
	BackupPrefix string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnvAsInt("PORT", 8080),
		DatabasePath:      getEnv("DATABASE_PATH", "./data/portfolio.db"),
		HistoryDir:        getEnv("HISTORY_DIR", "./data/history"),
		QuoteCachePath:    getEnv("QUOTE_CACHE_PATH", "./data/quote_cache.msgpack"),
		ReportingCurrency: getEnv("REPORTING_CURRENCY", "USD"),
		CacheTTL:          getEnvAsDuration("PRICE_CACHE_TTL", 60*time.Second),
		ProviderTimeout:   getEnvAsDuration("PROVIDER_TIMEOUT", 10*time.Second),
		ProviderSpacing:   getEnvAsDuration("PROVIDER_SPACING", 100*time.Millisecond),
		RiskFreeRate:      getEnvAsFloat("RISK_FREE_RATE", 0.02),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		BackupBucket:      getEnv("BACKUP_S3_BUCKET", ""),
		BackupPrefix:      getEnv("BACKUP_S3_PREFIX", "ledger-backups"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and sane
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.ReportingCurrency == "" {
		return fmt.Errorf("REPORTING_CURRENCY is required")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("PRICE_CACHE_TTL must be positive")
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}
	if c.ProviderSpacing < 0 {
		return fmt.Errorf("PROVIDER_SPACING must not be negative")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
