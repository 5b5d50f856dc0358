package config

import (
	"errors"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	StoreBackend    string
	StoreDir        string
	DatabaseURL     string
	RatesURL        string
	RatesBase       string
	RatesTTL        time.Duration
	RatesRetryMax   int
	RatesRetryDelay time.Duration
	GoldURL         string
	GoldTTL         time.Duration
	GoldRetryMax    int
	GoldRetryDelay  time.Duration
	DisplayCurrency string
	RefreshInterval time.Duration
	StaleAssetAge   time.Duration
	BackupDir       string
	BackupInterval  time.Duration
	BackupKeep      int
	HTTPPort        string
	AdminAPIKey     string
	LogLevel        slog.Level
	LogFormat       string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		StoreBackend:    envOrDefaultOneOf("STORE_BACKEND", BackendFile, BackendFile, BackendPostgres, BackendMemory),
		StoreDir:        envOrDefault("STORE_DIR", "./data"),
		DatabaseURL:     envOrDefault("DATABASE_URL", ""),
		RatesURL:        envOrDefault("RATES_URL", "https://api.exchangerate-api.com/v4/latest"),
		RatesBase:       strings.ToUpper(envOrDefault("RATES_BASE", "USD")),
		RatesTTL:        envOrDefaultDuration("RATES_TTL", time.Hour),
		RatesRetryMax:   envOrDefaultInt("RATES_RETRY_MAX", 3),
		RatesRetryDelay: envOrDefaultDuration("RATES_RETRY_DELAY", 2*time.Second),
		GoldURL:         envOrDefault("GOLD_URL", "https://api.coingecko.com/api/v3"),
		GoldTTL:         envOrDefaultDuration("GOLD_TTL", 30*time.Minute),
		GoldRetryMax:    envOrDefaultInt("GOLD_RETRY_MAX", 5),
		GoldRetryDelay:  envOrDefaultDuration("GOLD_RETRY_DELAY", 6*time.Second),
		DisplayCurrency: strings.ToUpper(envOrDefault("DISPLAY_CURRENCY", "USD")),
		RefreshInterval: envOrDefaultDuration("REFRESH_INTERVAL", time.Hour),
		StaleAssetAge:   envOrDefaultDuration("STALE_ASSET_AGE", 720*time.Hour),
		BackupDir:       envOrDefault("BACKUP_DIR", ""),
		BackupInterval:  envOrDefaultDuration("BACKUP_INTERVAL", 24*time.Hour),
		BackupKeep:      envOrDefaultInt("BACKUP_KEEP", 7),
		HTTPPort:        envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey:     envOrDefault("ADMIN_API_KEY", ""),
		LogLevel:        envOrDefaultLevel("LOG_LEVEL", slog.LevelInfo),
		LogFormat:       envOrDefaultOneOf("LOG_FORMAT", "text", "text", "json"),
	}
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	if c.StoreBackend == BackendPostgres && c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for the postgres store backend")
	}
	if c.StoreBackend == BackendFile && c.StoreDir == "" {
		return errors.New("STORE_DIR is required for the file store backend")
	}
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultOneOf(key, defaultVal string, allowed ...string) string {
	v := strings.ToLower(envOrDefault(key, defaultVal))
	if !slices.Contains(allowed, v) {
		slog.Warn("invalid env var, using default", "key", key, "value", v, "allowed", allowed, "default", defaultVal)
		return defaultVal
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

func envOrDefaultLevel(key string, defaultVal slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(v)); err != nil {
			slog.Warn("invalid log level env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return level
	}
	return defaultVal
}
