package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tradingSignalBot/internal/adapters/logger"
	"tradingSignalBot/internal/domain"
)

// Market selects which Binance kline API backs the signal service.
type Market string

const (
	MarketSpot    Market = "spot"
	MarketFutures Market = "futures"
)

// PublishSource selects what the live publisher sends on each tick.
type PublishSource string

const (
	SourceLive   PublishSource = "live"
	SourceRandom PublishSource = "random"
)

// Config holds all application configuration.
type Config struct {
	// Binance API. Klines are public, so keys are optional.
	APIKey    string
	SecretKey string
	IsTestnet bool
	Market    Market

	// HTTP server
	HTTPAddr string

	// Signal query
	DefaultSymbol   string
	DefaultInterval domain.Interval
	CandleLimit     int
	UpstreamTimeout time.Duration

	// Live publisher
	PublishInterval time.Duration
	PublishSource   PublishSource

	// Logging
	LogLevel logger.LogLevel
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string

	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", getEnv("BINANCE_SECRET_KEY", ""))
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", false)

	cfg.Market = Market(strings.ToLower(getEnv("BINANCE_MARKET", string(MarketSpot))))
	if cfg.Market != MarketSpot && cfg.Market != MarketFutures {
		errs = append(errs, fmt.Sprintf("BINANCE_MARKET must be %q or %q", MarketSpot, MarketFutures))
	}

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":3000")

	cfg.DefaultSymbol = strings.ToUpper(getEnv("DEFAULT_SYMBOL", "BTCUSDT"))
	cfg.DefaultInterval = domain.Interval(getEnv("DEFAULT_INTERVAL", string(domain.Interval1h)))
	if !cfg.DefaultInterval.IsValid() {
		errs = append(errs, fmt.Sprintf("DEFAULT_INTERVAL %q is not one of %v", cfg.DefaultInterval, domain.SupportedIntervals()))
	}

	cfg.CandleLimit, err = getEnvAsIntRequired("CANDLE_LIMIT", 50)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid CANDLE_LIMIT: %v", err))
	} else if cfg.CandleLimit <= 0 || cfg.CandleLimit > 1000 {
		errs = append(errs, "CANDLE_LIMIT must be between 1 and 1000")
	}

	upstreamTimeoutSeconds, err := getEnvAsIntRequired("UPSTREAM_TIMEOUT_SECONDS", 10)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid UPSTREAM_TIMEOUT_SECONDS: %v", err))
	} else if upstreamTimeoutSeconds <= 0 {
		errs = append(errs, "UPSTREAM_TIMEOUT_SECONDS must be positive")
	}
	cfg.UpstreamTimeout = time.Duration(upstreamTimeoutSeconds) * time.Second

	publishSeconds, err := getEnvAsIntRequired("PUBLISH_INTERVAL_SECONDS", 5)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid PUBLISH_INTERVAL_SECONDS: %v", err))
	} else if publishSeconds <= 0 {
		errs = append(errs, "PUBLISH_INTERVAL_SECONDS must be positive")
	}
	cfg.PublishInterval = time.Duration(publishSeconds) * time.Second

	cfg.PublishSource = PublishSource(strings.ToLower(getEnv("PUBLISH_SOURCE", string(SourceLive))))
	if cfg.PublishSource != SourceLive && cfg.PublishSource != SourceRandom {
		errs = append(errs, fmt.Sprintf("PUBLISH_SOURCE must be %q or %q", SourceLive, SourceRandom))
	}

	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
