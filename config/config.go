package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Market data
	OKXBaseURL         string
	UpstreamTimeout    time.Duration
	BreakerMaxFailures int
	BreakerReset       time.Duration

	// Infrastructure
	HTTPAddr       string
	MetricsAddr    string
	RedisAddr      string // empty disables the candle cache and Redis publishing
	RedisPassword  string
	CandleCacheTTL time.Duration
	SQLitePath     string

	// Scanner
	WatchlistPath string
	ScanInterval  time.Duration

	// Alerts on recommendation changes
	AlertWebhookURL  string
	TelegramBotToken string
	TelegramChatID   string

	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		OKXBaseURL:         getEnv("OKX_BASE_URL", "https://app.okx.com"),
		UpstreamTimeout:    getSeconds("UPSTREAM_TIMEOUT_SEC", 10),
		BreakerMaxFailures: getInt("BREAKER_MAX_FAILURES", 5),
		BreakerReset:       getSeconds("BREAKER_RESET_SEC", 30),

		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		MetricsAddr:    getEnv("METRICS_ADDR", ":9090"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		CandleCacheTTL: getSeconds("CANDLE_CACHE_TTL_SEC", 15),
		SQLitePath:     getEnv("SQLITE_PATH", "data/candles.db"),

		WatchlistPath: getEnv("WATCHLIST_PATH", "config/watchlist.yaml"),
		ScanInterval:  getSeconds("SCAN_INTERVAL_SEC", 60),

		AlertWebhookURL:  os.Getenv("ALERT_WEBHOOK_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

// getInt parses a positive integer, falling back on absent or invalid input.
func getInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		log.Printf("[config] invalid %s=%q, using %d", key, s, fallback)
		return fallback
	}
	return n
}

func getSeconds(key string, fallback int) time.Duration {
	return time.Duration(getInt(key, fallback)) * time.Second
}
