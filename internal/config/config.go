/**
 * @description
 * Configuration loader for the MarketPulse backend.
 * Responsible for reading environment variables, setting defaults, and performing strict validation.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - standard "os": For reading env vars
 *
 * @notes
 * - Fails fast if DATABASE_URL is missing.
 * - Optional providers and the Telegram transport degrade to disabled when
 *   their credentials are absent instead of blocking startup.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Redis     RedisConfig
	Worker    WorkerConfig
	Alerts    AlertConfig
	Telegram  TelegramConfig
	Providers ProvidersConfig
	Signals   SignalsConfig
	Model     ModelConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
	Env  string // "development" or "production"
}

// DBConfig holds PostgreSQL settings
type DBConfig struct {
	URL string
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	URL string
}

// WorkerConfig holds pipeline loop settings
type WorkerConfig struct {
	Interval time.Duration
}

// AlertConfig holds alert selection and cooldown settings
type AlertConfig struct {
	MinLiquidityUSD float64
	MaxSpreadPP     float64
	Cooldown        time.Duration
}

// TelegramConfig holds chat transport settings.
// Mode selects between the Bot API transport and a user-session gateway.
type TelegramConfig struct {
	Mode       string // "bot" or "user"
	BotToken   string
	ChatID     string
	UserAPIURL string
}

// ProvidersConfig holds provider endpoints and feature flags
type ProvidersConfig struct {
	PolymarketGammaURL string
	PolymarketClobURL  string
	KalshiBaseURL      string
	OpinionEnabled     bool
	OpinionBaseURL     string
	OpinionAPIKey      string
}

// SignalsConfig holds the spot-price source settings
type SignalsConfig struct {
	SpotBaseURL string
}

// ModelConfig holds the anchor classifier artifact settings
type ModelConfig struct {
	Path           string
	ReloadInterval time.Duration
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (prod injects env vars directly)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		DB: DBConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Worker: WorkerConfig{
			Interval: time.Duration(getEnvAsInt("WORKER_INTERVAL_MS", 60000)) * time.Millisecond,
		},
		Alerts: AlertConfig{
			MinLiquidityUSD: getEnvAsFloat("ALERT_MIN_LIQUIDITY_USD", 1000),
			MaxSpreadPP:     getEnvAsFloat("ALERT_MAX_SPREAD_PP", 10),
			Cooldown:        time.Duration(getEnvAsInt("ALERT_COOLDOWN_MINUTES", 30)) * time.Minute,
		},
		Telegram: TelegramConfig{
			Mode:       strings.ToLower(getEnv("TELEGRAM_MODE", "bot")),
			BotToken:   sanitizeCredential(getEnv("TELEGRAM_BOT_TOKEN", "")),
			ChatID:     sanitizeCredential(getEnv("TELEGRAM_CHAT_ID", "")),
			UserAPIURL: getEnv("TELEGRAM_USER_API_URL", ""),
		},
		Providers: ProvidersConfig{
			PolymarketGammaURL: getEnv("POLYMARKET_GAMMA_URL", "https://gamma-api.polymarket.com"),
			PolymarketClobURL:  getEnv("POLYMARKET_CLOB_URL", "https://clob.polymarket.com"),
			KalshiBaseURL:      getEnv("KALSHI_BASE_URL", "https://api.elections.kalshi.com/trade-api/v2"),
			OpinionEnabled:     getEnvAsBool("ENABLE_OPINION", false),
			OpinionBaseURL:     getEnv("OPINION_BASE_URL", "https://openapi.opinionlabs.xyz"),
			OpinionAPIKey:      sanitizeCredential(getEnv("OPINION_API_KEY", "")),
		},
		Signals: SignalsConfig{
			SpotBaseURL: getEnv("BINANCE_BASE_URL", "https://api.binance.com"),
		},
		Model: ModelConfig{
			Path:           getEnv("ANCHOR_MODEL_PATH", "anchor_model.json"),
			ReloadInterval: time.Duration(getEnvAsInt("ANCHOR_MODEL_RELOAD_MINUTES", 3)) * time.Minute,
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks for required variables
func validate(cfg *Config) error {
	if cfg.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Worker.Interval <= 0 {
		return fmt.Errorf("WORKER_INTERVAL_MS must be positive")
	}
	if !cfg.Telegram.Configured() && cfg.Server.Env != "test" {
		fmt.Println("Warning: Telegram transport is not configured. Alerts will be logged only.")
	}
	return nil
}

// Configured reports whether at least one Telegram transport variant is usable.
func (t TelegramConfig) Configured() bool {
	switch t.Mode {
	case "user":
		return t.UserAPIURL != "" && t.ChatID != ""
	default:
		return t.BotToken != "" && t.ChatID != ""
	}
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func sanitizeCredential(value string) string {
	trimmed := strings.TrimSpace(value)
	return strings.Trim(trimmed, "\"")
}

// Helper to get env var as int
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// Helper to get env var as float
func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return fallback
}

// Helper to get env var as bool
func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
