package config

import (
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GO_ENV", "test")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/marketpulse_test")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Worker.Interval != time.Minute {
		t.Errorf("interval = %v, want 1m", cfg.Worker.Interval)
	}
	if cfg.Alerts.Cooldown != 30*time.Minute {
		t.Errorf("cooldown = %v, want 30m", cfg.Alerts.Cooldown)
	}
	if cfg.Alerts.MinLiquidityUSD != 1000 {
		t.Errorf("min liquidity = %v", cfg.Alerts.MinLiquidityUSD)
	}
	if cfg.Alerts.MaxSpreadPP != 10 {
		t.Errorf("max spread = %v", cfg.Alerts.MaxSpreadPP)
	}
	if cfg.Providers.OpinionEnabled {
		t.Error("opinion should default to disabled")
	}
	if cfg.Telegram.Mode != "bot" {
		t.Errorf("telegram mode = %q, want bot", cfg.Telegram.Mode)
	}
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("WORKER_INTERVAL_MS", "30000")
	t.Setenv("ALERT_COOLDOWN_MINUTES", "45")
	t.Setenv("ENABLE_OPINION", "true")
	t.Setenv("TELEGRAM_MODE", "USER")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Worker.Interval != 30*time.Second {
		t.Errorf("interval = %v, want 30s", cfg.Worker.Interval)
	}
	if cfg.Alerts.Cooldown != 45*time.Minute {
		t.Errorf("cooldown = %v, want 45m", cfg.Alerts.Cooldown)
	}
	if !cfg.Providers.OpinionEnabled {
		t.Error("opinion should be enabled")
	}
	if cfg.Telegram.Mode != "user" {
		t.Errorf("telegram mode = %q, want user (lowercased)", cfg.Telegram.Mode)
	}
}

func TestTelegramConfigured(t *testing.T) {
	bot := TelegramConfig{Mode: "bot", BotToken: "123:abc", ChatID: "-100123"}
	if !bot.Configured() {
		t.Error("bot config should be configured")
	}

	bot.BotToken = ""
	if bot.Configured() {
		t.Error("bot without token should not be configured")
	}

	user := TelegramConfig{Mode: "user", UserAPIURL: "http://localhost:9000", ChatID: "-100123"}
	if !user.Configured() {
		t.Error("user config should be configured")
	}

	user.UserAPIURL = ""
	if user.Configured() {
		t.Error("user without gateway URL should not be configured")
	}
}

func TestSanitizeCredential(t *testing.T) {
	if got := sanitizeCredential(`  "secret-token"  `); got != "secret-token" {
		t.Errorf("got %q", got)
	}
}
