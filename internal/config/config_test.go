package config

import (
	"testing"
	"time"

	"avatar_bot/internal/domain"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(env(map[string]string{
		"DATABASE_URL":    "postgres://localhost/avatar",
		"JWT_SECRET":      "secret",
		"SERVICE_API_KEY": "key",
	}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.AppPort != "8080" || cfg.StoreDriver != StoreDriverPostgres {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.FreeDailyAllotment != 1 || cfg.SettleMaxAttempts != 3 {
		t.Fatalf("unexpected ledger defaults: %+v", cfg)
	}
	if cfg.DBOpTimeout != 5*time.Second || cfg.APIRateWindow != time.Minute {
		t.Fatalf("unexpected durations: %v %v", cfg.DBOpTimeout, cfg.APIRateWindow)
	}
	if !cfg.NotifyEnabled || cfg.JobsEnabled || cfg.AdminBotEnabled {
		t.Fatalf("unexpected flags: %+v", cfg)
	}
	for _, m := range domain.Modes {
		if cfg.Prices[m] != domain.DefaultPrices[m] {
			t.Errorf("price %s = %d", m, cfg.Prices[m])
		}
	}
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse(env(map[string]string{
		"STORE_DRIVER":       "memory",
		"JWT_SECRET":         "secret",
		"SERVICE_API_KEY":    "key",
		"BOT_USERNAME":       "@avatar_bot",
		"PRICE_ENHANCE":      "12",
		"PRICE_STYLIZE":      "-1",
		"ADMIN_TELEGRAM_IDS": "1, 2,x,3",
		"ALLOWED_ORIGINS":    "https://a.example, https://b.example",
		"REDIS_DB":           "2",
		"NOTIFY_ENABLED":     "false",
	}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.BotUsername != "avatar_bot" {
		t.Errorf("bot username = %q", cfg.BotUsername)
	}
	if cfg.Prices[domain.ModeEnhance] != 12 || cfg.Prices[domain.ModeStylize] != 5 {
		t.Errorf("prices = %v", cfg.Prices)
	}
	if len(cfg.AdminTelegramIDs) != 3 || cfg.AdminTelegramIDs[2] != 3 {
		t.Errorf("admin ids = %v", cfg.AdminTelegramIDs)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.RedisDB != 2 || cfg.NotifyEnabled {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestParseRejectsMissingValues(t *testing.T) {
	cases := []map[string]string{
		{"JWT_SECRET": "s", "SERVICE_API_KEY": "k"},
		{"DATABASE_URL": "postgres://x", "SERVICE_API_KEY": "k"},
		{"DATABASE_URL": "postgres://x", "JWT_SECRET": "s"},
		{"STORE_DRIVER": "mongo", "JWT_SECRET": "s", "SERVICE_API_KEY": "k"},
		{"STORE_DRIVER": "memory", "JOBS_ENABLED": "true", "JWT_SECRET": "s", "SERVICE_API_KEY": "k"},
		{"DATABASE_URL": "postgres://x", "JWT_SECRET": "s", "SERVICE_API_KEY": "k", "ADMIN_BOT_ENABLED": "true"},
	}
	for i, c := range cases {
		if _, err := Parse(env(c)); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}
