package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"avatar_bot/internal/domain"
	"avatar_bot/internal/logger"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	AppPort     string
	StoreDriver string
	DatabaseURL string
	DBOpTimeout time.Duration

	BotToken       string
	BotUsername    string
	JWTSecret      string
	ServiceAPIKey  string
	AllowedOrigins []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	APIRateLimit  int
	APIRateWindow time.Duration

	// Ledger
	FreeDailyAllotment int
	Prices             map[domain.Mode]int64
	SettleMaxAttempts  int

	NotifyEnabled    bool
	JobsEnabled      bool
	AdminBotEnabled  bool
	AdminTelegramIDs []int64 // tg id админов бота, через запятую в env

	LogLevel  string
	LogFormat string
}

// Load reads .env (if present) and the process environment. Missing required
// values are fatal.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := Parse(os.Getenv)
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

// Parse builds a Config from getenv. It never reads the environment directly.
func Parse(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		AppPort:            withDefault(getenv("APP_PORT"), "8080"),
		StoreDriver:        strings.ToLower(withDefault(getenv("STORE_DRIVER"), StoreDriverPostgres)),
		DatabaseURL:        getenv("DATABASE_URL"),
		DBOpTimeout:        time.Duration(positiveInt(getenv("DB_OP_TIMEOUT_MS"), 5000)) * time.Millisecond,
		BotToken:           getenv("BOT_TOKEN"),
		BotUsername:        strings.TrimPrefix(getenv("BOT_USERNAME"), "@"),
		JWTSecret:          getenv("JWT_SECRET"),
		ServiceAPIKey:      getenv("SERVICE_API_KEY"),
		AllowedOrigins:     splitList(getenv("ALLOWED_ORIGINS")),
		RedisAddr:          getenv("REDIS_ADDR"),
		RedisPassword:      getenv("REDIS_PASSWORD"),
		RedisDB:            nonNegativeInt(getenv("REDIS_DB"), 0),
		APIRateLimit:       positiveInt(getenv("API_RATE_LIMIT"), 120),
		APIRateWindow:      time.Duration(positiveInt(getenv("API_RATE_WINDOW_SECONDS"), 60)) * time.Second,
		FreeDailyAllotment: positiveInt(getenv("FREE_DAILY_ALLOTMENT"), 1),
		SettleMaxAttempts:  positiveInt(getenv("SETTLE_MAX_ATTEMPTS"), 3),
		NotifyEnabled:      getenv("NOTIFY_ENABLED") != "false",
		JobsEnabled:        getenv("JOBS_ENABLED") == "true",
		AdminBotEnabled:    getenv("ADMIN_BOT_ENABLED") == "true",
		LogLevel:           withDefault(getenv("LOG_LEVEL"), "info"),
		LogFormat:          withDefault(getenv("LOG_FORMAT"), "text"),
	}

	cfg.Prices = map[domain.Mode]int64{
		domain.ModeStylize:  int64(positiveInt(getenv("PRICE_STYLIZE"), int(domain.DefaultPrices[domain.ModeStylize]))),
		domain.ModeRemoveBg: int64(positiveInt(getenv("PRICE_REMOVE_BG"), int(domain.DefaultPrices[domain.ModeRemoveBg]))),
		domain.ModeEnhance:  int64(positiveInt(getenv("PRICE_ENHANCE"), int(domain.DefaultPrices[domain.ModeEnhance]))),
	}

	for _, idStr := range splitList(getenv("ADMIN_TELEGRAM_IDS")) {
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
			cfg.AdminTelegramIDs = append(cfg.AdminTelegramIDs, id)
		}
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is not set")
		}
	case StoreDriverMemory:
		if cfg.JobsEnabled {
			return nil, errors.New("JOBS_ENABLED requires STORE_DRIVER=postgres")
		}
	default:
		return nil, errors.New("STORE_DRIVER must be postgres or memory")
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	if cfg.ServiceAPIKey == "" {
		return nil, errors.New("SERVICE_API_KEY is not set")
	}
	if cfg.AdminBotEnabled && cfg.BotToken == "" {
		return nil, errors.New("ADMIN_BOT_ENABLED requires BOT_TOKEN")
	}

	return cfg, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func positiveInt(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func nonNegativeInt(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return def
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
