package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"avatar_bot/internal/bot"
	"avatar_bot/internal/config"
	"avatar_bot/internal/db"
	"avatar_bot/internal/domain"
	httpServer "avatar_bot/internal/http"
	"avatar_bot/internal/http/handlers"
	"avatar_bot/internal/http/middleware"
	"avatar_bot/internal/jobs"
	"avatar_bot/internal/logger"
	"avatar_bot/internal/repository"
	"avatar_bot/internal/service"
	"avatar_bot/internal/ws"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open store", "error", err)
	}
	defer st.Close()
	store, auditStore, pool := st.accounts, st.audit, st.pool

	var tg *tgbotapi.BotAPI
	if cfg.BotToken != "" && (cfg.NotifyEnabled || cfg.AdminBotEnabled) {
		api, err := tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			if cfg.AdminBotEnabled {
				logger.Fatal("telegram bot api", "error", err)
			}
			logger.Error("telegram bot api unavailable, notifications disabled", "error", err)
		} else {
			tg = api
		}
	}

	hub := ws.NewHub()
	notifiers := service.MultiNotifier{hub}

	// River client is built after the services it drives; the queue notifier
	// only needs it once events start flowing.
	var jobClient *river.Client[pgx.Tx]
	if tg != nil && cfg.NotifyEnabled {
		if cfg.JobsEnabled {
			notifiers = append(notifiers, jobs.NewQueueNotifier(
				func(ctx context.Context, args jobs.NotifyArgs) error {
					if jobClient == nil {
						return errors.New("job client not started")
					}
					return jobs.InsertNotify(jobClient)(ctx, args)
				},
				domain.EventReferralSignup, domain.EventReferralBonus,
			))
		} else {
			notifiers = append(notifiers, bot.NewTelegramNotifier(tg))
		}
	}

	clock := service.Clock(service.SystemClock)
	accounts := service.NewAccountService(store, clock)
	quota := service.NewQuotaService(store, clock)
	balance := service.NewBalanceService(store, notifiers, clock)
	referrals := service.NewReferralService(store, notifiers, clock)
	charge := service.NewChargeService(quota, balance, referrals, cfg.Prices)
	audit := service.NewAuditService(auditStore, clock)

	if cfg.JobsEnabled {
		if err := jobs.Migrate(ctx, pool); err != nil {
			logger.Fatal("river migrations", "error", err)
		}
		var telegramOut service.Notifier = service.NopNotifier{}
		if tg != nil {
			telegramOut = bot.NewTelegramNotifier(tg)
		}
		client, err := jobs.NewClient(pool, jobs.Config{Sweeper: quota, Notifier: telegramOut})
		if err != nil {
			logger.Fatal("job client", "error", err)
		}
		if err := client.Start(ctx); err != nil {
			logger.Fatal("start job client", "error", err)
		}
		jobClient = client
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := client.Stop(stopCtx); err != nil {
				logger.Error("job client stop", "error", err)
			}
		}()
	}

	if cfg.AdminBotEnabled && tg != nil {
		admin := bot.NewAdminBot(tg, bot.Ledger{
			Accounts:  accounts,
			Quota:     quota,
			Balance:   balance,
			Referrals: referrals,
			Audit:     audit,
		}, cfg.AdminTelegramIDs)
		go admin.Start()
		defer admin.Stop()
	}

	h := &handlers.Handler{
		Accounts:    accounts,
		Quota:       quota,
		Balance:     balance,
		Referrals:   referrals,
		Charge:      charge,
		Tokens:      service.NewTokenIssuer(cfg.JWTSecret, 24*time.Hour),
		Audit:       audit,
		BotToken:    cfg.BotToken,
		BotUsername: cfg.BotUsername,
	}
	checks := map[string]handlers.Check{"store": accounts.Ping}

	rdb := middleware.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if rdb != nil {
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	health := handlers.NewHealthHandler(version, "store", checks)

	srv := &http.Server{
		Addr: ":" + cfg.AppPort,
		Handler: httpServer.NewRouter(h, health, hub, httpServer.Options{
			ServiceAPIKey:  cfg.ServiceAPIKey,
			AllowedOrigins: cfg.AllowedOrigins,
			Redis:          rdb,
			RateLimit:      cfg.APIRateLimit,
			RateWindow:     cfg.APIRateWindow,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "store", cfg.StoreDriver, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hub.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	logger.Info("server exited")
}

type stores struct {
	accounts service.AccountStore
	audit    service.AuditStore
	pool     *pgxpool.Pool // nil for the memory driver
}

func (s stores) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// openStores picks the account and audit stores for cfg.StoreDriver.
func openStores(ctx context.Context, cfg *config.Config) (stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using in-memory store, data is lost on restart")
		return stores{
			accounts: repository.NewMemoryAccountRepository(cfg.FreeDailyAllotment),
			audit:    repository.NewMemoryAuditRepository(),
		}, nil
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return stores{}, err
	}
	return stores{
		accounts: repository.NewAccountRepository(pool, repository.Options{
			DailyAllotment: cfg.FreeDailyAllotment,
			SettleAttempts: cfg.SettleMaxAttempts,
			OpTimeout:      cfg.DBOpTimeout,
		}),
		audit: repository.NewAuditRepository(pool),
		pool:  pool,
	}, nil
}
