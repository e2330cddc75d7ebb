package main

import (
	"context"
	"flag"
	"os"
	"time"

	"avatar_bot/internal/db"
	"avatar_bot/internal/logger"
	"avatar_bot/internal/repository"
	"avatar_bot/internal/service"

	"github.com/joho/godotenv"
)

// Creates (or reuses) a ledger account, optionally tops it up and links a
// referrer, then prints a mini app token for it.
func main() {
	id := flag.Int64("id", 1234567890, "telegram user id")
	stars := flag.Int64("stars", 0, "stars to credit")
	referrer := flag.Int64("referrer", 0, "referrer telegram id")
	flag.Parse()

	_ = godotenv.Load()
	logger.Init("info", "text")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Fatal("JWT_SECRET not set")
	}

	ctx := context.Background()
	pool := db.MustConnect(ctx, dsn)
	defer pool.Close()

	store := repository.NewAccountRepository(pool, repository.Options{OpTimeout: 5 * time.Second})
	clock := service.Clock(service.SystemClock)
	accounts := service.NewAccountService(store, clock)
	balance := service.NewBalanceService(store, service.NopNotifier{}, clock)
	referrals := service.NewReferralService(store, service.NopNotifier{}, clock)

	acc, err := accounts.GetOrCreate(ctx, *id)
	if err != nil {
		logger.Fatal("get or create account", "error", err)
	}

	if *referrer != 0 {
		res, err := referrals.Attribute(ctx, *id, *referrer)
		if err != nil {
			logger.Fatal("attribute referrer", "error", err)
		}
		logger.Info("referrer", "referrer_id", *referrer, "applied", res.Applied)
	}
	if *stars > 0 {
		if _, err := balance.Credit(ctx, *id, *stars); err != nil {
			logger.Fatal("credit", "error", err)
		}
	}

	acc, err = accounts.Get(ctx, acc.ID)
	if err != nil {
		logger.Fatal("get account", "error", err)
	}
	logger.Info("account ready",
		"id", acc.ID,
		"star_balance", acc.StarBalance,
		"free_stylize", acc.FreeStylize,
		"free_remove_bg", acc.FreeRemoveBg,
		"free_enhance", acc.FreeEnhance,
		"referrer", acc.Referrer(),
	)

	token, err := service.NewTokenIssuer(secret, 24*time.Hour).Generate(acc.ID)
	if err != nil {
		logger.Fatal("generate token", "error", err)
	}
	logger.Info("token", "token", token)
}
