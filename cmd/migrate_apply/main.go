package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"avatar_bot/internal/db"
	"avatar_bot/internal/jobs"
	"avatar_bot/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	apply := flag.Bool("apply", false, "apply migrations (default: list them)")
	withRiver := flag.Bool("river", false, "also apply job queue migrations")
	dir := flag.String("dir", filepath.Join("internal", "migrations"), "migrations directory")
	flag.Parse()

	_ = godotenv.Load()
	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	if !*apply {
		files, err := db.MigrationFiles(*dir)
		if err != nil {
			logger.Fatal("list migrations", "error", err)
		}
		for _, f := range files {
			fmt.Println(filepath.Base(f))
		}
		return
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool := db.MustConnect(ctx, dsn)
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, *dir); err != nil {
		logger.Fatal("apply migrations", "error", err)
	}
	if *withRiver {
		if err := jobs.Migrate(ctx, pool); err != nil {
			logger.Fatal("apply river migrations", "error", err)
		}
		logger.Info("river migrations applied")
	}
}
