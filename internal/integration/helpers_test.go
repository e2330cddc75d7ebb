package integration

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"avatar_bot/internal/db"
	"avatar_bot/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

var idSeq atomic.Int64

func init() {
	idSeq.Store(time.Now().UnixMicro())
}

// nextID returns an account id unique to this run, so tests can share a
// database without truncating it.
func nextID() int64 {
	return idSeq.Add(1)
}

func openPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.ApplyMigrations(ctx, pool, filepath.Join("..", "migrations")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return pool
}

func newRepo(t *testing.T, pool *pgxpool.Pool) *repository.AccountRepository {
	t.Helper()
	return repository.NewAccountRepository(pool, repository.Options{
		DailyAllotment: 1,
		SettleAttempts: 10,
		OpTimeout:      5 * time.Second,
	})
}

func cleanup(t *testing.T, pool *pgxpool.Pool, ids ...int64) {
	t.Helper()
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM accounts WHERE id = ANY($1)`, ids)
	})
}
