package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"avatar_bot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `id, star_balance, free_stylize, free_remove_bg, free_enhance, quota_reset_date,
	referred_by, ref_bonus_given, ref_earnings, ref_paid_count, created_at`

// Options tune AccountRepository.
type Options struct {
	// DailyAllotment is the per-mode free quota after a reset.
	DailyAllotment int
	// SettleAttempts bounds retries of a settlement that hit a
	// serialization failure or deadlock.
	SettleAttempts int
	// OpTimeout caps every operation; zero means caller's context only.
	OpTimeout time.Duration
}

// AccountRepository is the Postgres account store.
type AccountRepository struct {
	db   *pgxpool.Pool
	opts Options
}

func NewAccountRepository(db *pgxpool.Pool, opts Options) *AccountRepository {
	if opts.DailyAllotment <= 0 {
		opts.DailyAllotment = 1
	}
	if opts.SettleAttempts <= 0 {
		opts.SettleAttempts = 1
	}
	return &AccountRepository{db: db, opts: opts}
}

func (r *AccountRepository) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opts.OpTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.opts.OpTimeout)
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	if err := row.Scan(
		&a.ID,
		&a.StarBalance,
		&a.FreeStylize,
		&a.FreeRemoveBg,
		&a.FreeEnhance,
		&a.QuotaResetDate,
		&a.ReferredBy,
		&a.RefBonusGiven,
		&a.RefEarnings,
		&a.RefPaidCount,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}
	a.QuotaResetDate = domain.DateOf(a.QuotaResetDate)
	return &a, nil
}

func (r *AccountRepository) GetOrCreate(ctx context.Context, id int64, now time.Time) (*domain.Account, bool, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	// Новый аккаунт: все бесплатные генерации на сегодня доступны
	tag, err := r.db.Exec(ctx,
		`INSERT INTO accounts (id, free_stylize, free_remove_bg, free_enhance, quota_reset_date, created_at)
		 VALUES ($1, $2, $2, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		id, r.opts.DailyAllotment, domain.DateOf(now), now,
	)
	if err != nil {
		return nil, false, fmt.Errorf("create account %d: %w", id, mapErr(err))
	}

	acc, err := scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		return nil, false, fmt.Errorf("get account %d: %w", id, mapErr(err))
	}
	return acc, tag.RowsAffected() == 1, nil
}

func (r *AccountRepository) Get(ctx context.Context, id int64) (*domain.Account, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	acc, err := scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get account %d: %w", id, mapErr(err))
	}
	return acc, nil
}

func (r *AccountRepository) ResetQuotaIfStale(ctx context.Context, id int64, today time.Time) (bool, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx,
		`UPDATE accounts
		 SET free_stylize = $3, free_remove_bg = $3, free_enhance = $3, quota_reset_date = $2
		 WHERE id = $1 AND quota_reset_date < $2`,
		id, domain.DateOf(today), r.opts.DailyAllotment,
	)
	if err != nil {
		return false, fmt.Errorf("reset quota %d: %w", id, mapErr(err))
	}
	return tag.RowsAffected() == 1, nil
}

func (r *AccountRepository) ResetAllStaleQuotas(ctx context.Context, today time.Time) (int64, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx,
		`UPDATE accounts
		 SET free_stylize = $2, free_remove_bg = $2, free_enhance = $2, quota_reset_date = $1
		 WHERE quota_reset_date < $1`,
		domain.DateOf(today), r.opts.DailyAllotment,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stale quotas: %w", mapErr(err))
	}
	return tag.RowsAffected(), nil
}

func (r *AccountRepository) DecrementFree(ctx context.Context, id int64, mode domain.Mode) (int, bool, error) {
	if !mode.Valid() {
		return 0, false, domain.ErrInvalidMode
	}
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	col := mode.Column()
	var remaining int
	err := r.db.QueryRow(ctx,
		fmt.Sprintf(`UPDATE accounts SET %[1]s = %[1]s - 1 WHERE id = $1 AND %[1]s > 0 RETURNING %[1]s`, col),
		id,
	).Scan(&remaining)
	if err == nil {
		return remaining, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, fmt.Errorf("consume %s %d: %w", mode, id, mapErr(err))
	}

	// Not granted: report the current counter (or NotFound)
	err = r.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM accounts WHERE id = $1`, col), id).Scan(&remaining)
	if err != nil {
		return 0, false, fmt.Errorf("consume %s %d: %w", mode, id, mapErr(err))
	}
	return remaining, false, nil
}

func (r *AccountRepository) Debit(ctx context.Context, id, amount int64) (int64, bool, error) {
	if amount <= 0 {
		return 0, false, domain.ErrInvalidAmount
	}
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	var balance int64
	err := r.db.QueryRow(ctx,
		`UPDATE accounts SET star_balance = star_balance - $2
		 WHERE id = $1 AND star_balance >= $2
		 RETURNING star_balance`,
		id, amount,
	).Scan(&balance)
	if err == nil {
		return balance, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, fmt.Errorf("debit %d: %w", id, mapErr(err))
	}

	// Could be not found or insufficient funds, check which
	err = r.db.QueryRow(ctx, `SELECT star_balance FROM accounts WHERE id = $1`, id).Scan(&balance)
	if err != nil {
		return 0, false, fmt.Errorf("debit %d: %w", id, mapErr(err))
	}
	return balance, false, nil
}

func (r *AccountRepository) Credit(ctx context.Context, id, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	var balance int64
	err := r.db.QueryRow(ctx,
		`UPDATE accounts SET star_balance = star_balance + $2 WHERE id = $1 RETURNING star_balance`,
		id, amount,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("credit %d: %w", id, mapErr(err))
	}
	return balance, nil
}

func (r *AccountRepository) Ping(ctx context.Context) error {
	return mapErr(r.db.Ping(ctx))
}
