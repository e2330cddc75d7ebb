package service

import (
	"context"
	"time"

	"avatar_bot/internal/domain"
)

// AccountStore is the durable per-user record. Every mutating method is a
// single conditional update (compare-and-swap on the account row), except
// SettleReferral which spans the referred and the referrer rows in one
// transaction.
type AccountStore interface {
	// GetOrCreate inserts a default account dated now if id is absent and
	// returns the stored record. created reports whether the insert happened.
	GetOrCreate(ctx context.Context, id int64, now time.Time) (acc *domain.Account, created bool, err error)
	// Get returns domain.ErrNotFound for unknown ids.
	Get(ctx context.Context, id int64) (*domain.Account, error)

	// ResetQuotaIfStale refills every free quota and stamps today, but only
	// when the stored reset date is before today.
	ResetQuotaIfStale(ctx context.Context, id int64, today time.Time) (bool, error)
	// DecrementFree takes one free use of mode if the counter is positive.
	// remaining is the counter after the call either way.
	DecrementFree(ctx context.Context, id int64, mode domain.Mode) (remaining int, ok bool, err error)
	// ResetAllStaleQuotas is ResetQuotaIfStale for every account.
	ResetAllStaleQuotas(ctx context.Context, today time.Time) (int64, error)

	// Debit subtracts amount if the balance covers it. On ok=false balance is
	// the current, untouched balance.
	Debit(ctx context.Context, id, amount int64) (balance int64, ok bool, err error)
	Credit(ctx context.Context, id, amount int64) (int64, error)

	// SetReferrer records referrerID only if no referrer is set yet.
	SetReferrer(ctx context.Context, id, referrerID int64) (bool, error)
	// SettleReferral pays the referrer of referredID at most once, flipping
	// the referred account's bonus flag in the same transaction.
	SettleReferral(ctx context.Context, referredID int64) (domain.SettlementResult, error)
	ReferralStats(ctx context.Context, id int64, recent int) (*domain.ReferralStats, error)

	Ping(ctx context.Context) error
}
