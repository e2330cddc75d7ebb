package repository

import (
	"context"
	"errors"
	"fmt"

	"avatar_bot/internal/domain"

	"github.com/jackc/pgx/v5"
)

// SetReferrer sets referred_by only if it is still NULL. First attribution wins.
func (r *AccountRepository) SetReferrer(ctx context.Context, id, referrerID int64) (bool, error) {
	if id == referrerID {
		return false, domain.ErrSelfReferral
	}
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET referred_by = $2 WHERE id = $1 AND referred_by IS NULL`,
		id, referrerID,
	)
	if err != nil {
		return false, fmt.Errorf("set referrer %d: %w", id, mapErr(err))
	}
	return tag.RowsAffected() == 1, nil
}

// SettleReferral runs the bonus payout as one transaction with both rows
// locked FOR UPDATE, referred first. Under READ COMMITTED a locked read sees
// the latest committed row, so concurrent settlements for one referrer queue
// on its row instead of failing. Deadlocks and serialization failures are
// retried up to SettleAttempts; every attempt re-reads ref_bonus_given, so a
// retry cannot pay twice.
func (r *AccountRepository) SettleReferral(ctx context.Context, referredID int64) (domain.SettlementResult, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= r.opts.SettleAttempts; attempt++ {
		res, err := r.settleOnce(ctx, referredID)
		if err == nil {
			return res, nil
		}
		if !isRetryableTxErr(err) {
			return domain.SettlementResult{}, fmt.Errorf("settle referral %d: %w", referredID, mapErr(err))
		}
		lastErr = err
	}
	return domain.SettlementResult{}, fmt.Errorf("%w: settle referral %d after %d attempts: %v",
		domain.ErrConflict, referredID, r.opts.SettleAttempts, lastErr)
}

func (r *AccountRepository) settleOnce(ctx context.Context, referredID int64) (domain.SettlementResult, error) {
	var none domain.SettlementResult

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return none, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		referrerID *int64
		given      bool
	)
	err = tx.QueryRow(ctx,
		`SELECT referred_by, ref_bonus_given FROM accounts WHERE id = $1 FOR UPDATE`,
		referredID,
	).Scan(&referrerID, &given)
	if err != nil {
		return none, err
	}
	if referrerID == nil || given {
		return none, nil
	}

	var paidCount int
	err = tx.QueryRow(ctx,
		`SELECT ref_paid_count FROM accounts WHERE id = $1 FOR UPDATE`,
		*referrerID,
	).Scan(&paidCount)
	if errors.Is(err, pgx.ErrNoRows) {
		// referral points at an unknown account
		return none, nil
	}
	if err != nil {
		return none, err
	}

	bonus := domain.ReferralBonus(paidCount)

	tag, err := tx.Exec(ctx,
		`UPDATE accounts SET ref_bonus_given = TRUE WHERE id = $1 AND ref_bonus_given = FALSE`,
		referredID,
	)
	if err != nil {
		return none, err
	}
	if tag.RowsAffected() != 1 {
		return none, nil
	}

	_, err = tx.Exec(ctx,
		`UPDATE accounts
		 SET star_balance = star_balance + $2,
		     ref_paid_count = ref_paid_count + 1,
		     ref_earnings = ref_earnings + $2
		 WHERE id = $1`,
		*referrerID, bonus,
	)
	if err != nil {
		return none, err
	}

	if err := tx.Commit(ctx); err != nil {
		return none, err
	}
	return domain.SettlementResult{Paid: true, ReferrerID: *referrerID, Bonus: bonus}, nil
}

// ReferralStats returns counters of id as a referrer plus its most recent
// referred accounts.
func (r *AccountRepository) ReferralStats(ctx context.Context, id int64, recent int) (*domain.ReferralStats, error) {
	if recent <= 0 {
		recent = 10
	}
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	stats := &domain.ReferralStats{Recent: []domain.ReferralEntry{}}
	err := r.db.QueryRow(ctx,
		`SELECT a.ref_paid_count, a.ref_earnings,
		        (SELECT COUNT(*) FROM accounts r WHERE r.referred_by = a.id)
		 FROM accounts a
		 WHERE a.id = $1`,
		id,
	).Scan(&stats.PaidReferrals, &stats.TotalEarnings, &stats.TotalReferrals)
	if err != nil {
		return nil, fmt.Errorf("referral stats %d: %w", id, mapErr(err))
	}
	stats.NextBonus = domain.ReferralBonus(stats.PaidReferrals)

	rows, err := r.db.Query(ctx,
		`SELECT id, created_at, ref_bonus_given
		 FROM accounts
		 WHERE referred_by = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		id, recent,
	)
	if err != nil {
		return nil, fmt.Errorf("recent referrals %d: %w", id, mapErr(err))
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.ReferralEntry
		if err := rows.Scan(&e.AccountID, &e.CreatedAt, &e.Paid); err != nil {
			return nil, fmt.Errorf("scan referral: %w", err)
		}
		stats.Recent = append(stats.Recent, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent referrals %d: %w", id, mapErr(err))
	}
	return stats, nil
}
