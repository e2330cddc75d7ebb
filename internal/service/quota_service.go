package service

import (
	"context"
	"fmt"

	"avatar_bot/internal/domain"
	"avatar_bot/internal/logger"
)

// QuotaService hands out the free daily generations per mode.
type QuotaService struct {
	store AccountStore
	clock Clock
}

func NewQuotaService(store AccountStore, clock Clock) *QuotaService {
	return &QuotaService{store: store, clock: clock}
}

// TryConsumeFree takes one free use of mode for userID, creating the account
// and refilling a stale day's quotas first. Granted=false with Remaining=0
// means the quota for today is spent.
func (s *QuotaService) TryConsumeFree(ctx context.Context, userID int64, mode domain.Mode) (domain.QuotaResult, error) {
	if err := checkID(userID); err != nil {
		return domain.QuotaResult{}, err
	}
	if !mode.Valid() {
		return domain.QuotaResult{}, domain.ErrInvalidMode
	}

	now := s.clock.now()
	if _, _, err := s.store.GetOrCreate(ctx, userID, now); err != nil {
		quotaConsumeTotal.WithLabelValues(string(mode), "error").Inc()
		return domain.QuotaResult{}, err
	}

	reset, err := s.store.ResetQuotaIfStale(ctx, userID, domain.DateOf(now))
	if err != nil {
		quotaConsumeTotal.WithLabelValues(string(mode), "error").Inc()
		return domain.QuotaResult{}, err
	}
	if reset {
		logger.WithContext(ctx).Debug("daily quota reset", "user_id", userID)
	}

	remaining, ok, err := s.store.DecrementFree(ctx, userID, mode)
	quotaConsumeTotal.WithLabelValues(string(mode), outcome(ok, err, "granted", "exhausted")).Inc()
	if err != nil {
		return domain.QuotaResult{}, err
	}
	return domain.QuotaResult{Granted: ok, Remaining: remaining}, nil
}

// Remaining reports today's free uses per mode without consuming any. A
// stale day is refilled first, exactly as TryConsumeFree would.
func (s *QuotaService) Remaining(ctx context.Context, userID int64) (map[domain.Mode]int, error) {
	if err := checkID(userID); err != nil {
		return nil, err
	}
	if _, err := s.store.ResetQuotaIfStale(ctx, userID, s.clock.today()); err != nil {
		return nil, err
	}
	acc, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.Mode]int, len(domain.Modes))
	for _, m := range domain.Modes {
		out[m] = acc.FreeQuota(m)
	}
	return out, nil
}

// SweepStale refills every account whose quotas date from an earlier day.
func (s *QuotaService) SweepStale(ctx context.Context) (int64, error) {
	n, err := s.store.ResetAllStaleQuotas(ctx, s.clock.today())
	if err != nil {
		return 0, fmt.Errorf("quota sweep: %w", err)
	}
	return n, nil
}
