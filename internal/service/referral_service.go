package service

import (
	"context"
	"errors"

	"avatar_bot/internal/domain"
	"avatar_bot/internal/logger"
)

// RecentReferrals is how many referred accounts Stats lists.
const RecentReferrals = 10

// ReferralService links new accounts to their referrer and pays the tiered
// bonus on the referred account's first purchase.
type ReferralService struct {
	store    AccountStore
	notifier Notifier
	clock    Clock
}

func NewReferralService(store AccountStore, notifier Notifier, clock Clock) *ReferralService {
	return &ReferralService{store: store, notifier: notifier, clock: clock}
}

// Attribute records referrerID as the referrer of newUserID if none is set
// yet. A zero referrer or a self-referral is a no-op. No bonus is paid here.
func (s *ReferralService) Attribute(ctx context.Context, newUserID, referrerID int64) (domain.AttributionResult, error) {
	if err := checkID(newUserID); err != nil {
		return domain.AttributionResult{}, err
	}
	if referrerID <= 0 || referrerID == newUserID {
		referralAttributionsTotal.WithLabelValues("skipped").Inc()
		return domain.AttributionResult{}, nil
	}

	if _, _, err := s.store.GetOrCreate(ctx, newUserID, s.clock.now()); err != nil {
		referralAttributionsTotal.WithLabelValues("error").Inc()
		return domain.AttributionResult{}, err
	}

	applied, err := s.store.SetReferrer(ctx, newUserID, referrerID)
	referralAttributionsTotal.WithLabelValues(outcome(applied, err, "applied", "already_set")).Inc()
	if err != nil {
		return domain.AttributionResult{}, err
	}
	if !applied {
		return domain.AttributionResult{}, nil
	}

	logger.WithContext(ctx).Info("referral attributed", "user_id", newUserID, "referrer_id", referrerID)
	deliver(ctx, s.notifier, domain.Event{
		Kind:      domain.EventReferralSignup,
		UserID:    referrerID,
		RelatedID: newUserID,
		At:        s.clock.now(),
	})
	return domain.AttributionResult{Applied: true}, nil
}

// SettleReferralBonus pays the referrer of referredID once, on the first
// call after a paid purchase. Later calls return Paid=false.
func (s *ReferralService) SettleReferralBonus(ctx context.Context, referredID int64) (domain.SettlementResult, error) {
	if err := checkID(referredID); err != nil {
		return domain.SettlementResult{}, err
	}

	res, err := s.store.SettleReferral(ctx, referredID)
	switch {
	case errors.Is(err, domain.ErrConflict):
		referralBonusTotal.WithLabelValues("conflict").Inc()
	default:
		referralBonusTotal.WithLabelValues(outcome(res.Paid, err, "paid", "noop")).Inc()
	}
	if err != nil {
		return domain.SettlementResult{}, err
	}
	if !res.Paid {
		return res, nil
	}
	referralBonusStarsTotal.Add(float64(res.Bonus))

	log := logger.WithContext(ctx)
	log.Info("referral bonus paid",
		"user_id", referredID,
		"referrer_id", res.ReferrerID,
		"bonus", res.Bonus,
	)

	ev := domain.Event{
		Kind:      domain.EventReferralBonus,
		UserID:    res.ReferrerID,
		RelatedID: referredID,
		Amount:    res.Bonus,
		At:        s.clock.now(),
	}
	if acc, err := s.store.Get(ctx, res.ReferrerID); err == nil {
		ev.Balance = acc.StarBalance
	} else {
		log.Warn("referrer balance lookup failed", "referrer_id", res.ReferrerID, "error", err)
	}
	deliver(ctx, s.notifier, ev)
	return res, nil
}

// Stats summarises userID's referral program.
func (s *ReferralService) Stats(ctx context.Context, userID int64) (*domain.ReferralStats, error) {
	if err := checkID(userID); err != nil {
		return nil, err
	}
	return s.store.ReferralStats(ctx, userID, RecentReferrals)
}
