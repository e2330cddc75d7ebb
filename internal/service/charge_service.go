package service

import (
	"context"

	"avatar_bot/internal/domain"
	"avatar_bot/internal/logger"
)

// ChargeService pays for one generation: the free quota first, then stars.
// A paid charge settles the referral bonus of the buyer.
type ChargeService struct {
	quota    *QuotaService
	balance  *BalanceService
	referral *ReferralService
	prices   map[domain.Mode]int64
}

func NewChargeService(quota *QuotaService, balance *BalanceService, referral *ReferralService, prices map[domain.Mode]int64) *ChargeService {
	p := make(map[domain.Mode]int64, len(domain.DefaultPrices))
	for m, v := range domain.DefaultPrices {
		p[m] = v
	}
	for m, v := range prices {
		if v > 0 {
			p[m] = v
		}
	}
	return &ChargeService{quota: quota, balance: balance, referral: referral, prices: p}
}

func (s *ChargeService) Price(mode domain.Mode) int64 {
	return s.prices[mode]
}

// Charge never undoes a committed debit. A failed settlement is reported in
// SettlementError and can be retried with SettleReferralBonus.
func (s *ChargeService) Charge(ctx context.Context, userID int64, mode domain.Mode) (domain.ChargeResult, error) {
	res := domain.ChargeResult{Mode: mode, Source: domain.ChargeNone}

	q, err := s.quota.TryConsumeFree(ctx, userID, mode)
	if err != nil {
		return res, err
	}
	res.Remaining = q.Remaining
	if q.Granted {
		res.Source = domain.ChargeFree
		return res, nil
	}

	res.Price = s.prices[mode]
	d, err := s.balance.TryDebit(ctx, userID, res.Price)
	if err != nil {
		return res, err
	}
	res.NewBalance = d.NewBalance
	if !d.Success {
		return res, nil
	}
	res.Source = domain.ChargePaid

	settled, err := s.referral.SettleReferralBonus(ctx, userID)
	if err != nil {
		logger.WithContext(ctx).Error("referral settlement failed after paid charge",
			"user_id", userID,
			"mode", mode,
			"error", err,
		)
		res.SettlementError = err.Error()
		return res, nil
	}
	res.Settlement = &settled
	return res, nil
}
