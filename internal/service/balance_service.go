package service

import (
	"context"

	"avatar_bot/internal/domain"
	"avatar_bot/internal/logger"
)

// BalanceService handles all star balance operations
type BalanceService struct {
	store    AccountStore
	notifier Notifier
	clock    Clock
}

func NewBalanceService(store AccountStore, notifier Notifier, clock Clock) *BalanceService {
	return &BalanceService{store: store, notifier: notifier, clock: clock}
}

// GetBalance returns user's current balance
func (s *BalanceService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	if err := checkID(userID); err != nil {
		return 0, err
	}
	acc, err := s.store.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return acc.StarBalance, nil
}

// TryDebit deducts amount if the balance covers it. Insufficient funds is a
// result (Success=false, untouched balance), not an error.
func (s *BalanceService) TryDebit(ctx context.Context, userID, amount int64) (domain.DebitResult, error) {
	if err := checkID(userID); err != nil {
		return domain.DebitResult{}, err
	}
	if amount <= 0 {
		return domain.DebitResult{}, domain.ErrInvalidAmount
	}

	balance, ok, err := s.store.Debit(ctx, userID, amount)
	debitTotal.WithLabelValues(outcome(ok, err, "success", "insufficient")).Inc()
	if err != nil {
		return domain.DebitResult{}, err
	}
	if !ok {
		return domain.DebitResult{Success: false, NewBalance: balance}, nil
	}

	logger.WithContext(ctx).Info("stars debited", "user_id", userID, "amount", amount, "balance", balance)
	deliver(ctx, s.notifier, domain.Event{
		Kind:    domain.EventBalance,
		UserID:  userID,
		Amount:  -amount,
		Balance: balance,
		At:      s.clock.now(),
	})
	return domain.DebitResult{Success: true, NewBalance: balance}, nil
}

// Credit adds amount (top-ups, refunds, admin grants).
func (s *BalanceService) Credit(ctx context.Context, userID, amount int64) (int64, error) {
	if err := checkID(userID); err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}

	balance, err := s.store.Credit(ctx, userID, amount)
	if err != nil {
		return 0, err
	}
	creditStarsTotal.Add(float64(amount))

	logger.WithContext(ctx).Info("stars credited", "user_id", userID, "amount", amount, "balance", balance)
	deliver(ctx, s.notifier, domain.Event{
		Kind:    domain.EventBalance,
		UserID:  userID,
		Amount:  amount,
		Balance: balance,
		At:      s.clock.now(),
	})
	return balance, nil
}
