package service

import (
	"context"

	"avatar_bot/internal/domain"
	"avatar_bot/internal/logger"
)

// AccountService exposes account lookup and lazy creation.
type AccountService struct {
	store AccountStore
	clock Clock
}

func NewAccountService(store AccountStore, clock Clock) *AccountService {
	return &AccountService{store: store, clock: clock}
}

// GetOrCreate returns the account, inserting a default one on first sight.
// Existing accounts are never overwritten.
func (s *AccountService) GetOrCreate(ctx context.Context, id int64) (*domain.Account, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	acc, created, err := s.store.GetOrCreate(ctx, id, s.clock.now())
	if err != nil {
		return nil, err
	}
	if created {
		logger.WithContext(ctx).Info("account created", "user_id", id)
	}
	return acc, nil
}

func (s *AccountService) Get(ctx context.Context, id int64) (*domain.Account, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

func (s *AccountService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
