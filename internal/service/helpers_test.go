package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"avatar_bot/internal/domain"
	"avatar_bot/internal/repository"
)

var (
	_ AccountStore = (*repository.AccountRepository)(nil)
	_ AccountStore = (*repository.MemoryAccountRepository)(nil)
	_ AuditStore   = (*repository.AuditRepository)(nil)
	_ AuditStore   = (*repository.MemoryAuditRepository)(nil)
)

var day1 = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock { return &testClock{now: t} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, ev domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingNotifier) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.events...)
}

func (r *recordingNotifier) ofKind(kind domain.EventKind) []domain.Event {
	var out []domain.Event
	for _, ev := range r.Events() {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// countingStore counts successful lazy resets on top of the memory store.
type countingStore struct {
	*repository.MemoryAccountRepository
	mu     sync.Mutex
	resets int
}

func (c *countingStore) ResetQuotaIfStale(ctx context.Context, id int64, today time.Time) (bool, error) {
	ok, err := c.MemoryAccountRepository.ResetQuotaIfStale(ctx, id, today)
	if ok {
		c.mu.Lock()
		c.resets++
		c.mu.Unlock()
	}
	return ok, err
}

// conflictStore fails every settlement as if retries were exhausted.
type conflictStore struct {
	*repository.MemoryAccountRepository
}

func (conflictStore) SettleReferral(context.Context, int64) (domain.SettlementResult, error) {
	return domain.SettlementResult{}, fmt.Errorf("settle referral: %w", domain.ErrConflict)
}

type fixture struct {
	store    *repository.MemoryAccountRepository
	clock    *testClock
	notes    *recordingNotifier
	accounts *AccountService
	quota    *QuotaService
	balance  *BalanceService
	referral *ReferralService
	charge   *ChargeService
}

func newFixture() *fixture {
	return newFixtureWithStore(repository.NewMemoryAccountRepository(1), nil)
}

func newFixtureWithStore(mem *repository.MemoryAccountRepository, store AccountStore) *fixture {
	if store == nil {
		store = mem
	}
	f := &fixture{
		store: mem,
		clock: newTestClock(day1),
		notes: &recordingNotifier{},
	}
	clock := Clock(f.clock.Now)
	f.accounts = NewAccountService(store, clock)
	f.quota = NewQuotaService(store, clock)
	f.balance = NewBalanceService(store, f.notes, clock)
	f.referral = NewReferralService(store, f.notes, clock)
	f.charge = NewChargeService(f.quota, f.balance, f.referral, nil)
	return f
}
