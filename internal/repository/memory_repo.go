package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"avatar_bot/internal/domain"
)

// MemoryAccountRepository keeps accounts in process. One mutex guards all
// rows, so every method, including the two-row settlement, is atomic.
// It backs tests and STORE_DRIVER=memory development runs.
type MemoryAccountRepository struct {
	mu        sync.Mutex
	accounts  map[int64]*domain.Account
	allotment int
}

func NewMemoryAccountRepository(dailyAllotment int) *MemoryAccountRepository {
	if dailyAllotment <= 0 {
		dailyAllotment = 1
	}
	return &MemoryAccountRepository{
		accounts:  make(map[int64]*domain.Account),
		allotment: dailyAllotment,
	}
}

// Put stores a copy of acc, replacing any existing record. Test seeding only.
func (m *MemoryAccountRepository) Put(acc domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[acc.ID] = cloneAccount(&acc)
}

func cloneAccount(a *domain.Account) *domain.Account {
	cp := *a
	if a.ReferredBy != nil {
		ref := *a.ReferredBy
		cp.ReferredBy = &ref
	}
	return &cp
}

func (m *MemoryAccountRepository) GetOrCreate(_ context.Context, id int64, now time.Time) (*domain.Account, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a, ok := m.accounts[id]; ok {
		return cloneAccount(a), false, nil
	}
	a := &domain.Account{
		ID:             id,
		FreeStylize:    m.allotment,
		FreeRemoveBg:   m.allotment,
		FreeEnhance:    m.allotment,
		QuotaResetDate: domain.DateOf(now),
		CreatedAt:      now,
	}
	m.accounts[id] = a
	return cloneAccount(a), true, nil
}

func (m *MemoryAccountRepository) Get(_ context.Context, id int64) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneAccount(a), nil
}

func (m *MemoryAccountRepository) ResetQuotaIfStale(_ context.Context, id int64, today time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return false, nil
	}
	return m.resetLocked(a, domain.DateOf(today)), nil
}

func (m *MemoryAccountRepository) resetLocked(a *domain.Account, today time.Time) bool {
	if !a.QuotaResetDate.Before(today) {
		return false
	}
	for _, mode := range domain.Modes {
		a.SetFreeQuota(mode, m.allotment)
	}
	a.QuotaResetDate = today
	return true
}

func (m *MemoryAccountRepository) ResetAllStaleQuotas(_ context.Context, today time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	today = domain.DateOf(today)
	var n int64
	for _, a := range m.accounts {
		if m.resetLocked(a, today) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryAccountRepository) DecrementFree(_ context.Context, id int64, mode domain.Mode) (int, bool, error) {
	if !mode.Valid() {
		return 0, false, domain.ErrInvalidMode
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return 0, false, domain.ErrNotFound
	}
	left := a.FreeQuota(mode)
	if left <= 0 {
		return left, false, nil
	}
	a.SetFreeQuota(mode, left-1)
	return left - 1, true, nil
}

func (m *MemoryAccountRepository) Debit(_ context.Context, id, amount int64) (int64, bool, error) {
	if amount <= 0 {
		return 0, false, domain.ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return 0, false, domain.ErrNotFound
	}
	if a.StarBalance < amount {
		return a.StarBalance, false, nil
	}
	a.StarBalance -= amount
	return a.StarBalance, true, nil
}

func (m *MemoryAccountRepository) Credit(_ context.Context, id, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	a.StarBalance += amount
	return a.StarBalance, nil
}

func (m *MemoryAccountRepository) SetReferrer(_ context.Context, id, referrerID int64) (bool, error) {
	if id == referrerID {
		return false, domain.ErrSelfReferral
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok || a.ReferredBy != nil {
		return false, nil
	}
	ref := referrerID
	a.ReferredBy = &ref
	return true, nil
}

func (m *MemoryAccountRepository) SettleReferral(_ context.Context, referredID int64) (domain.SettlementResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	referred, ok := m.accounts[referredID]
	if !ok {
		return domain.SettlementResult{}, domain.ErrNotFound
	}
	if referred.ReferredBy == nil || referred.RefBonusGiven {
		return domain.SettlementResult{}, nil
	}
	referrer, ok := m.accounts[*referred.ReferredBy]
	if !ok {
		return domain.SettlementResult{}, nil
	}

	bonus := domain.ReferralBonus(referrer.RefPaidCount)
	referred.RefBonusGiven = true
	referrer.StarBalance += bonus
	referrer.RefPaidCount++
	referrer.RefEarnings += bonus

	return domain.SettlementResult{Paid: true, ReferrerID: referrer.ID, Bonus: bonus}, nil
}

func (m *MemoryAccountRepository) ReferralStats(_ context.Context, id int64, recent int) (*domain.ReferralStats, error) {
	if recent <= 0 {
		recent = 10
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	stats := &domain.ReferralStats{
		PaidReferrals: a.RefPaidCount,
		TotalEarnings: a.RefEarnings,
		NextBonus:     domain.ReferralBonus(a.RefPaidCount),
		Recent:        []domain.ReferralEntry{},
	}
	for _, r := range m.accounts {
		if r.ReferredBy != nil && *r.ReferredBy == id {
			stats.TotalReferrals++
			stats.Recent = append(stats.Recent, domain.ReferralEntry{
				AccountID: r.ID,
				CreatedAt: r.CreatedAt,
				Paid:      r.RefBonusGiven,
			})
		}
	}
	sort.Slice(stats.Recent, func(i, j int) bool {
		if stats.Recent[i].CreatedAt.Equal(stats.Recent[j].CreatedAt) {
			return stats.Recent[i].AccountID > stats.Recent[j].AccountID
		}
		return stats.Recent[i].CreatedAt.After(stats.Recent[j].CreatedAt)
	})
	if len(stats.Recent) > recent {
		stats.Recent = stats.Recent[:recent]
	}
	return stats, nil
}

func (m *MemoryAccountRepository) Ping(context.Context) error {
	return nil
}
