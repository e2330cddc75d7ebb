package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"avatar_bot/internal/domain"
)

var day1 = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func TestMemoryGetOrCreateDoesNotOverwrite(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAccountRepository(1)

	acc, created, err := m.GetOrCreate(ctx, 10, day1)
	if err != nil || !created {
		t.Fatalf("first GetOrCreate: created=%v err=%v", created, err)
	}
	if acc.FreeStylize != 1 || acc.FreeRemoveBg != 1 || acc.FreeEnhance != 1 || acc.StarBalance != 0 {
		t.Fatalf("unexpected defaults: %+v", acc)
	}
	if !acc.QuotaResetDate.Equal(domain.DateOf(day1)) {
		t.Fatalf("reset date = %v", acc.QuotaResetDate)
	}

	if _, err := m.Credit(ctx, 10, 7); err != nil {
		t.Fatal(err)
	}
	acc, created, err = m.GetOrCreate(ctx, 10, day1.Add(48*time.Hour))
	if err != nil || created {
		t.Fatalf("second GetOrCreate: created=%v err=%v", created, err)
	}
	if acc.StarBalance != 7 || !acc.CreatedAt.Equal(day1) {
		t.Fatalf("existing fields overwritten: %+v", acc)
	}
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAccountRepository(1)
	if _, err := m.Get(ctx, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	_, _, _ = m.GetOrCreate(ctx, 1, day1)
	_, _, _ = m.GetOrCreate(ctx, 2, day1)
	if _, err := m.SetReferrer(ctx, 1, 2); err != nil {
		t.Fatal(err)
	}

	a, _ := m.Get(ctx, 1)
	a.StarBalance = 1000
	*a.ReferredBy = 99

	b, _ := m.Get(ctx, 1)
	if b.StarBalance != 0 || b.Referrer() != 2 {
		t.Fatalf("store mutated through returned copy: %+v", b)
	}
}

func TestMemoryDecrementFreeNeverNegative(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAccountRepository(1)
	_, _, _ = m.GetOrCreate(ctx, 1, day1)

	left, ok, err := m.DecrementFree(ctx, 1, domain.ModeEnhance)
	if err != nil || !ok || left != 0 {
		t.Fatalf("first decrement: left=%d ok=%v err=%v", left, ok, err)
	}
	left, ok, err = m.DecrementFree(ctx, 1, domain.ModeEnhance)
	if err != nil || ok || left != 0 {
		t.Fatalf("second decrement: left=%d ok=%v err=%v", left, ok, err)
	}
	if _, _, err := m.DecrementFree(ctx, 1, "video"); !errors.Is(err, domain.ErrInvalidMode) {
		t.Fatalf("expected invalid mode, got %v", err)
	}
	if _, _, err := m.DecrementFree(ctx, 404, domain.ModeEnhance); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryResetOncePerDay(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAccountRepository(2)
	m.Put(domain.Account{ID: 1, QuotaResetDate: domain.DateOf(day1)})

	day2 := day1.Add(24 * time.Hour)
	var wg sync.WaitGroup
	var mu sync.Mutex
	resets := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := m.ResetQuotaIfStale(ctx, 1, day2)
			if err != nil {
				t.Error(err)
			}
			if ok {
				mu.Lock()
				resets++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if resets != 1 {
		t.Fatalf("resets = %d, want 1", resets)
	}
	a, _ := m.Get(ctx, 1)
	if a.FreeStylize != 2 || a.FreeRemoveBg != 2 || a.FreeEnhance != 2 {
		t.Fatalf("quotas not refilled to allotment: %+v", a)
	}
}

func TestMemoryResetAllStale(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAccountRepository(1)
	m.Put(domain.Account{ID: 1, QuotaResetDate: domain.DateOf(day1)})
	m.Put(domain.Account{ID: 2, QuotaResetDate: domain.DateOf(day1.Add(24 * time.Hour))})

	n, err := m.ResetAllStaleQuotas(ctx, day1.Add(24*time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("ResetAllStaleQuotas = %d, %v", n, err)
	}
	n, _ = m.ResetAllStaleQuotas(ctx, day1.Add(24*time.Hour))
	if n != 0 {
		t.Fatalf("second sweep reset %d accounts", n)
	}
}

func TestMemoryDebitCredit(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAccountRepository(1)
	_, _, _ = m.GetOrCreate(ctx, 1, day1)

	if _, err := m.Credit(ctx, 1, 0); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if _, err := m.Credit(ctx, 2, 5); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	bal, err := m.Credit(ctx, 1, 5)
	if err != nil || bal != 5 {
		t.Fatalf("credit = %d, %v", bal, err)
	}
	bal, ok, err := m.Debit(ctx, 1, 6)
	if err != nil || ok || bal != 5 {
		t.Fatalf("overdraft debit = %d, %v, %v", bal, ok, err)
	}
	bal, ok, err = m.Debit(ctx, 1, 5)
	if err != nil || !ok || bal != 0 {
		t.Fatalf("exact debit = %d, %v, %v", bal, ok, err)
	}
	if _, _, err := m.Debit(ctx, 1, -1); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestMemorySettleReferral(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAccountRepository(1)
	_, _, _ = m.GetOrCreate(ctx, 1, day1)
	m.Put(domain.Account{ID: 2, RefPaidCount: 5, QuotaResetDate: domain.DateOf(day1)})

	if res, err := m.SettleReferral(ctx, 1); err != nil || res.Paid {
		t.Fatalf("unreferred settle = %+v, %v", res, err)
	}
	if ok, err := m.SetReferrer(ctx, 1, 2); err != nil || !ok {
		t.Fatalf("SetReferrer = %v, %v", ok, err)
	}
	if ok, _ := m.SetReferrer(ctx, 1, 3); ok {
		t.Fatal("second attribution must not apply")
	}
	if _, err := m.SetReferrer(ctx, 1, 1); !errors.Is(err, domain.ErrSelfReferral) {
		t.Fatalf("expected self referral error, got %v", err)
	}

	res, err := m.SettleReferral(ctx, 1)
	if err != nil || !res.Paid || res.ReferrerID != 2 || res.Bonus != 2 {
		t.Fatalf("settle = %+v, %v", res, err)
	}
	res, err = m.SettleReferral(ctx, 1)
	if err != nil || res.Paid {
		t.Fatalf("repeat settle = %+v, %v", res, err)
	}

	ref, _ := m.Get(ctx, 2)
	if ref.StarBalance != 2 || ref.RefPaidCount != 6 || ref.RefEarnings != 2 {
		t.Fatalf("referrer after settle: %+v", ref)
	}
	if _, err := m.SettleReferral(ctx, 404); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemorySettleUnknownReferrer(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAccountRepository(1)
	ghost := int64(777)
	m.Put(domain.Account{ID: 1, ReferredBy: &ghost})

	res, err := m.SettleReferral(ctx, 1)
	if err != nil || res.Paid {
		t.Fatalf("settle with unknown referrer = %+v, %v", res, err)
	}
	a, _ := m.Get(ctx, 1)
	if a.RefBonusGiven {
		t.Fatal("flag must stay false when nothing was paid")
	}
}

func TestMemoryReferralStats(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAccountRepository(1)
	_, _, _ = m.GetOrCreate(ctx, 100, day1)
	for i := int64(1); i <= 12; i++ {
		_, _, _ = m.GetOrCreate(ctx, i, day1.Add(time.Duration(i)*time.Minute))
		_, _ = m.SetReferrer(ctx, i, 100)
	}
	_, _ = m.SettleReferral(ctx, 12)

	stats, err := m.ReferralStats(ctx, 100, 10)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalReferrals != 12 || stats.PaidReferrals != 1 || stats.TotalEarnings != 1 || stats.NextBonus != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(stats.Recent) != 10 || stats.Recent[0].AccountID != 12 || !stats.Recent[0].Paid {
		t.Fatalf("unexpected recent list: %+v", stats.Recent)
	}
	if _, err := m.ReferralStats(ctx, 404, 10); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
