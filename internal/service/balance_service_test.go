package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"avatar_bot/internal/domain"
)

func TestTryDebit(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.store.Put(domain.Account{ID: 1, StarBalance: 10})

	res, err := f.balance.TryDebit(ctx, 1, 4)
	if err != nil || !res.Success || res.NewBalance != 6 {
		t.Fatalf("debit = %+v, %v", res, err)
	}
	res, err = f.balance.TryDebit(ctx, 1, 7)
	if err != nil || res.Success || res.NewBalance != 6 {
		t.Fatalf("overdraft = %+v, %v", res, err)
	}

	if _, err := f.balance.TryDebit(ctx, 1, 0); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("zero amount: %v", err)
	}
	if _, err := f.balance.TryDebit(ctx, 2, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown account: %v", err)
	}

	events := f.notes.ofKind(domain.EventBalance)
	if len(events) != 1 || events[0].Amount != -4 || events[0].Balance != 6 {
		t.Fatalf("balance events = %+v", events)
	}
}

func TestTryDebitConcurrentNeverNegative(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.store.Put(domain.Account{ID: 1, StarBalance: 10})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.balance.TryDebit(ctx, 1, 3)
			if err != nil {
				t.Error(err)
				return
			}
			if res.NewBalance < 0 {
				t.Errorf("negative balance %d", res.NewBalance)
			}
			if res.Success {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 3 {
		t.Fatalf("successes = %d, want 3", successes)
	}
	bal, _ := f.balance.GetBalance(ctx, 1)
	if bal != 1 {
		t.Fatalf("balance = %d, want 1", bal)
	}
}

func TestCredit(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.store.Put(domain.Account{ID: 1})

	bal, err := f.balance.Credit(ctx, 1, 25)
	if err != nil || bal != 25 {
		t.Fatalf("credit = %d, %v", bal, err)
	}
	if _, err := f.balance.Credit(ctx, 1, -5); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("negative credit: %v", err)
	}
	if _, err := f.balance.Credit(ctx, 404, 5); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown account: %v", err)
	}
}

func TestNotifierFailureDoesNotFailOperation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.notes.err = errors.New("telegram down")
	f.store.Put(domain.Account{ID: 1, StarBalance: 5})

	res, err := f.balance.TryDebit(ctx, 1, 5)
	if err != nil || !res.Success {
		t.Fatalf("debit with failing notifier = %+v, %v", res, err)
	}
	if len(f.notes.Events()) != 1 {
		t.Fatal("notifier should still have been called")
	}
}
