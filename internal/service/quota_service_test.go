package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"avatar_bot/internal/domain"
	"avatar_bot/internal/repository"
)

func TestTryConsumeFreeOncePerDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	res, err := f.quota.TryConsumeFree(ctx, 1, domain.ModeStylize)
	if err != nil || !res.Granted || res.Remaining != 0 {
		t.Fatalf("first use = %+v, %v", res, err)
	}
	res, err = f.quota.TryConsumeFree(ctx, 1, domain.ModeStylize)
	if err != nil || res.Granted || res.Remaining != 0 {
		t.Fatalf("second use = %+v, %v", res, err)
	}

	// other modes have their own counters
	res, _ = f.quota.TryConsumeFree(ctx, 1, domain.ModeEnhance)
	if !res.Granted {
		t.Fatal("enhance must still be free")
	}

	f.clock.Advance(24 * time.Hour)
	res, err = f.quota.TryConsumeFree(ctx, 1, domain.ModeStylize)
	if err != nil || !res.Granted {
		t.Fatalf("next day = %+v, %v", res, err)
	}
}

func TestTryConsumeFreeRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	if _, err := f.quota.TryConsumeFree(ctx, 1, "video"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("bad mode: %v", err)
	}
	if _, err := f.quota.TryConsumeFree(ctx, 0, domain.ModeStylize); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("bad id: %v", err)
	}
	if _, err := f.store.Get(ctx, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatal("rejected call must not create an account")
	}
}

func TestTryConsumeFreeConcurrentExactlyOneGrant(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.quota.TryConsumeFree(ctx, 7, domain.ModeRemoveBg)
			if err != nil {
				t.Error(err)
				return
			}
			if res.Remaining < 0 {
				t.Errorf("negative remaining %d", res.Remaining)
			}
			if res.Granted {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if granted != 1 {
		t.Fatalf("granted %d times, want 1", granted)
	}
	acc, _ := f.store.Get(ctx, 7)
	if acc.FreeRemoveBg != 0 {
		t.Fatalf("counter = %d", acc.FreeRemoveBg)
	}
}

func TestDailyResetHappensOnceUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryAccountRepository(1)
	counting := &countingStore{MemoryAccountRepository: mem}
	f := newFixtureWithStore(mem, counting)

	if _, err := f.quota.TryConsumeFree(ctx, 3, domain.ModeStylize); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(24 * time.Hour)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.quota.TryConsumeFree(ctx, 3, domain.ModeStylize)
			if err != nil {
				t.Error(err)
				return
			}
			if res.Granted {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if counting.resets != 1 {
		t.Fatalf("reset ran %d times, want 1", counting.resets)
	}
	if granted != 1 {
		t.Fatalf("granted %d times after reset, want 1", granted)
	}
}

func TestRemainingRefillsStaleDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, _ = f.quota.TryConsumeFree(ctx, 5, domain.ModeEnhance)

	left, err := f.quota.Remaining(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if left[domain.ModeEnhance] != 0 || left[domain.ModeStylize] != 1 {
		t.Fatalf("same day remaining = %v", left)
	}

	f.clock.Advance(24 * time.Hour)
	left, _ = f.quota.Remaining(ctx, 5)
	if left[domain.ModeEnhance] != 1 {
		t.Fatalf("next day remaining = %v", left)
	}
	if _, err := f.quota.Remaining(ctx, 99); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown account: %v", err)
	}
}

func TestSweepStale(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, _ = f.quota.TryConsumeFree(ctx, 1, domain.ModeStylize)
	_, _ = f.quota.TryConsumeFree(ctx, 2, domain.ModeStylize)

	n, err := f.quota.SweepStale(ctx)
	if err != nil || n != 0 {
		t.Fatalf("same day sweep = %d, %v", n, err)
	}

	f.clock.Advance(24 * time.Hour)
	n, err = f.quota.SweepStale(ctx)
	if err != nil || n != 2 {
		t.Fatalf("next day sweep = %d, %v", n, err)
	}

	// the lazy path must not refill a second time the same day
	res, _ := f.quota.TryConsumeFree(ctx, 1, domain.ModeStylize)
	if !res.Granted {
		t.Fatal("swept quota should be available")
	}
	res, _ = f.quota.TryConsumeFree(ctx, 1, domain.ModeStylize)
	if res.Granted {
		t.Fatal("quota refilled twice in one day")
	}
}
