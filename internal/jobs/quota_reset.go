package jobs

import (
	"context"
	"fmt"

	"avatar_bot/internal/logger"

	"github.com/riverqueue/river"
)

// QuotaResetArgs triggers a sweep that refills every account whose free
// quotas date from an earlier day.
type QuotaResetArgs struct{}

func (QuotaResetArgs) Kind() string { return "quota_reset_sweep" }

// Sweeper refills stale quotas. Implemented by service.QuotaService.
type Sweeper interface {
	SweepStale(ctx context.Context) (int64, error)
}

type QuotaResetWorker struct {
	river.WorkerDefaults[QuotaResetArgs]
	sweeper Sweeper
}

func NewQuotaResetWorker(s Sweeper) *QuotaResetWorker {
	return &QuotaResetWorker{sweeper: s}
}

func (w *QuotaResetWorker) Work(ctx context.Context, _ *river.Job[QuotaResetArgs]) error {
	n, err := w.sweeper.SweepStale(ctx)
	if err != nil {
		return fmt.Errorf("quota reset sweep: %w", err)
	}
	logger.Component("jobs").Info("quota reset sweep done", "accounts", n)
	return nil
}
