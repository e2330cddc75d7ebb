package jobs

import (
	"context"
	"fmt"
	"time"

	"avatar_bot/internal/logger"
	"avatar_bot/internal/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

// SweepInterval is how often the quota reset sweep runs. The lazy reset on
// consumption stays authoritative; the sweep only keeps idle rows current.
const SweepInterval = time.Hour

type Config struct {
	Sweeper    Sweeper
	Notifier   service.Notifier
	MaxWorkers int
}

// NewClient builds the river client with the sweep scheduled periodically
// (and once on start) and the notification worker registered.
func NewClient(pool *pgxpool.Pool, cfg Config) (*river.Client[pgx.Tx], error) {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 5
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewQuotaResetWorker(cfg.Sweeper))
	river.AddWorker(workers, NewNotifyWorker(cfg.Notifier))

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.MaxWorkers},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(SweepInterval),
				func() (river.JobArgs, *river.InsertOpts) {
					return QuotaResetArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
		Logger: logger.Component("river"),
	})
	if err != nil {
		return nil, fmt.Errorf("river client: %w", err)
	}
	return client, nil
}

// InsertNotify adapts client to InsertNotifyFunc.
func InsertNotify(client *river.Client[pgx.Tx]) InsertNotifyFunc {
	return func(ctx context.Context, args NotifyArgs) error {
		_, err := client.Insert(ctx, args, nil)
		return err
	}
}

// Migrate applies river's own schema migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("river migrate: %w", err)
	}
	return nil
}
