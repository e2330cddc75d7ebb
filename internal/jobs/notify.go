package jobs

import (
	"context"
	"fmt"

	"avatar_bot/internal/domain"
	"avatar_bot/internal/service"

	"github.com/riverqueue/river"
)

// NotifyArgs carries one ledger event to be delivered off the request path.
type NotifyArgs struct {
	Event domain.Event `json:"event"`
}

func (NotifyArgs) Kind() string { return "ledger_notify" }

func (NotifyArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: 5}
}

// NotifyWorker hands queued events to the real notifier. A returned error
// makes river retry with backoff.
type NotifyWorker struct {
	river.WorkerDefaults[NotifyArgs]
	notifier service.Notifier
}

func NewNotifyWorker(n service.Notifier) *NotifyWorker {
	return &NotifyWorker{notifier: n}
}

func (w *NotifyWorker) Work(ctx context.Context, job *river.Job[NotifyArgs]) error {
	if err := w.notifier.Notify(ctx, job.Args.Event); err != nil {
		return fmt.Errorf("deliver %s to %d: %w", job.Args.Event.Kind, job.Args.Event.UserID, err)
	}
	return nil
}

// InsertNotifyFunc enqueues a NotifyArgs job. Provided by main as a closure
// over river.Client.Insert.
type InsertNotifyFunc func(ctx context.Context, args NotifyArgs) error

// QueueNotifier implements service.Notifier by enqueueing the event, so
// delivery gets retries and survives restarts.
type QueueNotifier struct {
	insert InsertNotifyFunc
	kinds  map[domain.EventKind]bool
}

// NewQueueNotifier enqueues only the given kinds; with none, every kind.
func NewQueueNotifier(insert InsertNotifyFunc, kinds ...domain.EventKind) *QueueNotifier {
	q := &QueueNotifier{insert: insert}
	if len(kinds) > 0 {
		q.kinds = make(map[domain.EventKind]bool, len(kinds))
		for _, k := range kinds {
			q.kinds[k] = true
		}
	}
	return q
}

func (q *QueueNotifier) Notify(ctx context.Context, ev domain.Event) error {
	if q.kinds != nil && !q.kinds[ev.Kind] {
		return nil
	}
	if err := q.insert(ctx, NotifyArgs{Event: ev}); err != nil {
		return fmt.Errorf("enqueue %s: %w", ev.Kind, err)
	}
	return nil
}
