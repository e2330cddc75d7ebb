package service

import (
	"context"
	"errors"
	"time"

	"avatar_bot/internal/domain"
	"avatar_bot/internal/logger"
)

const notifyTimeout = 5 * time.Second

// Notifier delivers ledger events after the change has been committed.
// Delivery is best-effort: an error never rolls anything back.
type Notifier interface {
	Notify(ctx context.Context, ev domain.Event) error
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, domain.Event) error { return nil }

// MultiNotifier fans an event out to every notifier and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, ev domain.Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev domain.Event) error

func (f NotifierFunc) Notify(ctx context.Context, ev domain.Event) error { return f(ctx, ev) }

// deliver runs n detached from the request's cancellation: the ledger change
// is already durable, so a client hanging up must not drop the event.
func deliver(ctx context.Context, n Notifier, ev domain.Event) {
	if n == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := n.Notify(nctx, ev); err != nil {
		notificationsTotal.WithLabelValues(string(ev.Kind), "error").Inc()
		logger.WithContext(ctx).Warn("notification failed",
			"kind", ev.Kind,
			"user_id", ev.UserID,
			"error", err,
		)
		return
	}
	notificationsTotal.WithLabelValues(string(ev.Kind), "ok").Inc()
}
