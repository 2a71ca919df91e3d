package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sharkusmanch/rethinkdb-backup/internal/domain"
)

// MultiNotifier fans a notification out to several sinks.
type MultiNotifier struct {
	notifiers []domain.Notifier
	logger    *slog.Logger
}

// NewMultiNotifier creates a new MultiNotifier. Nil notifiers are skipped.
func NewMultiNotifier(logger *slog.Logger, notifiers ...domain.Notifier) *MultiNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	m := &MultiNotifier{logger: logger}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

// Len returns the number of sinks.
func (m *MultiNotifier) Len() int {
	return len(m.notifiers)
}

// Notify sends a notification to every sink.
// Returns an error if any sink fails, but attempts all of them.
func (m *MultiNotifier) Notify(ctx context.Context, notification *domain.Notification) error {
	var errs []error

	for _, notifier := range m.notifiers {
		if err := notifier.Notify(ctx, notification); err != nil {
			m.logger.Warn("notifier failed", "error", err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Validate validates every sink.
func (m *MultiNotifier) Validate(ctx context.Context) error {
	var errs []error

	for _, notifier := range m.notifiers {
		if err := notifier.Validate(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Ensure MultiNotifier implements domain.Notifier.
var _ domain.Notifier = (*MultiNotifier)(nil)
