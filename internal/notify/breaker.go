package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/sharkusmanch/rethinkdb-backup/internal/domain"
)

// BreakerConfig controls when a sink is considered down.
type BreakerConfig struct {
	Name string
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// Timeout is how long the breaker stays open before a trial request.
	Timeout time.Duration
}

// BreakerNotifier short-circuits a sink after repeated delivery failures.
type BreakerNotifier struct {
	next    domain.Notifier
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerNotifier wraps next with a circuit breaker.
func NewBreakerNotifier(next domain.Notifier, cfg BreakerConfig, logger *slog.Logger) *BreakerNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 1
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("notifier circuit breaker changed state",
				"sink", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &BreakerNotifier{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// Notify delivers through the wrapped sink unless the breaker is open.
func (b *BreakerNotifier) Notify(ctx context.Context, notification *domain.Notification) error {
	_, err := b.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Notify(ctx, notification)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", b.breaker.Name(), err)
	}
	return nil
}

// Validate bypasses the breaker so diagnostics always reach the sink.
func (b *BreakerNotifier) Validate(ctx context.Context) error {
	return b.next.Validate(ctx)
}

// State returns the breaker state name.
func (b *BreakerNotifier) State() string {
	return b.breaker.State().String()
}

// Ensure BreakerNotifier implements domain.Notifier.
var _ domain.Notifier = (*BreakerNotifier)(nil)
