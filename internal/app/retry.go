package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"

	"github.com/sharkusmanch/rethinkdb-backup/internal/domain"
)

// RetryExecutor runs an operation up to a fixed number of times with a fixed
// delay between attempts and folds the attempts into one RunOutcome.
type RetryExecutor struct {
	maxAttempts int
	delay       time.Duration
	clock       clock.Clock
	logger      *slog.Logger
}

// RetryOption configures a RetryExecutor.
type RetryOption func(*RetryExecutor)

// WithRetryClock sets the clock used for the inter-attempt delay.
func WithRetryClock(c clock.Clock) RetryOption {
	return func(e *RetryExecutor) {
		e.clock = c
	}
}

// WithRetryLogger sets the logger.
func WithRetryLogger(l *slog.Logger) RetryOption {
	return func(e *RetryExecutor) {
		e.logger = l
	}
}

// NewRetryExecutor creates a new RetryExecutor. Values below one attempt or a
// non-positive delay fall back to the defaults.
func NewRetryExecutor(maxAttempts int, delay time.Duration, opts ...RetryOption) *RetryExecutor {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	if delay <= 0 {
		delay = time.Second
	}

	e := &RetryExecutor{
		maxAttempts: maxAttempts,
		delay:       delay,
		clock:       clock.WallClock,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Execute runs op until it succeeds or the attempt budget is spent. It never
// returns an error: the outcome carries the last attempt error instead.
// Cancelling ctx during a delay ends the run early and marks it Interrupted.
func (e *RetryExecutor) Execute(ctx context.Context, op Operation) *domain.RunOutcome {
	outcome := domain.NewRunOutcome(e.clock.Now())

	var (
		attempts int
		lastErr  error
	)

	err := retry.Call(retry.CallArgs{
		Func: func() error {
			attempts++
			err := op.Run(ctx)
			if err != nil {
				lastErr = err
			}
			return err
		},
		NotifyFunc: func(err error, _ int) {
			a := domain.Attempt{Number: attempts, Time: e.clock.Now(), Err: err}
			if a.Number < e.maxAttempts {
				e.logger.Warn("backup attempt failed, retrying",
					"run_id", outcome.RunID,
					"attempt", a.Number,
					"max_attempts", e.maxAttempts,
					"delay", e.delay,
					"error", a.Err,
				)
				return
			}
			e.logger.Error("backup attempt failed",
				"run_id", outcome.RunID,
				"attempt", a.Number,
				"max_attempts", e.maxAttempts,
				"error", a.Err,
			)
		},
		Attempts: e.maxAttempts,
		Delay:    e.delay,
		Clock:    e.clock,
		Stop:     ctx.Done(),
	})

	if err == nil {
		// Earlier failed attempts do not count against a successful run.
		lastErr = nil
	} else {
		if lastErr == nil {
			lastErr = err
		}
		if retry.IsRetryStopped(err) || ctx.Err() != nil {
			outcome.Interrupted = true
		}
	}

	outcome.Complete(e.clock.Now(), attempts, lastErr)
	return outcome
}
