// Package app provides the core application logic.
package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/juju/clock"

	"github.com/sharkusmanch/rethinkdb-backup/internal/config"
	"github.com/sharkusmanch/rethinkdb-backup/internal/domain"
)

// shutdownPushTimeout bounds the final "service down" metrics push.
const shutdownPushTimeout = 30 * time.Second

// Runner is the job fired by the scheduler: one retried backup, then metrics,
// then an alert. It never returns an error.
type Runner struct {
	operation     Operation
	retry         *RetryExecutor
	metricsPusher domain.MetricsPusher
	notifier      domain.Notifier
	config        *config.Config
	clock         clock.Clock
	nextRun       func() time.Time
	logger        *slog.Logger
	hostname      string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithOperation sets the operation attempted on each firing.
func WithOperation(op Operation) RunnerOption {
	return func(r *Runner) {
		r.operation = op
	}
}

// WithMetricsPusher sets the metrics pusher.
func WithMetricsPusher(m domain.MetricsPusher) RunnerOption {
	return func(r *Runner) {
		r.metricsPusher = m
	}
}

// WithNotifier sets the notifier.
func WithNotifier(n domain.Notifier) RunnerOption {
	return func(r *Runner) {
		r.notifier = n
	}
}

// WithClock sets the clock shared by the runner and its retry loop.
func WithClock(c clock.Clock) RunnerOption {
	return func(r *Runner) {
		r.clock = c
	}
}

// WithNextRun reports the next scheduled firing in pushed metrics.
func WithNextRun(f func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.nextRun = f
	}
}

// WithHostname overrides the instance label used for metrics.
func WithHostname(h string) RunnerOption {
	return func(r *Runner) {
		r.hostname = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a new Runner.
func NewRunner(cfg *config.Config, opts ...RunnerOption) *Runner {
	hostname, _ := os.Hostname()

	r := &Runner{
		config:   cfg,
		clock:    clock.WallClock,
		logger:   slog.Default(),
		hostname: hostname,
		notifier: &domain.NopNotifier{},
	}

	for _, opt := range opts {
		opt(r)
	}

	r.retry = NewRetryExecutor(cfg.Backup.MaxAttempts, cfg.Backup.RetryDelay,
		WithRetryClock(r.clock),
		WithRetryLogger(r.logger),
	)

	return r
}

// Run executes a single backup cycle and returns its outcome.
func (r *Runner) Run(ctx context.Context) *domain.RunOutcome {
	r.logger.Info("starting backup run",
		"service", r.config.Database.Service,
		"destination", r.destinationLabel(),
		"dry_run", r.config.DryRun,
	)

	var outcome *domain.RunOutcome
	switch {
	case r.config.DryRun:
		r.logger.Info("dry run: skipping dump and upload")
		outcome = domain.NewRunOutcome(r.clock.Now())
		outcome.DryRun = true
		outcome.Complete(r.clock.Now(), 0, nil)
	case r.operation == nil:
		r.logger.Warn("no backup operation configured")
		outcome = domain.NewRunOutcome(r.clock.Now())
		outcome.Complete(r.clock.Now(), 0, nil)
	default:
		outcome = r.retry.Execute(ctx, r.operation)
		if src, ok := r.operation.(interface{ Artifact() string }); ok && outcome.Succeeded {
			outcome.Artifact = src.Artifact()
		}
	}

	if outcome.Succeeded {
		r.logger.Info("backup run completed",
			"run_id", outcome.RunID,
			"attempts", outcome.AttemptsMade,
			"artifact", outcome.Artifact,
			"duration", outcome.Duration,
		)
	} else {
		r.logger.Error("backup run failed",
			"run_id", outcome.RunID,
			"error", outcome.Err(),
			"interrupted", outcome.Interrupted,
			"duration", outcome.Duration,
		)
	}

	if err := r.pushMetrics(ctx, outcome); err != nil {
		r.logger.Error("failed to push metrics", "error", err)
	}

	r.sendNotification(ctx, outcome)

	return outcome
}

// PushServiceDown reports the agent as stopped. Used on shutdown.
func (r *Runner) PushServiceDown() {
	if r.metricsPusher == nil {
		return
	}

	r.logger.Debug("pushing final metrics before shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownPushTimeout)
	defer cancel()

	metrics := domain.NewMetrics(r.hostname)
	metrics.Timestamp = r.clock.Now()
	metrics.ServiceUp = false
	if err := r.metricsPusher.Push(ctx, metrics); err != nil {
		r.logger.Warn("failed to push final metrics", "error", err)
	}
}

// pushMetrics sends the run outcome to the metrics pusher.
func (r *Runner) pushMetrics(ctx context.Context, outcome *domain.RunOutcome) error {
	if r.metricsPusher == nil {
		return nil
	}

	metrics := domain.NewMetrics(r.hostname)
	metrics.Timestamp = r.clock.Now()
	metrics.Outcome = outcome
	if r.nextRun != nil {
		metrics.NextRun = r.nextRun()
	}

	return r.metricsPusher.Push(ctx, metrics)
}

// sendNotification alerts on the outcome according to notify.on. Delivery
// failures are logged and dropped.
func (r *Runner) sendNotification(ctx context.Context, outcome *domain.RunOutcome) {
	if r.notifier == nil {
		return
	}

	if outcome.Interrupted {
		r.logger.Info("run interrupted by shutdown, not alerting", "run_id", outcome.RunID)
		return
	}

	if outcome.Succeeded && r.config.Notify.On != config.NotifyAlways {
		return
	}

	notification := domain.OutcomeNotification(r.config.Database.Service, outcome)
	if err := r.notifier.Notify(ctx, notification); err != nil {
		r.logger.Warn("failed to send notification",
			"run_id", outcome.RunID,
			"error", &domain.NotifierError{Err: err},
		)
	}
}

func (r *Runner) destinationLabel() string {
	if dest := r.config.Destination(); dest != "" {
		return "s3://" + dest
	}
	return "local"
}
