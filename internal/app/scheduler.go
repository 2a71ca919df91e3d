package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/juju/clock"
)

// NextRun returns the next firing at hour:00 in now's location. Once the
// trigger hour has started the run rolls over to tomorrow, even at hour:00:00.
// The wall-clock hour is kept across DST changes, so on those dates the wait
// is an hour shorter or longer than usual.
func NextRun(now time.Time, hour int) time.Time {
	desired := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if now.Hour() >= hour {
		desired = time.Date(now.Year(), now.Month(), now.Day()+1, hour, 0, 0, 0, now.Location())
	}
	return desired
}

// delayUntil returns next - now rounded up to a whole second.
func delayUntil(now, next time.Time) time.Duration {
	d := next.Sub(now)
	if rem := d % time.Second; rem > 0 {
		d += time.Second - rem
	}
	return d
}

// Scheduler fires the runner once a day at a fixed hour.
type Scheduler struct {
	runner   *Runner
	hour     int
	location *time.Location
	clock    clock.Clock
	logger   *slog.Logger

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTriggerHour sets the hour of day (0-23) at which backups start.
func WithTriggerHour(hour int) SchedulerOption {
	return func(s *Scheduler) {
		s.hour = hour
	}
}

// WithLocation sets the time zone the trigger hour is read in.
func WithLocation(loc *time.Location) SchedulerOption {
	return func(s *Scheduler) {
		s.location = loc
	}
}

// WithSchedulerClock sets the clock that arms the trigger timer.
func WithSchedulerClock(c clock.Clock) SchedulerOption {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithSchedulerLogger sets the logger.
func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// NewScheduler creates a new Scheduler.
func NewScheduler(runner *Runner, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		runner:   runner,
		hour:     18,
		location: time.Local,
		clock:    clock.WallClock,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// NextRun returns the next firing time from the scheduler's clock.
func (s *Scheduler) NextRun() time.Time {
	return NextRun(s.clock.Now().In(s.location), s.hour)
}

// Start runs the scheduler loop. It blocks until Stop is called, which
// returns nil, or ctx is cancelled, which returns ctx.Err().
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.stoppedCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		close(s.stoppedCh)
		s.mu.Unlock()
	}()

	s.logger.Info("scheduler started",
		"trigger_hour", s.hour,
		"timezone", s.location.String(),
	)

	for {
		now := s.clock.Now().In(s.location)
		next := NextRun(now, s.hour)
		delay := delayUntil(now, next)

		s.logger.Info("next backup scheduled", "at", next.Format(time.RFC3339), "in", delay)

		timer := s.clock.NewTimer(delay)

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopping due to context cancellation")
			s.runner.PushServiceDown()
			return ctx.Err()

		case <-stopCh:
			timer.Stop()
			s.logger.Info("scheduler stopping due to stop signal")
			s.runner.PushServiceDown()
			return nil

		case <-timer.Chan():
			s.logger.Debug("trigger time reached, running backup")
			s.fire(ctx)
		}
	}
}

// fire runs one backup. A panic is logged and the loop carries on.
func (s *Scheduler) fire(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("backup run panicked", "panic", fmt.Sprint(r))
		}
	}()

	s.runner.Run(ctx)
}

// Stop signals the scheduler to stop and waits for the loop to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	stoppedCh := s.stoppedCh
	s.mu.Unlock()

	<-stoppedCh
}

// IsRunning returns true if the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
