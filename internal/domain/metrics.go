package domain

import (
	"context"
	"time"
)

// Metrics contains all metrics to be pushed.
type Metrics struct {
	// Timestamp when metrics were collected.
	Timestamp time.Time

	// Hostname of the machine.
	Hostname string

	// ServiceUp indicates if the agent is running.
	ServiceUp bool

	// Outcome of the most recent run, if any.
	Outcome *RunOutcome

	// NextRun is the next scheduled firing, zero if unknown.
	NextRun time.Time
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(hostname string) *Metrics {
	return &Metrics{
		Timestamp: time.Now(),
		Hostname:  hostname,
		ServiceUp: true,
	}
}

// MetricsPusher defines the interface for pushing metrics to a remote endpoint.
type MetricsPusher interface {
	// Push sends metrics to the remote endpoint.
	Push(ctx context.Context, metrics *Metrics) error

	// Validate checks if the pusher is properly configured.
	Validate(ctx context.Context) error
}
