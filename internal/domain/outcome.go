// Package domain defines core business types and interfaces.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Attempt is a single execution of the backup operation within one run.
type Attempt struct {
	Number int
	Time   time.Time
	Err    error
}

// Failed reports whether the attempt ended with an error.
func (a Attempt) Failed() bool {
	return a.Err != nil
}

// RunOutcome is the terminal result of one scheduled firing.
type RunOutcome struct {
	RunID        string        `json:"run_id"`
	Succeeded    bool          `json:"succeeded"`
	Interrupted  bool          `json:"interrupted,omitempty"`
	DryRun       bool          `json:"dry_run,omitempty"`
	AttemptsMade int           `json:"attempts_made"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Duration     time.Duration `json:"duration"`
	Artifact     string        `json:"artifact,omitempty"`
	LastError    error         `json:"-"`
}

// NewRunOutcome creates an outcome stamped with a fresh run ID.
func NewRunOutcome(start time.Time) *RunOutcome {
	return &RunOutcome{
		RunID:     uuid.NewString(),
		StartTime: start,
	}
}

// Complete finalizes the outcome.
func (o *RunOutcome) Complete(end time.Time, attempts int, lastErr error) {
	o.EndTime = end
	o.Duration = end.Sub(o.StartTime)
	o.AttemptsMade = attempts
	o.LastError = lastErr
	o.Succeeded = lastErr == nil
}

// Err returns an ExhaustedRetriesError for a failed run, nil otherwise.
func (o *RunOutcome) Err() error {
	if o == nil || o.Succeeded {
		return nil
	}
	return &ExhaustedRetriesError{Attempts: o.AttemptsMade, Err: o.LastError}
}

// ErrorMessage returns the last error text, or an empty string.
func (o *RunOutcome) ErrorMessage() string {
	if o == nil || o.LastError == nil {
		return ""
	}
	return o.LastError.Error()
}
