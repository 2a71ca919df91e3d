package domain

import "fmt"

// ConfigurationError reports a missing or invalid configuration value.
// It is fatal: the agent refuses to start.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s %s", e.Key, e.Reason)
}

// Backup stages reported by OperationError.
const (
	StageDump    = "dump"
	StageUpload  = "upload"
	StagePrepare = "prepare"
)

// OperationError reports a failed backup attempt. Dump and upload failures
// are treated the same by the retry loop; Stage is informational.
type OperationError struct {
	Stage string
	Err   error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// ExhaustedRetriesError reports that every attempt of a run failed.
type ExhaustedRetriesError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("backup failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *ExhaustedRetriesError) Unwrap() error {
	return e.Err
}

// NotifierError reports that an alert could not be delivered.
type NotifierError struct {
	Err error
}

func (e *NotifierError) Error() string {
	return fmt.Sprintf("notification not delivered: %v", e.Err)
}

func (e *NotifierError) Unwrap() error {
	return e.Err
}
