// Package config handles application configuration loading and validation.
package config

import "time"

// Default configuration values.
const (
	DefaultTriggerHour = 18
	DefaultTimezone    = "Local"
	DefaultOutputDir   = "."
	DefaultRemoveLocal = false
	DefaultLocalOnly   = false

	DefaultDatabaseService = "rethinkdb"

	DefaultS3Region = "eu-central-1"

	DefaultBackupMaxAttempts = 3
	DefaultBackupRetryDelay  = 1 * time.Second

	DefaultRetryMaxAttempts  = 3
	DefaultRetryInitialDelay = 5 * time.Second
	DefaultRetryMaxDelay     = 30 * time.Second

	DefaultDatadogSite = "https://api.datadoghq.com"

	DefaultAppriseEnabled = false

	DefaultNotifyOn              = NotifyAlways
	DefaultNotifyBreakerFailures = 3
	DefaultNotifyBreakerTimeout  = 10 * time.Minute

	DefaultMetricsEnabled = false

	DefaultLogLevel     = "info"
	DefaultLogMaxSizeMB = 10
)

// NotifyLevel represents when to send notifications.
type NotifyLevel string

const (
	// NotifyError sends notifications only for failed runs.
	NotifyError NotifyLevel = "error"
	// NotifyAlways sends notifications for every run.
	NotifyAlways NotifyLevel = "always"
)

// IsValid returns true if the notify level is valid.
func (n NotifyLevel) IsValid() bool {
	switch n {
	case NotifyError, NotifyAlways:
		return true
	default:
		return false
	}
}

// String returns the string representation of the notify level.
func (n NotifyLevel) String() string {
	return string(n)
}
