package domain

import (
	"context"
	"fmt"
)

// NotificationLevel represents the severity of a notification.
type NotificationLevel string

const (
	// NotificationLevelInfo is for informational messages.
	NotificationLevelInfo NotificationLevel = "info"
	// NotificationLevelSuccess is for completed backups.
	NotificationLevelSuccess NotificationLevel = "success"
	// NotificationLevelWarning is for warning messages.
	NotificationLevelWarning NotificationLevel = "warning"
	// NotificationLevelError is for failed backups.
	NotificationLevelError NotificationLevel = "error"
)

// Alert titles sent to the alerting sink.
const (
	SuccessTitle = "Backup Success"
	FailureTitle = "Backup Failure"
)

// Notification represents a notification to be sent.
type Notification struct {
	// Title is the notification title.
	Title string `json:"title"`

	// Body is the notification body/message.
	Body string `json:"body"`

	// Level is the severity level.
	Level NotificationLevel `json:"level"`

	// RunID ties the notification to a backup run, if any.
	RunID string `json:"run_id,omitempty"`
}

// NewNotification creates a new notification.
func NewNotification(title, body string, level NotificationLevel) *Notification {
	return &Notification{
		Title: title,
		Body:  body,
		Level: level,
	}
}

// OutcomeNotification renders the fixed success or failure template for a run.
func OutcomeNotification(service string, outcome *RunOutcome) *Notification {
	var n *Notification
	if outcome.Succeeded {
		n = NewNotification(SuccessTitle,
			fmt.Sprintf("The %s backup completed successfully.", service),
			NotificationLevelSuccess)
	} else {
		n = NewNotification(FailureTitle,
			fmt.Sprintf("The %s backup failed after %d attempt(s): %s",
				service, outcome.AttemptsMade, outcome.ErrorMessage()),
			NotificationLevelError)
	}
	n.RunID = outcome.RunID
	return n
}

// Notifier defines the interface for sending notifications to an alerting sink.
type Notifier interface {
	// Notify sends a notification.
	Notify(ctx context.Context, notification *Notification) error

	// Validate checks if the notifier is properly configured.
	Validate(ctx context.Context) error
}

// NopNotifier is a no-op notifier that does nothing.
type NopNotifier struct{}

// Notify does nothing.
func (n *NopNotifier) Notify(_ context.Context, _ *Notification) error {
	return nil
}

// Validate always returns nil.
func (n *NopNotifier) Validate(_ context.Context) error {
	return nil
}
