package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOutcome_Complete(t *testing.T) {
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		o := NewRunOutcome(start)
		o.Complete(start.Add(90*time.Second), 2, nil)

		assert.NotEmpty(t, o.RunID)
		assert.True(t, o.Succeeded)
		assert.Equal(t, 2, o.AttemptsMade)
		assert.Equal(t, 90*time.Second, o.Duration)
		assert.NoError(t, o.Err())
		assert.Empty(t, o.ErrorMessage())
	})

	t.Run("failure", func(t *testing.T) {
		cause := errors.New("connection refused")
		o := NewRunOutcome(start)
		o.Complete(start.Add(time.Second), 3, cause)

		assert.False(t, o.Succeeded)
		assert.Equal(t, "connection refused", o.ErrorMessage())

		var exhausted *ExhaustedRetriesError
		require.ErrorAs(t, o.Err(), &exhausted)
		assert.Equal(t, 3, exhausted.Attempts)
		assert.ErrorIs(t, o.Err(), cause)
	})
}

func TestRunOutcome_UniqueRunIDs(t *testing.T) {
	a := NewRunOutcome(time.Now())
	b := NewRunOutcome(time.Now())
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestOutcomeNotification(t *testing.T) {
	t.Run("success template", func(t *testing.T) {
		o := NewRunOutcome(time.Now())
		o.Complete(time.Now(), 1, nil)

		n := OutcomeNotification("rethinkdb", o)

		assert.Equal(t, SuccessTitle, n.Title)
		assert.Equal(t, NotificationLevelSuccess, n.Level)
		assert.Contains(t, n.Body, "completed successfully")
		assert.Equal(t, o.RunID, n.RunID)
	})

	t.Run("failure template interpolates last error", func(t *testing.T) {
		o := NewRunOutcome(time.Now())
		o.Complete(time.Now(), 3, &OperationError{Stage: StageUpload, Err: errors.New("access denied")})

		n := OutcomeNotification("rethinkdb", o)

		assert.Equal(t, FailureTitle, n.Title)
		assert.Equal(t, NotificationLevelError, n.Level)
		assert.Contains(t, n.Body, "3 attempt(s)")
		assert.Contains(t, n.Body, "upload failed: access denied")
	})
}

func TestOperationError_Unwrap(t *testing.T) {
	cause := errors.New("exit status 1")
	err := &OperationError{Stage: StageDump, Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "dump failed: exit status 1", err.Error())
}

func TestConfigurationError(t *testing.T) {
	err := &ConfigurationError{Key: "datadog.api_key", Reason: "is required"}
	assert.Equal(t, "datadog.api_key is required", err.Error())
}
