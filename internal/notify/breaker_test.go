package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharkusmanch/rethinkdb-backup/internal/domain"
)

func TestBreakerNotifier_OpensAfterConsecutiveFailures(t *testing.T) {
	sink := &MockNotifier{
		NotifyFunc: func(context.Context, *domain.Notification) error {
			return errors.New("sink down")
		},
	}
	b := NewBreakerNotifier(sink, BreakerConfig{
		Name:                "datadog",
		ConsecutiveFailures: 2,
		Timeout:             time.Hour,
	}, nil)

	n := domain.NewNotification("t", "b", domain.NotificationLevelError)
	ctx := context.Background()

	require.Error(t, b.Notify(ctx, n))
	require.Error(t, b.Notify(ctx, n))
	assert.Equal(t, "open", b.State())

	err := b.Notify(ctx, n)
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Contains(t, err.Error(), "datadog")
	assert.Len(t, sink.Notifications(), 2, "open breaker must not reach the sink")
}

func TestBreakerNotifier_PassesThroughWhenHealthy(t *testing.T) {
	sink := &MockNotifier{}
	b := NewBreakerNotifier(sink, BreakerConfig{Name: "apprise", ConsecutiveFailures: 1, Timeout: time.Minute}, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Notify(context.Background(), domain.NewNotification("t", "b", domain.NotificationLevelSuccess)))
	}
	assert.Equal(t, "closed", b.State())
	assert.Len(t, sink.Notifications(), 3)
}

func TestBreakerNotifier_ValidateBypassesBreaker(t *testing.T) {
	validated := 0
	sink := &MockNotifier{
		NotifyFunc: func(context.Context, *domain.Notification) error { return errors.New("down") },
		ValidateFunc: func(context.Context) error {
			validated++
			return nil
		},
	}
	b := NewBreakerNotifier(sink, BreakerConfig{Name: "x", ConsecutiveFailures: 1, Timeout: time.Hour}, nil)

	require.Error(t, b.Notify(context.Background(), domain.NewNotification("t", "b", domain.NotificationLevelError)))
	assert.Equal(t, "open", b.State())

	assert.NoError(t, b.Validate(context.Background()))
	assert.Equal(t, 1, validated)
}
