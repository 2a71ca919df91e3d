package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharkusmanch/rethinkdb-backup/internal/domain"
)

func TestMultiNotifier_Notify_AttemptsAll(t *testing.T) {
	failing := &MockNotifier{
		NotifyFunc: func(context.Context, *domain.Notification) error {
			return errors.New("sink down")
		},
	}
	healthy := &MockNotifier{}

	multi := NewMultiNotifier(nil, failing, nil, healthy)
	assert.Equal(t, 2, multi.Len())

	n := domain.NewNotification("t", "b", domain.NotificationLevelInfo)
	err := multi.Notify(context.Background(), n)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink down")
	assert.Len(t, failing.Notifications(), 1)
	assert.Len(t, healthy.Notifications(), 1)
}

func TestMultiNotifier_Validate(t *testing.T) {
	ok := &MockNotifier{}
	bad := &MockNotifier{
		ValidateFunc: func(context.Context) error { return errors.New("unreachable") },
	}

	assert.NoError(t, NewMultiNotifier(nil, ok).Validate(context.Background()))
	assert.ErrorContains(t, NewMultiNotifier(nil, ok, bad).Validate(context.Background()), "unreachable")
}

func TestMultiNotifier_Empty(t *testing.T) {
	multi := NewMultiNotifier(nil)

	assert.Equal(t, 0, multi.Len())
	assert.NoError(t, multi.Notify(context.Background(), domain.NewNotification("t", "b", domain.NotificationLevelInfo)))
}
