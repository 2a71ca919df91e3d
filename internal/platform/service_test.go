package platform

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanExit(t *testing.T) {
	assert.True(t, cleanExit(nil))
	assert.True(t, cleanExit(context.Canceled))
	assert.True(t, cleanExit(fmt.Errorf("scheduler: %w", context.Canceled)))
	assert.False(t, cleanExit(errors.New("database.host is required")))
}
