// Package platform integrates the agent with the host service manager.
package platform

import (
	"context"
	"errors"
)

// ServiceName is the name registered with the service control manager.
const ServiceName = "RethinkDBBackup"

// Handler runs the agent until ctx is cancelled.
type Handler func(ctx context.Context) error

// ErrNotSupported is returned where the platform has no service manager integration.
var ErrNotSupported = errors.New("running as a service is not supported on this platform")

// cleanExit reports whether a handler error means an orderly shutdown.
func cleanExit(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}
