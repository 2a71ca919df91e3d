//go:build windows

package platform

import (
	"context"

	"golang.org/x/sys/windows/svc"
)

// RunAsService runs handler under the Windows service control manager and
// blocks until the service stops.
func RunAsService(handler Handler) error {
	return svc.Run(ServiceName, &windowsService{handler: handler})
}

// IsRunningAsService returns true if running as a Windows service.
func IsRunningAsService() bool {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return false
	}
	return isService
}

// windowsService implements svc.Handler.
type windowsService struct {
	handler Handler
}

func (ws *windowsService) Execute(_ []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (bool, uint32) {
	const cmdsAccepted = svc.AcceptStop | svc.AcceptShutdown

	changes <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- ws.handler(ctx)
	}()

	changes <- svc.Status{State: svc.Running, Accepts: cmdsAccepted}

	for {
		select {
		case err := <-errCh:
			if !cleanExit(err) {
				return true, 1
			}
			return false, 0

		case c := <-r:
			switch c.Cmd {
			case svc.Interrogate:
				changes <- c.CurrentStatus

			case svc.Stop, svc.Shutdown:
				changes <- svc.Status{State: svc.StopPending}
				cancel()
				if err := <-errCh; !cleanExit(err) {
					return true, 1
				}
				return false, 0
			}
		}
	}
}
