//go:build !windows

package platform

// RunAsService is not supported on non-Windows platforms; use a process
// supervisor such as systemd to run the serve command instead.
func RunAsService(_ Handler) error {
	return ErrNotSupported
}

// IsRunningAsService returns false on non-Windows platforms.
func IsRunningAsService() bool {
	return false
}
