//go:build !darwin

package permissions

// CheckCapture reports authorized; only macOS gates audio input.
func CheckCapture() int {
	return PermissionAuthorized
}

// EnsureCapture is a no-op on non-macOS platforms.
func EnsureCapture() error {
	return statusError(CheckCapture())
}
