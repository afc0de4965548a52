// Package permissions checks that the OS lets the process read audio input.
package permissions

import (
	"errors"
	"fmt"
)

// Authorization states as reported by AVFoundation.
const (
	PermissionNotDetermined = 0
	PermissionRestricted    = 1
	PermissionDenied        = 2
	PermissionAuthorized    = 3
)

// ErrCaptureNotPermitted means the OS has not granted audio input access.
var ErrCaptureNotPermitted = errors.New("audio capture permission not granted")

func statusError(status int) error {
	switch status {
	case PermissionAuthorized:
		return nil
	case PermissionNotDetermined:
		return fmt.Errorf("%w: approve the prompt, then start capture again", ErrCaptureNotPermitted)
	case PermissionRestricted:
		return fmt.Errorf("%w: restricted by system policy", ErrCaptureNotPermitted)
	case PermissionDenied:
		return fmt.Errorf("%w: enable it in System Settings → Privacy & Security → Microphone", ErrCaptureNotPermitted)
	default:
		return fmt.Errorf("%w: unknown status %d", ErrCaptureNotPermitted, status)
	}
}
