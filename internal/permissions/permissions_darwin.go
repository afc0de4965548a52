//go:build darwin

package permissions

/*
#cgo LDFLAGS: -framework AVFoundation
#import <AVFoundation/AVFoundation.h>

int checkCapturePermission() {
    AVAuthorizationStatus status = [AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
    return (int)status;
}

void requestCapturePermission() {
    [AVCaptureDevice requestAccessForMediaType:AVMediaTypeAudio completionHandler:^(BOOL granted) {}];
}
*/
import "C"

// CheckCapture returns the current audio input permission status.
// Loopback devices such as BlackHole are gated by the same permission as a microphone.
func CheckCapture() int {
	return int(C.checkCapturePermission())
}

// EnsureCapture returns nil when capture is authorized. When the user has not
// been asked yet it triggers the system prompt and still returns an error.
func EnsureCapture() error {
	status := CheckCapture()
	if status == PermissionNotDetermined {
		C.requestCapturePermission()
	}
	return statusError(status)
}
