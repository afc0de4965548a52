package audio

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// LoopbackKeywords identify devices that record system output rather than a microphone.
var LoopbackKeywords = []string{
	"stereo mix",
	"loopback",
	"what you hear",
	"system audio",
	"virtual audio",
}

// Locate picks a capture device from an enumeration. It prefers the first device
// whose name contains a loopback keyword (case-insensitive), then falls back to
// the first device with input channels. The fallback may be a microphone.
func Locate(devices []Device, extraKeywords ...string) (Device, bool) {
	keywords := make([]string, 0, len(LoopbackKeywords)+len(extraKeywords))
	keywords = append(keywords, LoopbackKeywords...)
	for _, kw := range extraKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			keywords = append(keywords, kw)
		}
	}

	if d, ok := findLoopback(devices, keywords); ok {
		return d, true
	}
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			return d, true
		}
	}
	return Device{}, false
}

// IsLoopback reports whether name matches one of the default loopback keywords.
func IsLoopback(name string) bool {
	_, ok := findLoopback([]Device{{Name: name}}, LoopbackKeywords)
	return ok
}

func findLoopback(devices []Device, keywords []string) (Device, bool) {
	for _, d := range devices {
		lower := strings.ToLower(d.Name)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return d, true
			}
		}
	}
	return Device{}, false
}

// ListDevices enumerates the driver's devices, releasing the subsystem handle before returning.
func ListDevices(driver Driver) ([]Device, error) {
	host, err := driver.Open()
	if err != nil {
		return nil, err
	}
	defer host.Close()

	return host.Devices()
}

// FindCaptureDevice enumerates devices and applies Locate. Enumeration failures
// are logged and reported as absence.
func FindCaptureDevice(driver Driver, log zerolog.Logger, extraKeywords ...string) (Device, bool) {
	devices, err := ListDevices(driver)
	if err != nil {
		log.Error().Err(err).Str("driver", driver.Name()).Msg("Error finding audio devices")
		return Device{}, false
	}

	d, ok := Locate(devices, extraKeywords...)
	switch {
	case !ok:
		log.Warn().Int("devices", len(devices)).Msg("No system audio device found")
	case IsLoopback(d.Name):
		log.Info().Str("device", d.Name).Int("index", d.Index).Msg("Found system audio device")
	default:
		log.Info().Str("device", d.Name).Int("index", d.Index).Msg("Using fallback device")
	}
	return d, ok
}

// DeviceName returns the name of the device at index, or "Device <index>" when
// it cannot be resolved.
func DeviceName(driver Driver, index int) string {
	devices, err := ListDevices(driver)
	if err == nil {
		for _, d := range devices {
			if d.Index == index {
				return d.Name
			}
		}
	}
	return fmt.Sprintf("Device %d", index)
}
