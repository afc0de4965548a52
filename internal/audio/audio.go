package audio

import (
	"errors"
	"fmt"
)

// Capture format shared by every driver: mono, 16 kHz, signed 16-bit little endian.
const (
	SampleRate      = 16000
	Channels        = 1
	BytesPerSample  = 2
	FramesPerBuffer = 2048
)

var (
	// ErrNoDeviceFound means no loopback device and no input-capable fallback exists.
	ErrNoDeviceFound = errors.New("no capture device found")
	// ErrDeviceUnavailable means the device could not be opened (removed, busy, bad index).
	ErrDeviceUnavailable = errors.New("capture device unavailable")
)

// Device represents an audio input device as enumerated by a driver.
// Indexes are only meaningful within the enumeration that produced them.
type Device struct {
	Index            int
	Name             string
	MaxInputChannels int
	// ID is the driver's own handle for the device (source name, etc).
	ID string
}

// StreamConfig describes the stream a driver must open.
type StreamConfig struct {
	SampleRate      int
	Channels        int
	FramesPerBuffer int
}

// DefaultStreamConfig returns the capture format used by the pipeline.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		SampleRate:      SampleRate,
		Channels:        Channels,
		FramesPerBuffer: FramesPerBuffer,
	}
}

// DataFunc receives one filled buffer of S16LE bytes. It runs on the driver's
// real-time thread and takes ownership of data.
type DataFunc func(data []byte)

// Driver is a platform audio subsystem.
type Driver interface {
	Name() string
	// Open acquires a subsystem handle. Every successful Open must be paired with Host.Close.
	Open() (Host, error)
}

// Host is an acquired audio subsystem handle.
type Host interface {
	Devices() ([]Device, error)
	OpenStream(device Device, cfg StreamConfig, fn DataFunc) (Stream, error)
	Close() error
}

// Stream is an open input stream delivering buffers to its DataFunc.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// NewDriver returns the driver registered under name. An empty name selects PortAudio.
func NewDriver(name string) (Driver, error) {
	switch name {
	case "", DriverPortAudio:
		return NewPortAudio(), nil
	case DriverPulse:
		return NewPulse(), nil
	case DriverMiniaudio:
		return NewMiniaudio(), nil
	default:
		return nil, fmt.Errorf("unknown audio driver %q (supported: %s, %s, %s)",
			name, DriverPortAudio, DriverPulse, DriverMiniaudio)
	}
}

// Driver names accepted by NewDriver.
const (
	DriverPortAudio = "portaudio"
	DriverPulse     = "pulse"
	DriverMiniaudio = "miniaudio"
)
