//go:build !linux

package audio

import "errors"

type pulseDriver struct{}

// NewPulse returns a driver that always fails outside Linux.
func NewPulse() Driver {
	return pulseDriver{}
}

func (pulseDriver) Name() string { return DriverPulse }

func (pulseDriver) Open() (Host, error) {
	return nil, errors.New("pulse driver is only available on linux")
}
