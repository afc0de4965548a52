package audio

import (
	"fmt"

	"github.com/gen2brain/malgo"
)

type miniaudioDriver struct{}

// NewMiniaudio creates the miniaudio (malgo) driver.
func NewMiniaudio() Driver {
	return miniaudioDriver{}
}

func (miniaudioDriver) Name() string { return DriverMiniaudio }

func (miniaudioDriver) Open() (Host, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("malgo init: %w", err)
	}
	return &miniaudioHost{ctx: ctx}, nil
}

type miniaudioHost struct {
	ctx   *malgo.AllocatedContext
	infos []malgo.DeviceInfo
}

func (m *miniaudioHost) Devices() ([]Device, error) {
	infos, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("malgo devices: %w", err)
	}
	m.infos = infos

	result := make([]Device, 0, len(infos))
	for i, d := range infos {
		result = append(result, Device{
			Index:            i,
			Name:             d.Name(),
			MaxInputChannels: 1,
			ID:               d.Name(),
		})
	}
	return result, nil
}

func (m *miniaudioHost) OpenStream(device Device, cfg StreamConfig, fn DataFunc) (Stream, error) {
	if m.infos == nil {
		if _, err := m.Devices(); err != nil {
			return nil, err
		}
	}
	if device.Index < 0 || device.Index >= len(m.infos) {
		return nil, fmt.Errorf("device index %d out of range", device.Index)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(cfg.FramesPerBuffer)

	devID := m.infos[device.Index].ID
	deviceConfig.Capture.DeviceID = devID.Pointer()

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, in []byte, _ uint32) {
			fn(cloneBytes(in))
		},
	}

	dev, err := malgo.InitDevice(m.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, fmt.Errorf("malgo init device: %w", err)
	}
	return &miniaudioStream{device: dev}, nil
}

func (m *miniaudioHost) Close() error {
	err := m.ctx.Uninit()
	m.ctx.Free()
	return err
}

type miniaudioStream struct {
	device *malgo.Device
}

func (s *miniaudioStream) Start() error {
	return s.device.Start()
}

func (s *miniaudioStream) Stop() error {
	return s.device.Stop()
}

func (s *miniaudioStream) Close() error {
	s.device.Uninit()
	return nil
}
