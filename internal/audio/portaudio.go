package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

type portAudioDriver struct{}

// NewPortAudio creates the PortAudio-backed driver.
func NewPortAudio() Driver {
	return portAudioDriver{}
}

func (portAudioDriver) Name() string { return DriverPortAudio }

// Open initializes PortAudio. PortAudio reference-counts Initialize/Terminate,
// so each Host owns exactly one initialization.
func (portAudioDriver) Open() (Host, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &portAudioHost{}, nil
}

type portAudioHost struct {
	closed bool
}

func (h *portAudioHost) Devices() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	result := make([]Device, 0, len(devices))
	for _, d := range devices {
		result = append(result, Device{
			Index:            d.Index,
			Name:             d.Name,
			MaxInputChannels: d.MaxInputChannels,
			ID:               d.Name,
		})
	}
	return result, nil
}

func (h *portAudioHost) OpenStream(device Device, cfg StreamConfig, fn DataFunc) (Stream, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	if device.Index < 0 || device.Index >= len(devices) {
		return nil, fmt.Errorf("device index %d out of range", device.Index)
	}
	info := devices[device.Index]
	if info.MaxInputChannels < cfg.Channels {
		return nil, fmt.Errorf("device %q has no input channels", info.Name)
	}

	// Open stream: mono, 16-bit, callback driven
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: cfg.Channels,
			Latency:  info.DefaultLowInputLatency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: cfg.FramesPerBuffer,
	}, func(in []int16) {
		fn(int16ToBytes(in))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}

	return &portAudioStream{stream: stream}, nil
}

func (h *portAudioHost) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	return portaudio.Terminate()
}

type portAudioStream struct {
	stream *portaudio.Stream
}

func (s *portAudioStream) Start() error {
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("failed to start audio stream: %w", err)
	}
	return nil
}

func (s *portAudioStream) Stop() error {
	return s.stream.Stop()
}

func (s *portAudioStream) Close() error {
	return s.stream.Close()
}
