//go:build linux

package audio

import (
	"fmt"

	"github.com/jfreymuth/pulse"
)

type pulseDriver struct{}

// NewPulse creates the PulseAudio driver. Monitor sources ("Monitor of ...")
// record what the sinks play, which makes them loopback devices.
func NewPulse() Driver {
	return pulseDriver{}
}

func (pulseDriver) Name() string { return DriverPulse }

func (pulseDriver) Open() (Host, error) {
	c, err := pulse.NewClient()
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", err)
	}
	return &pulseHost{client: c}, nil
}

type pulseHost struct {
	client *pulse.Client
}

func (p *pulseHost) Devices() ([]Device, error) {
	sources, err := p.client.ListSources()
	if err != nil {
		return nil, fmt.Errorf("pulse list sources: %w", err)
	}
	devices := make([]Device, 0, len(sources))
	for i, s := range sources {
		devices = append(devices, Device{
			Index: i,
			Name:  s.Name(),
			// every pulse source is recordable
			MaxInputChannels: 1,
			ID:               s.ID(),
		})
	}
	return devices, nil
}

func (p *pulseHost) OpenStream(device Device, cfg StreamConfig, fn DataFunc) (Stream, error) {
	source, err := p.client.SourceByID(device.ID)
	if err != nil {
		return nil, fmt.Errorf("pulse source %q: %w", device.ID, err)
	}

	writer := pulse.Int16Writer(func(buf []int16) (int, error) {
		if len(buf) == 0 {
			return 0, nil
		}
		fn(int16ToBytes(buf))
		return len(buf), nil
	})

	latency := float64(cfg.FramesPerBuffer) / float64(cfg.SampleRate)
	stream, err := p.client.NewRecord(writer,
		pulse.RecordMono,
		pulse.RecordSampleRate(cfg.SampleRate),
		pulse.RecordLatency(latency),
		pulse.RecordSource(source),
	)
	if err != nil {
		return nil, fmt.Errorf("pulse record: %w", err)
	}
	return &pulseStream{stream: stream}, nil
}

func (p *pulseHost) Close() error {
	p.client.Close()
	return nil
}

type pulseStream struct {
	stream *pulse.RecordStream
}

func (s *pulseStream) Start() error {
	s.stream.Start()
	return nil
}

func (s *pulseStream) Stop() error {
	s.stream.Stop()
	return nil
}

func (s *pulseStream) Close() error {
	s.stream.Close()
	return nil
}
