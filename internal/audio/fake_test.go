package audio

import (
	"errors"
	"sync"
)

// fakeDriver records every handle it hands out so tests can check for leaks.
type fakeDriver struct {
	mu sync.Mutex

	devices   []Device
	listErr   error
	openErr   error
	streamErr error
	startErr  error

	opened  int
	closed  int
	streams []*fakeStream
}

func (d *fakeDriver) Name() string { return "fake" }

func (d *fakeDriver) Open() (Host, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.opened++
	return &fakeHost{driver: d}, nil
}

func (d *fakeDriver) openHosts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened - d.closed
}

func (d *fakeDriver) lastStream() *fakeStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.streams) == 0 {
		return nil
	}
	return d.streams[len(d.streams)-1]
}

type fakeHost struct {
	driver *fakeDriver
	closed bool
}

func (h *fakeHost) Devices() ([]Device, error) {
	if h.driver.listErr != nil {
		return nil, h.driver.listErr
	}
	return h.driver.devices, nil
}

func (h *fakeHost) OpenStream(device Device, cfg StreamConfig, fn DataFunc) (Stream, error) {
	if h.driver.streamErr != nil {
		return nil, h.driver.streamErr
	}
	s := &fakeStream{device: device, cfg: cfg, fn: fn, startErr: h.driver.startErr}
	h.driver.mu.Lock()
	h.driver.streams = append(h.driver.streams, s)
	h.driver.mu.Unlock()
	return s, nil
}

func (h *fakeHost) Close() error {
	if h.closed {
		return errors.New("host closed twice")
	}
	h.closed = true
	h.driver.mu.Lock()
	h.driver.closed++
	h.driver.mu.Unlock()
	return nil
}

type fakeStream struct {
	device   Device
	cfg      StreamConfig
	fn       DataFunc
	startErr error

	started bool
	stopped bool
	closed  bool
}

func (s *fakeStream) Start() error {
	if s.startErr != nil {
		return s.startErr
	}
	s.started = true
	return nil
}

func (s *fakeStream) Stop() error {
	s.stopped = true
	return errors.New("stop after device removal")
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

// deliver simulates the driver's real-time callback.
func (s *fakeStream) deliver(data []byte) {
	s.fn(data)
}
