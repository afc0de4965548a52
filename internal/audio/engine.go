package audio

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Engine owns at most one capture Session at a time.
type Engine struct {
	driver Driver
	cfg    StreamConfig
	log    zerolog.Logger

	mu      sync.Mutex
	session *Session
}

// NewEngine creates a capture engine on top of driver.
func NewEngine(driver Driver, log zerolog.Logger) *Engine {
	return &Engine{
		driver: driver,
		cfg:    DefaultStreamConfig(),
		log:    log,
	}
}

// Driver returns the driver the engine opens streams with.
func (e *Engine) Driver() Driver { return e.driver }

// Start opens a stream on device and begins capture. An active session is
// stopped and released first. Open failures leave nothing held and wrap
// ErrDeviceUnavailable.
func (e *Engine) Start(device Device) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		e.log.Info().Str("session", e.session.ID()).Msg("Replacing active capture session")
		e.stopLocked()
	}

	s := newSession(device, e.log)

	host, err := e.driver.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDeviceUnavailable, e.driver.Name(), err)
	}
	s.host = host

	stream, err := host.OpenStream(device, e.cfg, s.onAudio)
	if err != nil {
		s.release()
		return nil, fmt.Errorf("%w: %q: %w", ErrDeviceUnavailable, device.Name, err)
	}
	s.stream = stream

	s.running.Store(true)
	if err := stream.Start(); err != nil {
		s.release()
		return nil, fmt.Errorf("%w: %q: %w", ErrDeviceUnavailable, device.Name, err)
	}

	e.session = s
	s.log.Info().
		Str("device", device.Name).
		Int("index", device.Index).
		Str("driver", e.driver.Name()).
		Int("sample_rate", e.cfg.SampleRate).
		Int("frames_per_buffer", e.cfg.FramesPerBuffer).
		Msg("System audio capture started")

	return s, nil
}

// StartAuto locates a capture device and starts on it. It returns
// ErrNoDeviceFound without opening a stream when nothing qualifies.
func (e *Engine) StartAuto(extraKeywords ...string) (*Session, error) {
	device, ok := FindCaptureDevice(e.driver, e.log, extraKeywords...)
	if !ok {
		return nil, ErrNoDeviceFound
	}
	return e.Start(device)
}

// Stop ends the active session. It is a no-op when nothing is running.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	if e.session == nil {
		return
	}
	s := e.session
	e.session = nil
	s.release()

	chunks, bytes := s.Stats()
	s.log.Info().Int64("chunks", chunks).Int64("bytes", bytes).Msg("Audio capture stopped")
}

// Session returns the active session, or nil.
func (e *Engine) Session() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// Running reports whether a session is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session != nil && e.session.Running()
}
