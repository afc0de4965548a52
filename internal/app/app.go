// Package app wires device detection, capture and transcription together and
// reports progress to a Presenter.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/petems/audiotexter/internal/audio"
	"github.com/petems/audiotexter/internal/config"
	"github.com/petems/audiotexter/internal/permissions"
	"github.com/petems/audiotexter/internal/pipeline"
	"github.com/petems/audiotexter/internal/whisper"
)

// Status lines shown to the user.
const (
	StatusReady    = "Ready to capture system audio..."
	StatusDetected = "System audio device ready! Start capture when audio is playing"
	StatusNoDevice = "No system audio device found"
	StatusLive     = "LIVE - Capturing system audio..."
	StatusStopped  = "Stopped audio capture."
)

// Presenter receives utterances and status messages, e.g. the tray or a console.
// Calls arrive from background goroutines.
type Presenter interface {
	OnUtterance(text string)
	OnStatus(message string)
}

type Config struct {
	Engine      *audio.Engine
	Transcriber whisper.Transcriber
	Config      *config.Config
	Logger      zerolog.Logger
	Presenter   Presenter               // Optional - can be nil
	Transcript  pipeline.TranscriptSink // Optional - can be nil

	// CheckPermission runs before every capture start. Defaults to
	// permissions.EnsureCapture.
	CheckPermission func() error
}

type App struct {
	engine     *audio.Engine
	stt        whisper.Transcriber
	cfg        *config.Config
	log        zerolog.Logger
	transcript pipeline.TranscriptSink
	checkPerm  func() error

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	presenter  Presenter
	device     audio.Device
	hasDevice  bool
	utterances chan pipeline.Utterance
	done       chan struct{}
}

func New(cfg Config) *App {
	ctx, cancel := context.WithCancel(context.Background())

	checkPerm := cfg.CheckPermission
	if checkPerm == nil {
		checkPerm = permissions.EnsureCapture
	}

	return &App{
		engine:     cfg.Engine,
		stt:        cfg.Transcriber,
		cfg:        cfg.Config,
		log:        cfg.Logger,
		transcript: cfg.Transcript,
		checkPerm:  checkPerm,
		presenter:  cfg.Presenter,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// SetPresenter sets the presenter (for circular dependency resolution)
func (a *App) SetPresenter(p Presenter) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.presenter = p
}

// DetectDevice picks the capture device: the configured device name if it is
// present, otherwise the locator's choice.
func (a *App) DetectDevice() (audio.Device, bool) {
	dev, ok, source := a.detect()

	a.mu.Lock()
	a.device, a.hasDevice = dev, ok
	a.mu.Unlock()

	if !ok {
		a.status(StatusNoDevice)
		return audio.Device{}, false
	}

	a.status(fmt.Sprintf("System Audio Device: %s (%s)", dev.Name, source))
	a.status(StatusDetected)
	return dev, true
}

func (a *App) detect() (audio.Device, bool, string) {
	driver := a.engine.Driver()

	if name := strings.TrimSpace(a.cfg.Audio.DeviceName); name != "" {
		devices, err := audio.ListDevices(driver)
		if err != nil {
			a.log.Warn().Err(err).Msg("Failed to list devices for configured device")
		}
		for _, d := range devices {
			if strings.EqualFold(d.Name, name) && d.MaxInputChannels > 0 {
				a.log.Info().Str("device", d.Name).Int("index", d.Index).Msg("Using configured device")
				return d, true, "Configured"
			}
		}
		a.log.Warn().Str("device", name).Msg("Configured device not found, auto-detecting")
	}

	dev, ok := audio.FindCaptureDevice(driver, a.log, a.cfg.Audio.ExtraKeywords...)
	return dev, ok, "Auto-detected"
}

// Start opens the detected device and starts transcribing. Starting while
// already capturing is a no-op.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.engine.Running() {
		return nil
	}
	if !a.hasDevice {
		a.statusLocked(StatusNoDevice)
		return audio.ErrNoDeviceFound
	}

	if err := a.checkPerm(); err != nil {
		a.statusLocked("Error: " + err.Error())
		return err
	}

	a.log.Info().Str("device", a.device.Name).Msg("Starting capture")

	session, err := a.engine.Start(a.device)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to start capture")
		a.statusLocked("Error: " + err.Error())
		return err
	}

	p := pipeline.New(a.stt, pipeline.OptionsFromConfig(a.cfg), a.log)
	p.OnStatus(a.status)
	if a.transcript != nil {
		p.WithTranscript(a.transcript)
	}

	utterances := make(chan pipeline.Utterance, 64)
	done := make(chan struct{})
	a.utterances = utterances
	a.done = done

	go a.forward(p.Produce(a.ctx, session), utterances, done)

	a.statusLocked(StatusLive)
	return nil
}

// forward hands each utterance to the presenter and republishes it on the
// session channel. Subscribers that fall behind miss utterances.
func (a *App) forward(in <-chan pipeline.Utterance, out chan<- pipeline.Utterance, done chan<- struct{}) {
	defer close(done)
	defer close(out)

	for u := range in {
		a.log.Info().Str("text", u.Text).Bool("final", u.Final).Msg("Utterance")

		a.mu.Lock()
		presenter := a.presenter
		a.mu.Unlock()
		if presenter != nil {
			presenter.OnUtterance(u.Text)
		}

		select {
		case out <- u:
		default:
			a.log.Debug().Msg("Utterance channel full, dropping")
		}
	}
}

// Stop ends capture. The pipeline flushes the trailing audio and finishes in
// the background; use Wait to block on it. Safe to call repeatedly.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.engine.Session() == nil {
		return
	}

	a.log.Info().Msg("Stopping capture")
	a.engine.Stop()
	a.statusLocked(StatusStopped)
	a.statusLocked(StatusReady)
}

// Wait blocks until the current pipeline has flushed and exited, or ctx is done.
func (a *App) Wait(ctx context.Context) error {
	a.mu.Lock()
	done := a.done
	a.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Utterances returns the utterance channel of the current (or last) session.
// It is closed when that session's pipeline ends; nil before the first Start.
func (a *App) Utterances() <-chan pipeline.Utterance {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.utterances
}

func (a *App) IsCapturing() bool {
	return a.engine.Running()
}

// Device returns the detected device, if any.
func (a *App) Device() (audio.Device, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.device, a.hasDevice
}

func (a *App) ListDevices() ([]audio.Device, error) {
	return audio.ListDevices(a.engine.Driver())
}

// Shutdown stops capture, waits for the final flush, then cancels any
// in-flight work.
func (a *App) Shutdown(ctx context.Context) error {
	a.Stop()
	err := a.Wait(ctx)
	a.cancel()
	if errors.Is(err, context.DeadlineExceeded) {
		a.log.Warn().Msg("Shutdown timed out waiting for final transcription")
	}
	return err
}

func (a *App) status(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.statusLocked(msg)
}

func (a *App) statusLocked(msg string) {
	if a.presenter != nil {
		a.presenter.OnStatus(msg)
	}
}
