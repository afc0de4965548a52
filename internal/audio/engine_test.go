package audio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var loopbackDevice = Device{Index: 1, Name: "Stereo Mix", MaxInputChannels: 2}

func TestEngineStartOpensMonoStream(t *testing.T) {
	driver := &fakeDriver{devices: []Device{loopbackDevice}}
	engine := NewEngine(driver, zerolog.Nop())

	s, err := engine.Start(loopbackDevice)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer engine.Stop()

	stream := driver.lastStream()
	if !stream.started {
		t.Fatal("expected stream to be started")
	}
	if stream.cfg != DefaultStreamConfig() {
		t.Errorf("unexpected stream config %+v", stream.cfg)
	}
	if stream.cfg.SampleRate != 16000 || stream.cfg.Channels != 1 {
		t.Errorf("expected 16 kHz mono, got %+v", stream.cfg)
	}
	if !s.Running() || !engine.Running() {
		t.Fatal("expected session to be running")
	}
	if s.Device() != loopbackDevice {
		t.Errorf("unexpected device %+v", s.Device())
	}
	if s.ID() == "" {
		t.Error("expected session id")
	}
}

func TestEngineCallbackEnqueues(t *testing.T) {
	driver := &fakeDriver{}
	engine := NewEngine(driver, zerolog.Nop())

	s, err := engine.Start(loopbackDevice)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	stream := driver.lastStream()
	stream.deliver([]byte{1, 2, 3, 4})
	stream.deliver([]byte{5, 6})

	got, err := s.Chunks().Pop(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if len(got) != 4 || got[0] != 1 {
		t.Errorf("unexpected first chunk %v", got)
	}

	chunks, bytes := s.Stats()
	if chunks != 2 || bytes != 6 {
		t.Errorf("expected 2 chunks / 6 bytes, got %d / %d", chunks, bytes)
	}

	engine.Stop()

	// trailing callback after stop must not enqueue
	stream.deliver([]byte{7, 8})
	if s.Chunks().Len() != 1 {
		t.Errorf("expected only the pre-stop chunk to remain, got %d", s.Chunks().Len())
	}
}

func TestEngineStopIdempotent(t *testing.T) {
	driver := &fakeDriver{}
	engine := NewEngine(driver, zerolog.Nop())

	// No session yet
	engine.Stop()

	if _, err := engine.Start(loopbackDevice); err != nil {
		t.Fatalf("Start: %v", err)
	}
	engine.Stop()
	engine.Stop()

	stream := driver.lastStream()
	if !stream.stopped || !stream.closed {
		t.Error("expected stream stopped and closed despite stop error")
	}
	if driver.openHosts() != 0 {
		t.Fatalf("expected no open hosts, got %d", driver.openHosts())
	}
	if engine.Running() || engine.Session() != nil {
		t.Error("expected no active session")
	}
}

func TestEngineStartReplacesSession(t *testing.T) {
	driver := &fakeDriver{}
	engine := NewEngine(driver, zerolog.Nop())

	first, err := engine.Start(loopbackDevice)
	if err != nil {
		t.Fatalf("first Start: %v", err)
	}
	firstStream := driver.lastStream()

	second, err := engine.Start(Device{Index: 2, Name: "Loopback", MaxInputChannels: 2})
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	defer engine.Stop()

	if first.Running() {
		t.Error("expected first session to be stopped")
	}
	if !firstStream.closed {
		t.Error("expected first stream to be closed")
	}
	if !second.Running() {
		t.Error("expected second session to be running")
	}
	if driver.openHosts() != 1 {
		t.Fatalf("expected exactly one open host, got %d", driver.openHosts())
	}
	if first.Chunks() == second.Chunks() {
		t.Error("expected each session to own its queue")
	}
}

func TestEngineStartFailures(t *testing.T) {
	tests := []struct {
		name   string
		driver *fakeDriver
	}{
		{"subsystem unavailable", &fakeDriver{openErr: errors.New("init failed")}},
		{"stream open fails", &fakeDriver{streamErr: errors.New("device busy")}},
		{"stream start fails", &fakeDriver{startErr: errors.New("device removed")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(tt.driver, zerolog.Nop())

			_, err := engine.Start(loopbackDevice)
			if !errors.Is(err, ErrDeviceUnavailable) {
				t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
			}
			if tt.driver.openHosts() != 0 {
				t.Errorf("expected no open hosts, got %d", tt.driver.openHosts())
			}
			if s := tt.driver.lastStream(); s != nil && !s.closed {
				t.Error("expected partially opened stream to be closed")
			}
			if engine.Running() {
				t.Error("expected engine not to be running")
			}
		})
	}
}

func TestEngineStartAutoNoDevice(t *testing.T) {
	driver := &fakeDriver{devices: []Device{{Index: 0, Name: "Speakers"}}}
	engine := NewEngine(driver, zerolog.Nop())

	_, err := engine.StartAuto()
	if !errors.Is(err, ErrNoDeviceFound) {
		t.Fatalf("expected ErrNoDeviceFound, got %v", err)
	}
	if driver.lastStream() != nil {
		t.Error("expected no stream to be opened")
	}
	if driver.openHosts() != 0 {
		t.Errorf("expected no open hosts, got %d", driver.openHosts())
	}
}

func TestEngineStartAuto(t *testing.T) {
	driver := &fakeDriver{devices: []Device{
		{Index: 0, Name: "Mic", MaxInputChannels: 1},
		loopbackDevice,
	}}
	engine := NewEngine(driver, zerolog.Nop())

	s, err := engine.StartAuto()
	if err != nil {
		t.Fatalf("StartAuto: %v", err)
	}
	defer engine.Stop()

	if s.Device().Index != loopbackDevice.Index {
		t.Errorf("expected loopback device, got %+v", s.Device())
	}
}

func TestNewDriver(t *testing.T) {
	for _, name := range []string{"", DriverPortAudio, DriverPulse, DriverMiniaudio} {
		d, err := NewDriver(name)
		if err != nil {
			t.Fatalf("NewDriver(%q): %v", name, err)
		}
		if name != "" && d.Name() != name {
			t.Errorf("expected driver %q, got %q", name, d.Name())
		}
	}

	if _, err := NewDriver("jack"); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestInt16ToBytes(t *testing.T) {
	got := int16ToBytes([]int16{1, -1, 0x1234})
	want := []byte{0x01, 0x00, 0xff, 0xff, 0x34, 0x12}
	if len(got) != len(want) {
		t.Fatalf("expected %d bytes, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: expected %#x, got %#x", i, want[i], got[i])
		}
	}
}

func TestCloneBytes(t *testing.T) {
	in := []byte{1, 2, 3}
	out := cloneBytes(in)
	in[0] = 9
	if out[0] != 1 {
		t.Fatal("expected clone to be independent of the driver buffer")
	}
}
