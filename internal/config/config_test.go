package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Whisper.Language != "en" {
		t.Errorf("expected language en, got %q", cfg.Whisper.Language)
	}
	if cfg.Whisper.NoSpeechThreshold != 0.6 || cfg.Whisper.LogProbThreshold != -1.0 || cfg.Whisper.CompressionRatioThreshold != 2.4 {
		t.Errorf("unexpected decode thresholds %+v", cfg.Whisper)
	}
	if cfg.Pipeline.WindowSeconds != 2 || cfg.Pipeline.QueueTimeoutMs != 1000 {
		t.Errorf("unexpected pipeline defaults %+v", cfg.Pipeline)
	}
	if cfg.Path() != path {
		t.Errorf("expected path %q, got %q", path, cfg.Path())
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"audio": {"driver": "pulse", "extra_keywords": ["monitor"]}, "pipeline": {"window_seconds": 3}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Audio.Driver != "pulse" {
		t.Errorf("expected pulse driver, got %q", cfg.Audio.Driver)
	}
	if len(cfg.Audio.ExtraKeywords) != 1 || cfg.Audio.ExtraKeywords[0] != "monitor" {
		t.Errorf("unexpected extra keywords %v", cfg.Audio.ExtraKeywords)
	}
	if cfg.Pipeline.WindowSeconds != 3 {
		t.Errorf("expected window 3s, got %v", cfg.Pipeline.WindowSeconds)
	}
	// untouched fields keep their defaults
	if cfg.Pipeline.QueueTimeoutMs != 1000 {
		t.Errorf("expected default queue timeout, got %d", cfg.Pipeline.QueueTimeoutMs)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"malformed json", `{"audio":`, "parse"},
		{"unknown backend", `{"whisper": {"backend": "cloud"}}`, "whisper.backend"},
		{"zero window", `{"pipeline": {"window_seconds": 0}}`, "window_seconds"},
		{"remote without url", `{"whisper": {"backend": "remote", "remote": {"url": ""}}}`, "remote.url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Audio.DeviceName = "Stereo Mix"
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Audio.DeviceName != "Stereo Mix" {
		t.Errorf("expected saved device name, got %q", reloaded.Audio.DeviceName)
	}
}

func TestConfigPathHonoursXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG paths only apply on linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	if got := ConfigPath(); got != "/tmp/xdg-config/audiotexter/config.json" {
		t.Errorf("unexpected config path %q", got)
	}
	if got := ModelsPath(); got != "/tmp/xdg-data/audiotexter/models" {
		t.Errorf("unexpected models path %q", got)
	}
}
