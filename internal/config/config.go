package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Whisper backends.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

type Config struct {
	LogLevel      string         `json:"log_level"`
	Audio         AudioConfig    `json:"audio"`
	Whisper       WhisperConfig  `json:"whisper"`
	Pipeline      PipelineConfig `json:"pipeline"`
	TranscriptLog bool           `json:"transcript_log"`

	path string
}

type AudioConfig struct {
	Driver string `json:"driver"` // "portaudio", "pulse", "miniaudio"
	// DeviceName pins a device by name (case-insensitive); empty means auto-detect.
	DeviceName string `json:"device_name"`
	// ExtraKeywords are added to the built-in loopback keywords (e.g. "monitor").
	ExtraKeywords []string `json:"extra_keywords"`
}

type WhisperConfig struct {
	Backend                   string       `json:"backend"` // "local" or "remote"
	Model                     string       `json:"model"`   // "base", "base.en", "small", etc.
	Language                  string       `json:"language"`
	Threads                   int          `json:"threads"`
	Temperature               float32      `json:"temperature"`
	NoSpeechThreshold         float64      `json:"no_speech_threshold"`
	LogProbThreshold          float64      `json:"logprob_threshold"`
	CompressionRatioThreshold float64      `json:"compression_ratio_threshold"`
	Remote                    RemoteConfig `json:"remote"`
}

// RemoteConfig points at an OpenAI-compatible API. URL is the base (ending in /v1).
type RemoteConfig struct {
	URL            string `json:"url"`
	Model          string `json:"model"`
	APIKey         string `json:"api_key"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type PipelineConfig struct {
	WindowSeconds    float64 `json:"window_seconds"`
	QueueTimeoutMs   int     `json:"queue_timeout_ms"`
	SilenceWarnAfter int     `json:"silence_warn_after"` // queue timeouts before a "no audio" notice
	FlushMinBytes    int     `json:"flush_min_bytes"`
	MinSamples       int     `json:"min_samples"`
	MinTextLen       int     `json:"min_text_len"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			Driver: "portaudio",
		},
		Whisper: WhisperConfig{
			Backend:                   BackendLocal,
			Model:                     "base",
			Language:                  "en",
			Temperature:               0.0,
			Threads:                   0, // Auto-detect
			NoSpeechThreshold:         0.6,
			LogProbThreshold:          -1.0,
			CompressionRatioThreshold: 2.4,
			Remote: RemoteConfig{
				URL:            "https://api.openai.com/v1",
				Model:          "whisper-1",
				TimeoutSeconds: 30,
			},
		},
		Pipeline: PipelineConfig{
			WindowSeconds:    2,
			QueueTimeoutMs:   1000,
			SilenceWarnAfter: 10,
			FlushMinBytes:    16000,
			MinSamples:       1000,
			MinTextLen:       3,
		},
		TranscriptLog: true,
	}
}

// Load reads the config from path (or the platform default when empty) over
// the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path := c.Path()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Path is the file the config was loaded from and is saved to.
func (c *Config) Path() string {
	if c.path == "" {
		return ConfigPath()
	}
	return c.path
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Whisper.Backend {
	case BackendLocal, BackendRemote:
	default:
		return fmt.Errorf("whisper.backend must be %q or %q, got %q", BackendLocal, BackendRemote, c.Whisper.Backend)
	}
	if c.Whisper.Backend == BackendRemote && c.Whisper.Remote.URL == "" {
		return errors.New("whisper.remote.url is required for the remote backend")
	}
	if c.Pipeline.WindowSeconds <= 0 {
		return errors.New("pipeline.window_seconds must be positive")
	}
	if c.Pipeline.QueueTimeoutMs <= 0 {
		return errors.New("pipeline.queue_timeout_ms must be positive")
	}
	if c.Pipeline.FlushMinBytes < 0 || c.Pipeline.MinSamples < 0 || c.Pipeline.MinTextLen < 0 {
		return errors.New("pipeline thresholds must not be negative")
	}
	return nil
}

// ConfigPath returns the platform-specific config file path
func ConfigPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "audiotexter", "config.json")
}

// ModelsPath returns the platform-specific models directory path
func ModelsPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.local/share"
		}
	}

	return filepath.Join(base, "audiotexter", "models")
}
