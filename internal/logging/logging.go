package logging

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
)

const (
	appDir         = "audiotexter"
	logFileName    = "audiotexter.log"
	transcriptName = "transcript.log"
)

// New creates a zerolog logger at info level with console and file output.
func New() zerolog.Logger {
	return NewWithLevel("info")
}

// NewWithLevel creates a logger writing to stderr and the platform log file.
// Unknown levels fall back to info. If the log file cannot be opened, only the
// console is used.
func NewWithLevel(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

	var out io.Writer = console
	logFile, ferr := openAppend(LogPath())
	if ferr == nil {
		// Multi-writer: console + file
		out = zerolog.MultiLevelWriter(console, logFile)
	}

	log := zerolog.New(out).Level(lvl).With().Timestamp().Caller().Logger()
	if ferr != nil {
		log.Warn().Err(ferr).Msg("Log file unavailable, logging to console only")
	}
	return log
}

// Dir returns the platform-specific state directory for logs and transcripts.
func Dir() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Logs")
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
			base = xdg
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".local", "state")
		}
	}

	return filepath.Join(base, appDir)
}

// LogPath returns the application log file path.
func LogPath() string {
	return filepath.Join(Dir(), logFileName)
}

// TranscriptPath returns the transcript file path.
func TranscriptPath() string {
	return filepath.Join(Dir(), transcriptName)
}

func openAppend(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}
