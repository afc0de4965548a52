package tray

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/getlantern/systray"
	"github.com/rs/zerolog"

	"github.com/petems/audiotexter/internal/app"
	"github.com/petems/audiotexter/internal/config"
	"github.com/petems/audiotexter/internal/logging"
)

const lastLineWidth = 48

type UI struct {
	app     *app.App
	cfg     *config.Config
	version string
	commit  string
	log     zerolog.Logger

	mu         sync.Mutex
	ready      bool
	transcript []string

	// Menu items
	mStartStop *systray.MenuItem
	mStatus    *systray.MenuItem
	mDevice    *systray.MenuItem
	mLast      *systray.MenuItem
	mCopy      *systray.MenuItem
}

func New(application *app.App, cfg *config.Config, version, commit string, log zerolog.Logger) *UI {
	return &UI{
		app:     application,
		cfg:     cfg,
		version: version,
		commit:  commit,
		log:     log,
	}
}

// SetApp sets the app reference (for circular dependency resolution)
func (u *UI) SetApp(application *app.App) {
	u.app = application
}

// Run blocks on the systray loop; it must be called from the main goroutine.
func (u *UI) Run(ctx context.Context) error {
	systray.Run(u.onReady, u.onExit)
	return nil
}

// OnUtterance records the text for "Copy transcript" and shows it in the menu.
func (u *UI) OnUtterance(text string) {
	u.mu.Lock()
	u.transcript = append(u.transcript, text)
	ready := u.ready
	u.mu.Unlock()

	if ready {
		u.mLast.SetTitle(truncate(text, lastLineWidth))
		u.mCopy.Enable()
	}
}

func (u *UI) OnStatus(message string) {
	u.log.Debug().Str("status", message).Msg("Status")

	u.mu.Lock()
	ready := u.ready
	u.mu.Unlock()
	if !ready {
		return
	}

	if strings.HasPrefix(message, "System Audio Device:") {
		u.mDevice.SetTitle(strings.TrimPrefix(message, "System Audio Device: "))
		return
	}
	u.mStatus.SetTitle(message)
	u.updateStatus(stateForStatus(message))
}

func (u *UI) onReady() {
	u.updateStatus("idle")
	systray.SetTooltip("Live transcription of system audio")

	// Build menu
	u.mStartStop = systray.AddMenuItem("Start Capture", "Capture and transcribe system audio")
	u.mStatus = systray.AddMenuItem(app.StatusReady, "")
	u.mStatus.Disable()
	u.mDevice = systray.AddMenuItem("Detecting device...", "Capture device")
	u.mDevice.Disable()
	systray.AddSeparator()

	u.mLast = systray.AddMenuItem("(no speech yet)", "Last utterance")
	u.mLast.Disable()
	u.mCopy = systray.AddMenuItem("Copy Transcript", "Copy everything transcribed so far")
	u.mCopy.Disable()

	systray.AddSeparator()
	mLogs := systray.AddMenuItem("Open Logs", "View application logs")
	mAbout := systray.AddMenuItem("About", "About AudioTexter")
	mQuit := systray.AddMenuItem("Quit", "Exit application")

	u.mu.Lock()
	u.ready = true
	u.mu.Unlock()

	// Auto-detect the device once the menu exists to show it.
	go u.app.DetectDevice()

	// Event loop
	go u.handleEvents(mLogs, mAbout, mQuit)
}

func (u *UI) handleEvents(mLogs, mAbout, mQuit *systray.MenuItem) {
	for {
		select {
		case <-u.mStartStop.ClickedCh:
			u.toggleCapture()
		case <-u.mCopy.ClickedCh:
			u.copyTranscript()
		case <-mLogs.ClickedCh:
			u.openLogs()
		case <-mAbout.ClickedCh:
			u.showAbout()
		case <-mQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

func (u *UI) toggleCapture() {
	if u.app.IsCapturing() {
		u.app.Stop()
		u.mStartStop.SetTitle("Start Capture")
		return
	}

	if _, ok := u.app.Device(); !ok {
		u.app.DetectDevice()
	}
	if err := u.app.Start(); err != nil {
		u.log.Error().Err(err).Msg("Failed to start capture")
		return
	}
	u.mStartStop.SetTitle("Stop Capture")
}

func (u *UI) copyTranscript() {
	u.mu.Lock()
	text := transcriptText(u.transcript)
	u.mu.Unlock()

	if text == "" {
		return
	}
	if err := clipboard.WriteAll(text); err != nil {
		u.log.Error().Err(err).Msg("Failed to copy transcript")
		return
	}
	u.log.Info().Int("chars", len(text)).Msg("Transcript copied to clipboard")
}

func (u *UI) openLogs() {
	name, args := openCommand(runtime.GOOS, logging.LogPath())
	if err := exec.Command(name, args...).Start(); err != nil {
		u.log.Error().Err(err).Str("path", logging.LogPath()).Msg("Failed to open logs")
	}
}

func (u *UI) showAbout() {
	u.log.Info().Str("version", u.version).Str("commit", u.commit).Msg("AudioTexter: live transcription of system audio")
}

func (u *UI) onExit() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := u.app.Shutdown(ctx); err != nil {
		u.log.Error().Err(err).Msg("Shutdown error")
	}
}

// updateStatus sets the tray title with speaker emoji and status indicator
func (u *UI) updateStatus(state string) {
	systray.SetTitle(fmt.Sprintf("🔊 %s", emojiForStatus(state)))
}

// stateForStatus maps an app status line to a tray indicator state.
func stateForStatus(message string) string {
	switch {
	case message == app.StatusLive:
		return "recording"
	case message == app.StatusNoDevice, strings.HasPrefix(message, "Error"):
		return "error"
	case strings.HasPrefix(message, "No audio detected"):
		return "silent"
	default:
		return "idle"
	}
}

// emojiForStatus returns the appropriate status emoji
func emojiForStatus(state string) string {
	switch state {
	case "recording":
		return "🔴" // Red - capturing
	case "silent":
		return "🟡" // Yellow - capturing but nothing heard
	case "idle":
		return "🟢" // Green - ready/idle
	case "error":
		return "⚪️" // White - error
	default:
		return "🟢" // Green - default to ready
	}
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

func transcriptText(lines []string) string {
	return strings.Join(lines, "\n")
}

func openCommand(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "cmd", []string{"/c", "start", "", path}
	default:
		return "xdg-open", []string{path}
	}
}

const defaultShutdownTimeout = 10 * time.Second
