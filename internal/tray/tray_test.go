package tray

import (
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/petems/audiotexter/internal/app"
)

func TestStateForStatus(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{app.StatusLive, "recording"},
		{app.StatusReady, "idle"},
		{app.StatusStopped, "idle"},
		{app.StatusNoDevice, "error"},
		{"Error: device unavailable", "error"},
		{"No audio detected for a while...", "silent"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			if got := stateForStatus(tt.message); got != tt.want {
				t.Errorf("stateForStatus(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestEmojiForStatus(t *testing.T) {
	tests := map[string]string{
		"recording": "🔴",
		"silent":    "🟡",
		"idle":      "🟢",
		"error":     "⚪️",
		"unknown":   "🟢",
	}
	for state, want := range tests {
		if got := emojiForStatus(state); got != want {
			t.Errorf("emojiForStatus(%q) = %q, want %q", state, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Errorf("truncate long = %q", got)
	}
	if got := truncate("héllo wörld", 6); got != "héllo…" {
		t.Errorf("truncate runes = %q", got)
	}
}

func TestTranscriptText(t *testing.T) {
	if got := transcriptText(nil); got != "" {
		t.Errorf("empty transcript = %q", got)
	}
	if got := transcriptText([]string{"one", "two"}); got != "one\ntwo" {
		t.Errorf("transcript = %q", got)
	}
}

func TestOpenCommand(t *testing.T) {
	tests := []struct {
		goos     string
		wantName string
		wantArgs []string
	}{
		{"darwin", "open", []string{"/tmp/a.log"}},
		{"linux", "xdg-open", []string{"/tmp/a.log"}},
		{"windows", "cmd", []string{"/c", "start", "", "/tmp/a.log"}},
	}
	for _, tt := range tests {
		name, args := openCommand(tt.goos, "/tmp/a.log")
		if name != tt.wantName || !reflect.DeepEqual(args, tt.wantArgs) {
			t.Errorf("openCommand(%q) = %q %v", tt.goos, name, args)
		}
	}
}

func TestOnUtteranceBeforeReady(t *testing.T) {
	u := &UI{log: zerolog.Nop()}
	u.OnUtterance("early words")
	u.OnStatus(app.StatusLive)

	if len(u.transcript) != 1 || u.transcript[0] != "early words" {
		t.Errorf("transcript = %v", u.transcript)
	}
}
