package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// TranscriptWriter appends one tab-separated line per utterance:
// time, session id, text.
type TranscriptWriter struct {
	mu   sync.Mutex
	file *os.File
}

// OpenTranscript opens (or creates) the transcript file at path for appending.
func OpenTranscript(path string) (*TranscriptWriter, error) {
	f, err := openAppend(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	return &TranscriptWriter{file: f}, nil
}

// Append writes one utterance. Tabs and newlines in text are flattened so each
// utterance stays on a single line.
func (w *TranscriptWriter) Append(session, text string, at time.Time) error {
	text = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ").Replace(text)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return os.ErrClosed
	}
	_, err := fmt.Fprintf(w.file, "%s\t%s\t%s\n", at.Format(time.RFC3339), session, text)
	return err
}

// Close closes the underlying file. Further appends return os.ErrClosed.
func (w *TranscriptWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
