package whisper

import (
	"fmt"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
)

const (
	wavSampleRate = 16000
	wavBitDepth   = 16
)

// writeTempWAV encodes samples as a 16-bit mono WAV in the temp dir and returns
// its path. The caller removes the file.
func writeTempWAV(samples []float32) (string, error) {
	path := filepath.Join(os.TempDir(), "audiotexter_"+uuid.NewString()+".wav")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create wav: %w", err)
	}

	data := make([]int, len(samples))
	for i, s := range samples {
		switch {
		case s > 1:
			s = 1
		case s < -1:
			s = -1
		}
		data[i] = int(s * 32767)
	}

	enc := wav.NewEncoder(f, wavSampleRate, wavBitDepth, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: wavSampleRate},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("finalize wav: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close wav: %w", err)
	}
	return path, nil
}
