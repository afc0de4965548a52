// Package whisper adapts Whisper speech models (local whisper.cpp or a remote
// OpenAI-compatible endpoint) to a single transcribe-these-samples call.
package whisper

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/petems/audiotexter/internal/config"
)

// Transcriber turns mono 16 kHz float32 samples in [-1, 1] into text.
// Implementations are not safe for concurrent Transcribe calls.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, samples []float32, opts DecodeOptions) (Result, error)
	Close() error
}

// DecodeOptions are the per-call decoding hints.
type DecodeOptions struct {
	Language                  string
	Threads                   int
	Temperature               float32
	NoSpeechThreshold         float64
	LogProbThreshold          float64
	CompressionRatioThreshold float64
}

// DefaultDecodeOptions biases the model toward accepting marginal speech, which
// suits system audio with background noise.
func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{
		Language:                  "en",
		NoSpeechThreshold:         0.6,
		LogProbThreshold:          -1.0,
		CompressionRatioThreshold: 2.4,
	}
}

// OptionsFromConfig maps the whisper config section onto DecodeOptions.
func OptionsFromConfig(cfg config.WhisperConfig) DecodeOptions {
	return DecodeOptions{
		Language:                  cfg.Language,
		Threads:                   cfg.Threads,
		Temperature:               cfg.Temperature,
		NoSpeechThreshold:         cfg.NoSpeechThreshold,
		LogProbThreshold:          cfg.LogProbThreshold,
		CompressionRatioThreshold: cfg.CompressionRatioThreshold,
	}
}

// Segment is one decoded span with the confidence signals Whisper reports.
type Segment struct {
	Text             string
	NoSpeechProb     float64
	AvgLogProb       float64
	CompressionRatio float64
}

// Result of one Transcribe call. Text joins the accepted segments only.
type Result struct {
	Text     string
	Segments []Segment
	Dropped  int
}

// Accept applies Whisper's own rejection rules: repetitive output
// (compression ratio too high) and silence (high no-speech probability with low
// average log-probability).
func (o DecodeOptions) Accept(seg Segment) bool {
	if o.CompressionRatioThreshold > 0 && seg.CompressionRatio > o.CompressionRatioThreshold {
		return false
	}
	if seg.NoSpeechProb > o.NoSpeechThreshold && seg.AvgLogProb < o.LogProbThreshold {
		return false
	}
	return true
}

func newResult(segments []Segment, opts DecodeOptions) Result {
	res := Result{Segments: segments}
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if !opts.Accept(seg) {
			res.Dropped++
			continue
		}
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	res.Text = strings.Join(parts, " ")
	return res
}

// New creates the transcriber selected by cfg.Backend.
func New(cfg config.WhisperConfig, log zerolog.Logger) (Transcriber, error) {
	switch cfg.Backend {
	case config.BackendLocal, "":
		return newLocal(cfg, log)
	case config.BackendRemote:
		return newRemote(cfg.Remote, log)
	default:
		return nil, fmt.Errorf("unknown whisper backend %q (supported: %s, %s)",
			cfg.Backend, config.BackendLocal, config.BackendRemote)
	}
}
