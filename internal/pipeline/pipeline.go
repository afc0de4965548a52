// Package pipeline turns the capture queue into a sequence of utterances:
// it accumulates PCM, cuts fixed windows, runs them through a Transcriber and
// emits the non-trivial text.
package pipeline

import (
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/petems/audiotexter/internal/audio"
	"github.com/petems/audiotexter/internal/config"
	"github.com/petems/audiotexter/internal/queue"
	"github.com/petems/audiotexter/internal/whisper"
)

// SilenceMessage is reported when no audio has arrived for a while.
const SilenceMessage = "No audio detected for a while..."

// Utterance is one emitted piece of transcribed text.
type Utterance struct {
	Text  string
	Final bool // produced by the flush after capture stopped
	At    time.Time
}

// Source is the capture side the pipeline drains. *audio.Session satisfies it.
type Source interface {
	Running() bool
	Chunks() *queue.Queue[[]byte]
}

// StatusFunc receives diagnostics such as the silence warning.
type StatusFunc func(message string)

// TranscriptSink records every emitted utterance.
type TranscriptSink interface {
	Append(session, text string, at time.Time) error
}

// Options control windowing and filtering.
type Options struct {
	WindowBytes      int
	QueueTimeout     time.Duration
	SilenceWarnAfter int
	FlushMinBytes    int
	FlushTimeout     time.Duration
	MinSamples       int
	MinTextLen       int
	Decode           whisper.DecodeOptions
}

// DefaultOptions: 2 s windows of mono 16-bit 16 kHz audio.
func DefaultOptions() Options {
	return Options{
		WindowBytes:      2 * audio.SampleRate * audio.BytesPerSample,
		QueueTimeout:     time.Second,
		SilenceWarnAfter: 10,
		FlushMinBytes:    16000,
		FlushTimeout:     30 * time.Second,
		MinSamples:       1000,
		MinTextLen:       3,
		Decode:           whisper.DefaultDecodeOptions(),
	}
}

// OptionsFromConfig builds Options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	p := cfg.Pipeline

	opts.WindowBytes = int(p.WindowSeconds * float64(audio.SampleRate*audio.BytesPerSample))
	opts.WindowBytes -= opts.WindowBytes % audio.BytesPerSample
	opts.QueueTimeout = time.Duration(p.QueueTimeoutMs) * time.Millisecond
	opts.SilenceWarnAfter = p.SilenceWarnAfter
	opts.FlushMinBytes = p.FlushMinBytes
	opts.MinSamples = p.MinSamples
	opts.MinTextLen = p.MinTextLen
	opts.Decode = whisper.OptionsFromConfig(cfg.Whisper)
	return opts
}

// Pipeline drives one capture session. It is not restartable.
type Pipeline struct {
	transcriber whisper.Transcriber
	opts        Options
	log         zerolog.Logger
	status      StatusFunc
	transcript  TranscriptSink
	started     atomic.Bool
}

// New creates a pipeline around the given transcriber.
func New(t whisper.Transcriber, opts Options, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		transcriber: t,
		opts:        opts,
		log:         log.With().Str("component", "pipeline").Logger(),
	}
}

// OnStatus sets the diagnostic callback. Must be called before Produce.
func (p *Pipeline) OnStatus(fn StatusFunc) { p.status = fn }

// WithTranscript appends emitted utterances to sink. Must be called before Produce.
func (p *Pipeline) WithTranscript(sink TranscriptSink) { p.transcript = sink }

// Produce starts draining src and returns the utterance channel. The channel is
// closed once src stops running (or ctx is done) and the trailing audio has
// been flushed.
func (p *Pipeline) Produce(ctx context.Context, src Source) <-chan Utterance {
	out := make(chan Utterance, 16)
	if !p.started.CompareAndSwap(false, true) {
		p.log.Error().Msg("Pipeline already started")
		close(out)
		return out
	}

	go func() {
		defer close(out)
		p.run(ctx, src, out)
	}()
	return out
}

func (p *Pipeline) run(ctx context.Context, src Source, out chan<- Utterance) {
	var (
		buf     Buffer
		silence int
		chunks  = src.Chunks()
		session = sessionID(src)
	)

	p.log.Info().Str("session", session).Int("window_bytes", p.opts.WindowBytes).Msg("Transcription worker started")

	for src.Running() && ctx.Err() == nil {
		chunk, err := chunks.Pop(ctx, p.opts.QueueTimeout)
		if err != nil {
			if !errors.Is(err, queue.ErrTimeout) {
				break
			}
			silence++
			if silence > p.opts.SilenceWarnAfter {
				p.log.Warn().Int("timeouts", silence).Msg("No audio received")
				p.report(SilenceMessage)
				silence = 0
			}
			continue
		}

		silence = 0
		buf.Append(chunk)

		if buf.Len() >= p.opts.WindowBytes {
			window := buf.Take(p.opts.WindowBytes)
			p.process(ctx, session, window, false, out)
		}
	}

	remaining := buf.Len()
	if remaining > 0 && remaining >= p.opts.FlushMinBytes {
		p.log.Debug().Int("bytes", remaining).Msg("Flushing remaining audio")
		flushCtx, cancel := context.WithTimeout(context.Background(), p.opts.FlushTimeout)
		p.process(flushCtx, session, buf.Remainder(), true, out)
		cancel()
	} else if remaining > 0 {
		p.log.Debug().Int("bytes", remaining).Msg("Discarding short remainder")
	}

	p.log.Info().Str("session", session).Msg("Transcription worker stopped")
}

func (p *Pipeline) process(ctx context.Context, session string, pcm []byte, final bool, out chan<- Utterance) {
	samples := bytesToFloat32(pcm)
	if len(samples) <= p.opts.MinSamples {
		return
	}

	start := time.Now()
	res, err := p.transcriber.Transcribe(ctx, samples, p.opts.Decode)
	if err != nil {
		p.log.Error().Err(err).Int("samples", len(samples)).Msg("Transcription failed")
		return
	}

	text := normalizeText(res.Text)
	p.log.Debug().
		Dur("took", time.Since(start)).
		Int("samples", len(samples)).
		Int("dropped_segments", res.Dropped).
		Str("text", text).
		Msg("Window transcribed")

	if final {
		if text == "" {
			return
		}
	} else if len(text) <= p.opts.MinTextLen {
		return
	}

	u := Utterance{Text: text, Final: final, At: time.Now()}
	if p.transcript != nil {
		if err := p.transcript.Append(session, u.Text, u.At); err != nil {
			p.log.Warn().Err(err).Msg("Failed to write transcript")
		}
	}

	select {
	case out <- u:
	case <-ctx.Done():
		p.log.Warn().Str("text", u.Text).Msg("Utterance dropped, no reader")
	}
}

func (p *Pipeline) report(msg string) {
	if p.status != nil {
		p.status(msg)
	}
}

// bytesToFloat32 converts S16LE PCM to samples in [-1, 1). A trailing odd byte
// is ignored.
func bytesToFloat32(pcm []byte) []float32 {
	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		s := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		samples[i] = float32(s) / 32768.0
	}
	return samples
}

// normalizeText trims and collapses internal whitespace runs to single spaces.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func sessionID(src Source) string {
	if s, ok := src.(interface{ ID() string }); ok {
		return s.ID()
	}
	return ""
}

// Stream wraps the utterance channel for pull-style consumers.
type Stream struct {
	ch <-chan Utterance
}

// NewStream wraps ch.
func NewStream(ch <-chan Utterance) *Stream {
	return &Stream{ch: ch}
}

// Next blocks until the next utterance. It returns false once the sequence has
// ended or ctx is done.
func (s *Stream) Next(ctx context.Context) (Utterance, bool) {
	select {
	case u, ok := <-s.ch:
		return u, ok
	case <-ctx.Done():
		return Utterance{}, false
	}
}
