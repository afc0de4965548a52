package whisper

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/petems/audiotexter/internal/config"
)

// remoteTranscriber uploads WAV audio to an OpenAI-compatible transcription
// endpoint and reads the verbose_json segments.
type remoteTranscriber struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

func newRemote(cfg config.RemoteConfig, log zerolog.Logger) (Transcriber, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("AUDIOTEXTER_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("remote whisper backend needs an api key (config whisper.remote.api_key, AUDIOTEXTER_API_KEY or OPENAI_API_KEY)")
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.URL != "" {
		clientCfg.BaseURL = cfg.URL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &remoteTranscriber{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		log:    log,
	}, nil
}

func (r *remoteTranscriber) Name() string { return "remote:" + r.model }

func (r *remoteTranscriber) Transcribe(ctx context.Context, samples []float32, opts DecodeOptions) (Result, error) {
	wavPath, err := writeTempWAV(samples)
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(wavPath)

	req := openai.AudioRequest{
		Model:       r.model,
		FilePath:    wavPath,
		Format:      openai.AudioResponseFormatVerboseJSON,
		Temperature: opts.Temperature,
	}
	if opts.Language != "" && opts.Language != "auto" {
		req.Language = opts.Language
	}

	start := time.Now()
	resp, err := r.client.CreateTranscription(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("transcription request: %w", err)
	}

	r.log.Debug().
		Dur("took", time.Since(start)).
		Int("segments", len(resp.Segments)).
		Float64("duration", resp.Duration).
		Msg("Remote transcription")

	if len(resp.Segments) == 0 {
		return newResult([]Segment{{Text: resp.Text, CompressionRatio: compressionRatio(resp.Text)}}, opts), nil
	}

	segments := make([]Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		ratio := s.CompressionRatio
		if ratio == 0 {
			ratio = compressionRatio(s.Text)
		}
		segments = append(segments, Segment{
			Text:             s.Text,
			NoSpeechProb:     s.NoSpeechProb,
			AvgLogProb:       s.AvgLogprob,
			CompressionRatio: ratio,
		})
	}
	return newResult(segments, opts), nil
}

func (r *remoteTranscriber) Close() error { return nil }
