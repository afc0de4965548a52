package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/rs/zerolog"

	"github.com/petems/audiotexter/internal/config"
)

type localTranscriber struct {
	mu        sync.Mutex
	model     whisper.Model
	modelPath string
	log       zerolog.Logger
}

// newLocal loads a whisper.cpp model, downloading it on first use.
func newLocal(cfg config.WhisperConfig, log zerolog.Logger) (Transcriber, error) {
	modelPath := filepath.Join(config.ModelsPath(), "ggml-"+cfg.Model+".bin")

	// Check if model exists, download if needed
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		if err := downloadModel(context.Background(), log, cfg.Model, modelPath); err != nil {
			return nil, fmt.Errorf("failed to download model: %w", err)
		}
	}

	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	log.Info().Str("model", cfg.Model).Str("path", modelPath).Msg("Whisper model loaded")

	return &localTranscriber{
		model:     model,
		modelPath: modelPath,
		log:       log,
	}, nil
}

func (w *localTranscriber) Name() string { return "whisper.cpp" }

func (w *localTranscriber) Transcribe(ctx context.Context, samples []float32, opts DecodeOptions) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.model == nil {
		return Result{}, errors.New("whisper model is closed")
	}

	wctx, err := w.model.NewContext()
	if err != nil {
		return Result{}, fmt.Errorf("failed to create context: %w", err)
	}

	if opts.Threads > 0 {
		wctx.SetThreads(uint(opts.Threads))
	}
	if opts.Language != "auto" && opts.Language != "" {
		if err := wctx.SetLanguage(opts.Language); err != nil {
			return Result{}, fmt.Errorf("set language %q: %w", opts.Language, err)
		}
	}
	wctx.SetTranslate(false)
	if opts.CompressionRatioThreshold > 0 {
		wctx.SetEntropyThold(float32(opts.CompressionRatioThreshold))
	}

	if err := wctx.Process(samples, nil, nil); err != nil {
		return Result{}, fmt.Errorf("whisper process failed: %w", err)
	}

	var segments []Segment
	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("read segment: %w", err)
		}

		probs := make([]float32, 0, len(seg.Tokens))
		for _, tok := range seg.Tokens {
			probs = append(probs, tok.P)
		}
		segments = append(segments, Segment{
			Text:             seg.Text,
			AvgLogProb:       avgLogProb(probs),
			CompressionRatio: compressionRatio(seg.Text),
		})
	}

	return newResult(segments, opts), nil
}

func (w *localTranscriber) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.model != nil {
		err := w.model.Close()
		w.model = nil
		return err
	}
	return nil
}
