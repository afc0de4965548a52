package whisper

import (
	"bytes"
	"math"

	"github.com/klauspost/compress/zlib"
)

// compressionRatio is len(text) / len(zlib(text)), the metric Whisper uses to
// spot repetition loops. Empty text yields 0.
func compressionRatio(text string) float64 {
	if text == "" {
		return 0
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write([]byte(text)); err != nil {
		return 0
	}
	if err := zw.Close(); err != nil || buf.Len() == 0 {
		return 0
	}
	return float64(len(text)) / float64(buf.Len())
}

// avgLogProb averages the natural log of token probabilities. Tokens with no
// probability are skipped; no usable tokens yields 0.
func avgLogProb(probs []float32) float64 {
	var sum float64
	n := 0
	for _, p := range probs {
		if p <= 0 {
			continue
		}
		sum += math.Log(float64(p))
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
