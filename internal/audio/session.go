package audio

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/petems/audiotexter/internal/queue"
)

// Session is one capture run: the running flag, the chunk queue and the
// stream/host handles it owns. A session is created by Engine.Start and is
// finished for good once stopped.
type Session struct {
	id     string
	device Device
	chunks *queue.Queue[[]byte]
	log    zerolog.Logger

	running atomic.Bool
	nChunks atomic.Int64
	nBytes  atomic.Int64

	// owned by the Engine, guarded by Engine.mu
	host   Host
	stream Stream
}

func newSession(device Device, log zerolog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:     id,
		device: device,
		chunks: queue.New[[]byte](),
		log:    log.With().Str("session", id).Logger(),
	}
}

// ID identifies the session in logs and transcripts.
func (s *Session) ID() string { return s.id }

// Device is the device the session captures from.
func (s *Session) Device() Device { return s.device }

// Running reports whether capture is active. It is the shutdown signal for the pipeline.
func (s *Session) Running() bool { return s.running.Load() }

// Chunks is the queue the capture callback feeds.
func (s *Session) Chunks() *queue.Queue[[]byte] { return s.chunks }

// Stats returns how many chunks and bytes the callback has enqueued.
func (s *Session) Stats() (chunks, bytes int64) {
	return s.nChunks.Load(), s.nBytes.Load()
}

// onAudio runs on the driver's real-time thread. It only enqueues.
func (s *Session) onAudio(data []byte) {
	if !s.running.Load() {
		return
	}
	s.chunks.Push(data)
	s.nChunks.Add(1)
	s.nBytes.Add(int64(len(data)))
}

// release stops and frees everything the session holds. Errors are logged and
// swallowed; release always completes.
func (s *Session) release() {
	s.running.Store(false)

	if s.stream != nil {
		if err := s.stream.Stop(); err != nil {
			s.log.Debug().Err(err).Msg("Stream stop failed")
		}
		if err := s.stream.Close(); err != nil {
			s.log.Debug().Err(err).Msg("Stream close failed")
		}
		s.stream = nil
	}

	if s.host != nil {
		if err := s.host.Close(); err != nil {
			s.log.Debug().Err(err).Msg("Audio host close failed")
		}
		s.host = nil
	}
}
