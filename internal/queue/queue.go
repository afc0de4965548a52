// Package queue provides the unbounded FIFO that carries audio chunks from the
// real-time capture callback to the transcription worker.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTimeout is returned by Pop when nothing arrived within the timeout.
// It is a steady-state event, not a failure.
var ErrTimeout = errors.New("queue: pop timed out")

// Queue is a generic, thread-safe, unbounded FIFO queue.
// Push never blocks; Pop blocks until an item is available or a timeout elapses.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	ready chan struct{}
}

// New creates and returns a new Queue instance.
func New[T any]() *Queue[T] {
	return &Queue[T]{ready: make(chan struct{}, 1)}
}

// Push adds an element to the end of the queue.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// TryPop removes and returns the front element without waiting.
// The boolean indicates whether an element was dequeued.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	item := q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

// Pop removes and returns the front element, waiting up to timeout for one to
// arrive. It returns ErrTimeout when the wait elapses and ctx.Err() when the
// context is done first.
func (q *Queue[T]) Pop(ctx context.Context, timeout time.Duration) (T, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if item, ok := q.TryPop(); ok {
			return item, nil
		}

		var zero T
		select {
		case <-q.ready:
		case <-timer.C:
			return zero, ErrTimeout
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Len returns the number of elements in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
