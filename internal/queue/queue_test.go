package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestPushPopOrder(t *testing.T) {
	q := New[int]()
	for i := 0; i < 5; i++ {
		q.Push(i)
	}

	if q.Len() != 5 {
		t.Fatalf("expected 5 items, got %d", q.Len())
	}

	for i := 0; i < 5; i++ {
		got, err := q.Pop(context.Background(), time.Second)
		if err != nil {
			t.Fatalf("pop %d: %v", i, err)
		}
		if got != i {
			t.Fatalf("expected %d, got %d", i, got)
		}
	}

	if q.Len() != 0 {
		t.Fatalf("expected empty queue, got %d", q.Len())
	}
}

func TestPopTimeout(t *testing.T) {
	q := New[[]byte]()

	start := time.Now()
	_, err := q.Pop(context.Background(), 50*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Fatal("Pop returned before the timeout elapsed")
	}
}

func TestPopContextCancelled(t *testing.T) {
	q := New[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := q.Pop(ctx, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPopWakesOnPush(t *testing.T) {
	q := New[string]()

	go func() {
		time.Sleep(20 * time.Millisecond)
		q.Push("chunk")
	}()

	got, err := q.Pop(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "chunk" {
		t.Fatalf("expected chunk, got %q", got)
	}
}

func TestTryPopEmpty(t *testing.T) {
	q := New[int]()
	if _, ok := q.TryPop(); ok {
		t.Fatal("expected TryPop on empty queue to report false")
	}
}

func TestConcurrentProducers(t *testing.T) {
	q := New[int]()
	const producers, perProducer = 4, 250

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(i)
			}
		}()
	}

	received := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for received < producers*perProducer {
			if _, err := q.Pop(context.Background(), time.Second); err != nil {
				return
			}
			received++
		}
	}()

	wg.Wait()
	<-done

	if received != producers*perProducer {
		t.Fatalf("expected %d items, got %d", producers*perProducer, received)
	}
}
