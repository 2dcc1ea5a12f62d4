// Package queue buffers frames accepted for asynchronous evaluation.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/posturai/internal/domain/model"
	"github.com/okian/posturai/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Frame is the payload type flowing through the queue.
type Frame = model.FrameEnvelope

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a frame. It fails with ErrFull or ErrClosed instead of
	// blocking.
	Enqueue(ctx context.Context, f Frame) error

	// Dequeue returns a channel of frames in arrival order. The channel is
	// closed once the queue is closed and drained, or ctx is done.
	Dequeue(ctx context.Context) <-chan Frame

	Len() int
	Cap() int

	// Close stops accepting frames. Buffered frames stay available to Dequeue.
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	frames   chan Frame
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.frames = make(chan Frame, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0, q.capacity)
	return q
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, f Frame) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.rejected("closed")
		return ErrClosed
	}

	select {
	case q.frames <- f:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.frames), q.capacity)
		return nil
	case <-ctx.Done():
		q.rejected("context_cancelled")
		return fmt.Errorf("enqueue: %w", ctx.Err())
	default:
		q.rejected("queue_full")
		return ErrFull
	}
}

func (q *InMemoryQueue) rejected(reason string) {
	metrics.RecordQueueEnqueueError()
	metrics.RecordErrorByComponent("queue", reason)
}

func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Frame {
	out := make(chan Frame)
	go func() {
		defer close(out)
		for f := range q.frames {
			select {
			case out <- f:
				metrics.RecordQueueDequeue()
				metrics.UpdateQueueSize(len(q.frames), q.capacity)
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (q *InMemoryQueue) Len() int { return len(q.frames) }

func (q *InMemoryQueue) Cap() int { return q.capacity }

func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.frames)
	q.closed = true
	return nil
}

func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
