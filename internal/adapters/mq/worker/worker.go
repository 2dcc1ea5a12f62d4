// Package worker drains the frame queue and hands each frame to a Processor.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/posturai/internal/adapters/mq/queue"
	"github.com/okian/posturai/pkg/logger"
	"github.com/okian/posturai/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Frame is what workers read off the queue.
type Frame = queue.Frame

// Processor evaluates a queued frame.
type Processor interface {
	ProcessFrame(ctx context.Context, f Frame) error
}

// ProcessorFunc adapts a function to a Processor.
type ProcessorFunc func(ctx context.Context, f Frame) error

// ProcessFrame calls fn.
func (fn ProcessorFunc) ProcessFrame(ctx context.Context, f Frame) error { return fn(ctx, f) } //nolint:gocritic // hugeParam

// Source is where workers receive frames from.
type Source interface {
	Dequeue(ctx context.Context) <-chan Frame
}

// InMemoryWorker runs a single consume loop.
type InMemoryWorker struct {
	source    Source
	processor Processor
	name      string

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker reading from source.
func NewInMemoryWorker(source Source, processor Processor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		source:    source,
		processor: processor,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.GetOrNop().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run consumes frames until the source is drained, ctx is done or Stop is
// called.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	frames := w.source.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			w.process(ctx, f)
		}
	}
}

// Stop asks the worker to exit without draining and waits for it.
func (w *InMemoryWorker) Stop(ctx context.Context) error {
	w.signalStop()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) signalStop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, f Frame) { //nolint:gocritic // hugeParam
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := w.processor.ProcessFrame(ctx, f); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "process_error")
		w.logger.Warn(ctx, "frame processing failed",
			logger.String("session", f.SessionID),
			logger.String("frame", f.FrameID),
			logger.Error(err))
	}
}

// Pool runs several workers over the same source.
type Pool struct {
	workers []*InMemoryWorker
	source  Source
	logger  logger.Logger
}

// NewPool creates a pool of count workers. A count below one means one.
func NewPool(count int, source Source, processor Processor, opts ...Option) *Pool {
	if count < 1 {
		count = 1
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, count),
		source:  source,
		logger:  logger.GetOrNop().Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(source, processor, wopts...)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Shutdown closes the source when it supports it, lets workers drain what
// is buffered and stops any worker still running when ctx expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.source.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut int
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			w.signalStop()
			<-w.done
			timedOut++
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	if timedOut > 0 {
		return fmt.Errorf("%d workers stopped before draining: %w", timedOut, shutdownCtx.Err())
	}
	return nil
}
