// Package worker consumes refresh requests and re-runs the pipeline for each.
//
// A single worker serializes runs: two pipeline runs never overlap, and the
// last completed run is the one the service publishes.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/titlerace/internal/adapters/mq/queue"
	"github.com/okian/titlerace/pkg/logger"
	"github.com/okian/titlerace/pkg/metrics"
)

const defaultShutdownTimeout = 30 * time.Second

// Runner performs one refresh.
type Runner interface {
	Refresh(ctx context.Context, r queue.Request) error
}

// Queue defines how the worker receives requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Request
}

// Worker processes refresh requests one at a time.
type Worker struct {
	queue  Queue
	runner Runner
	name   string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// New creates a worker with configuration options.
func New(q Queue, runner Runner, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		runner:   runner,
		name:     "refresh",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("worker").Named(w.name)
	}
	return w
}

// Run starts the worker loop until ctx is canceled, Shutdown is called or the
// queue is closed and drained.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case r, ok := <-requests:
			if !ok {
				return
			}
			if l, ok := w.queue.(interface{ Len(context.Context) int }); ok {
				metrics.UpdateRefreshQueueSize(l.Len(ctx))
			}
			if err := w.process(ctx, r); err != nil {
				w.logger.Error(ctx, "refresh failed", logger.String("request_id", r.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker after the request in flight, if any.
func (w *Worker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultShutdownTimeout)
	defer cancel()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *Worker) Done() <-chan struct{} { return w.done }

func (w *Worker) process(ctx context.Context, r queue.Request) error {
	start := time.Now()
	w.logger.Info(ctx, "refresh started",
		logger.String("request_id", r.ID),
		logger.String("reason", r.Reason),
		logger.Duration("waited", start.Sub(r.RequestedAt)))

	if err := w.runner.Refresh(ctx, r); err != nil {
		metrics.RecordRefresh("failed")
		return fmt.Errorf("refresh %s: %w", r.ID, err)
	}

	metrics.RecordRefresh("completed")
	w.logger.Info(ctx, "refresh completed",
		logger.String("request_id", r.ID),
		logger.Duration("took", time.Since(start)))
	return nil
}
