// Package queue holds pending pipeline refresh requests.
//
// The queue is bounded and never blocks the caller: a full queue rejects the
// request and the caller decides what to tell the client. A request counts
// against the capacity until the consumer has received it.
package queue

import (
	"context"
	"sync"

	"github.com/okian/titlerace/internal/domain/model"
	"github.com/okian/titlerace/pkg/metrics"
)

const defaultQueueCapacity = 4

// Request is the payload flowing through the queue.
type Request = model.RefreshRequest

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a request. Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, r Request) bool

	// Dequeue returns a channel that receives requests in FIFO order. The
	// channel is closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Request

	// Len returns the number of requests the consumer has not received yet.
	Len(ctx context.Context) int

	// Close stops accepting requests.
	Close() error

	// IsClosed returns true once Close has been called.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	requests chan Request
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.requests = make(chan Request, q.capacity)
	metrics.UpdateRefreshQueueSize(0)
	return q
}

// Enqueue adds a request to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Request) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed || ctx.Err() != nil {
		metrics.RecordRefresh("rejected")
		return false
	}

	select {
	case q.requests <- r:
		metrics.RecordRefresh("queued")
		metrics.UpdateRefreshQueueSize(len(q.requests))
		return true
	default:
		metrics.RecordRefresh("rejected")
		return false
	}
}

// Dequeue returns the queue's own buffer, so no request is held outside it
// and the capacity bound is exact. The channel is closed by Close.
func (q *InMemoryQueue) Dequeue(context.Context) <-chan Request {
	return q.requests
}

// Len returns the number of requests the consumer has not received yet.
func (q *InMemoryQueue) Len(context.Context) int {
	return len(q.requests)
}

// Close gracefully shuts down the queue. Requests already queued are still
// delivered to Dequeue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.requests)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
