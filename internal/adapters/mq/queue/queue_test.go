package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/okian/titlerace/internal/domain/model"
)

func request(id string) model.RefreshRequest {
	return model.RefreshRequest{ID: id, Reason: "test", RequestedAt: time.Unix(0, 0)}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, request("r1")) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	r := <-q.Dequeue(ctx)
	if r.ID != "r1" {
		t.Errorf("expected r1, got %v", r.ID)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, request("r1")) || !q.Enqueue(ctx, request("r2")) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, request("r3")) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CapacityWithIdleConsumer(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	ctx := context.Background()

	requests := q.Dequeue(ctx)

	accepted := 0
	for i := 0; i < 5; i++ {
		if q.Enqueue(ctx, request(fmt.Sprintf("r%d", i))) {
			accepted++
		}
	}
	if accepted != 1 {
		t.Errorf("expected exactly 1 accepted request, got %d", accepted)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	r := <-requests
	if r.ID != "r0" {
		t.Errorf("expected r0, got %s", r.ID)
	}
	if !q.Enqueue(ctx, request("r5")) {
		t.Error("expected enqueue to succeed once the consumer took a request")
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, request("r1")) {
		t.Error("expected enqueue to fail on a cancelled context")
	}
}

func TestInMemoryQueue_FIFO(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if !q.Enqueue(ctx, request(fmt.Sprintf("r%d", i))) {
			t.Fatalf("enqueue r%d failed", i)
		}
	}
	_ = q.Close()

	i := 0
	for r := range q.Dequeue(ctx) {
		if want := fmt.Sprintf("r%d", i); r.ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, r.ID)
		}
		i++
	}
	if i != 5 {
		t.Errorf("expected 5 drained requests, got %d", i)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, request("r1")) {
		t.Error("expected enqueue to fail after closing")
	}

	select {
	case _, ok := <-q.Dequeue(ctx):
		if ok {
			t.Error("expected dequeue channel to be closed")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("expected dequeue channel to be closed within timeout")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}
