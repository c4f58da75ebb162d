package queue

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/datesync/internal/domain/model"
)

func job(user, id string) Job {
	return Job{UserID: user, Source: model.CalendarSource{ID: id, URL: "https://example.com/" + id + ".ics"}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if c := q.Cap(); c != 2 {
		t.Errorf("expected capacity 2, got %d", c)
	}

	if !q.Enqueue(ctx, job("alice", "home")) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.UserID != "alice" || got.Source.ID != "home" {
		t.Errorf("unexpected job %+v", got)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, job("u1", "a")) || !q.Enqueue(ctx, job("u2", "b")) {
		t.Fatal("expected first two enqueues to succeed")
	}

	// Full queue rejects instead of blocking.
	if q.Enqueue(ctx, job("u3", "c")) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	producers := 10
	perProducer := 100

	done := make(chan bool, producers)
	for i := 0; i < producers; i++ {
		go func(id int) {
			for j := 0; j < perProducer; j++ {
				for !q.Enqueue(ctx, job(fmt.Sprintf("user%d", id), fmt.Sprintf("cal%d", j))) {
					time.Sleep(time.Millisecond)
				}
			}
			done <- true
		}(i)
	}

	var consumed atomic.Int64
	for i := 0; i < producers; i++ {
		go func() {
			for range q.Dequeue(ctx) {
				consumed.Add(1)
			}
		}()
	}

	for i := 0; i < producers; i++ {
		<-done
	}

	deadline := time.Now().Add(2 * time.Second)
	for consumed.Load() < int64(producers*perProducer) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := consumed.Load(); n != int64(producers*perProducer) {
		t.Errorf("expected %d consumed jobs, got %d", producers*perProducer, n)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, job("alice", "home")) {
		t.Error("expected enqueue to succeed")
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, job("alice", "work")) {
		t.Error("expected enqueue to fail after closing")
	}

	// Buffered jobs drain, then the channel closes.
	jobs := q.Dequeue(ctx)
	drained := 0
	timeout := time.After(time.Second)
	for {
		select {
		case _, ok := <-jobs:
			if !ok {
				if drained != 1 {
					t.Errorf("expected 1 drained job, got %d", drained)
				}
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			drained++
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := q.Dequeue(ctx)
	select {
	case _, ok := <-jobs:
		if ok {
			t.Error("expected no job from a cancelled dequeue")
		}
	case <-time.After(time.Second):
		t.Fatal("expected dequeue channel to close after cancellation")
	}
}
