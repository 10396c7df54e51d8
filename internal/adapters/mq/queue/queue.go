// Package queue carries winner-announcement events from cycle
// settlement to the pity-point issuer. Settlement never blocks on the
// fan-out; it publishes and moves on.
package queue

import (
	"context"
	"sync"

	"github.com/willerob90/SubGames-Working/internal/domain/model"
	"github.com/willerob90/SubGames-Working/pkg/metrics"
)

const defaultCapacity = 1024

// Event is the payload flowing through the queue.
type Event = model.WinnerEvent

// Queue provides non-blocking enqueue and channel-based dequeue.
type Queue interface {
	// Enqueue adds an event. Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, e Event) bool

	// Dequeue returns a channel receiving events until the queue closes.
	Dequeue(ctx context.Context) <-chan Event

	// Len returns the number of pending events.
	Len(ctx context.Context) int

	// Close stops the queue; pending events are still delivered.
	Close() error
}

// InMemoryQueue implements Queue on a buffered channel.
type InMemoryQueue struct {
	events chan Event
	mu     sync.RWMutex
	closed bool
}

// Option applies a configuration option to the queue.
type Option func(*InMemoryQueue)

// WithCapacity bounds the number of buffered events.
func WithCapacity(n int) Option {
	return func(q *InMemoryQueue) {
		if n > 0 {
			q.events = make(chan Event, n)
		}
	}
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		events: make(chan Event, defaultCapacity),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue adds an event without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e Event) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueDropped()
		return false
	}
	select {
	case q.events <- e:
		metrics.UpdateQueueDepth(len(q.events))
		return true
	case <-ctx.Done():
		metrics.RecordQueueDropped()
		return false
	default:
		metrics.RecordQueueDropped()
		return false
	}
}

// Dequeue returns the receive side of the queue.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		for e := range q.events {
			select {
			case out <- e:
				metrics.UpdateQueueDepth(len(q.events))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the number of pending events.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	return len(q.events)
}

// Close stops accepting events and lets consumers drain.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.events)
	q.closed = true
	return nil
}
