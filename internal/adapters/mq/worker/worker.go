// Package worker consumes winner-announcement events and runs the pity
// eligibility fan-out for each settled cycle.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/willerob90/SubGames-Working/internal/adapters/mq/queue"
	"github.com/willerob90/SubGames-Working/pkg/logger"
	"github.com/willerob90/SubGames-Working/pkg/metrics"
)

const workerShutdownTimeout = 5 * time.Second

// Event is what workers read off the queue.
type Event = queue.Event

// Issuer writes pity eligibility for the non-winning picks of a cycle.
type Issuer interface {
	IssuePityEligibility(ctx context.Context, cycleID, winnerID string) (int64, error)
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes winner events until stopped.
type Worker struct {
	queue  Queue
	issuer Issuer
	name   string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker's log name.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
			w.logger = logger.Get().Named(name)
		}
	}
}

// New creates a worker bound to a queue and issuer.
func New(q Queue, issuer Issuer, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		issuer:   issuer,
		name:     "pity-worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("pity-worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes events until ctx is canceled, the queue closes, or
// Shutdown is called.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := w.process(ctx, e); err != nil {
				w.logger.Error(ctx, "pity fan-out failed",
					logger.String("cycle", e.CycleID),
					logger.Error(err),
				)
			}
		}
	}
}

func (w *Worker) process(ctx context.Context, e Event) error {
	issued, err := w.issuer.IssuePityEligibility(ctx, e.CycleID, e.WinnerID)
	if err != nil {
		return fmt.Errorf("issue pity for cycle %s: %w", e.CycleID, err)
	}
	metrics.RecordPityIssued(issued)
	w.logger.Info(ctx, "pity eligibility issued",
		logger.String("cycle", e.CycleID),
		logger.String("winner", e.WinnerID),
		logger.Int64("issued", issued),
	)
	return nil
}

// Shutdown stops the worker, waiting up to the shutdown timeout.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-time.After(workerShutdownTimeout):
		return fmt.Errorf("worker %s: shutdown timed out", w.name)
	case <-ctx.Done():
		return fmt.Errorf("worker %s: %w", w.name, ctx.Err())
	}
}
