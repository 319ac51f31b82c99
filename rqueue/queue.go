package rqueue

import (
	"context"
	"log/slog"
)

// Queue runs dispatched functions.
// Implementations must run functions in the order they were dispatched.
type Queue interface {
	Dispatch(fn func())
}

// Inline is a [Queue] that runs each function on the dispatching goroutine.
type Inline struct{}

func (Inline) Dispatch(fn func()) { fn() }

// Serial is a [Queue] backed by a single worker goroutine.
// Dispatched functions run one at a time, in dispatch order.
type Serial struct {
	log *slog.Logger

	work chan func()

	done chan struct{}
}

// SerialConfig is the configuration for [NewSerial].
type SerialConfig struct {
	// Number of dispatched functions that may be waiting
	// before Dispatch blocks.
	// Zero means Dispatch blocks until the worker accepts the function.
	Backlog int
}

// NewSerial starts the worker goroutine.
// The worker stops when ctx is canceled;
// use [*Serial.Wait] to block until it has stopped.
func NewSerial(ctx context.Context, log *slog.Logger, cfg SerialConfig) *Serial {
	q := &Serial{
		log: log,

		work: make(chan func(), cfg.Backlog),

		done: make(chan struct{}),
	}

	go q.run(ctx)

	return q
}

func (q *Serial) run(ctx context.Context) {
	defer close(q.done)

	for {
		select {
		case <-ctx.Done():
			q.log.Debug(
				"Stopping serial queue due to context cancellation",
				"cause", context.Cause(ctx),
			)
			return

		case fn := <-q.work:
			fn()
		}
	}
}

// Dispatch hands fn to the worker.
// If the worker has already stopped, fn is dropped.
func (q *Serial) Dispatch(fn func()) {
	select {
	case <-q.done:
	case q.work <- fn:
	}
}

// Wait blocks until the worker goroutine has stopped.
func (q *Serial) Wait() {
	<-q.done
}
