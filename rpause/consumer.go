// Package rpause contains a subscriber that pulls one value at a time
// and can suspend its own demand.
package rpause

import (
	"sync"

	"github.com/gordian-engine/ripple/rflow"
)

// Consumer is a [rflow.Subscriber] that requests exactly one value at a time.
//
// When the onValue callback returns false, the consumer pauses:
// it stops requesting values until [*Consumer.Resume] is called.
type Consumer[T any] struct {
	onValue      func(T) bool
	onCompletion func(rflow.Completion)

	mu     sync.Mutex
	sub    rflow.Subscription
	paused bool

	// One-buffered; see Pauses.
	pauses chan struct{}
}

// New returns a Consumer ready to be passed to [rflow.Publisher.Subscribe].
// onCompletion may be nil.
func New[T any](onValue func(T) bool, onCompletion func(rflow.Completion)) *Consumer[T] {
	return &Consumer[T]{
		onValue:      onValue,
		onCompletion: onCompletion,

		pauses: make(chan struct{}, 1),
	}
}

func (c *Consumer[T]) ReceiveSubscription(s rflow.Subscription) {
	c.mu.Lock()
	c.sub = s
	c.mu.Unlock()

	s.Request(rflow.Max(1))
}

func (c *Consumer[T]) ReceiveValue(v T) rflow.Demand {
	if c.onValue(v) {
		return rflow.Max(1)
	}

	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()

	select {
	case c.pauses <- struct{}{}:
	default:
	}

	return rflow.None
}

func (c *Consumer[T]) ReceiveCompletion(comp rflow.Completion) {
	c.mu.Lock()
	c.sub = nil
	c.mu.Unlock()

	if c.onCompletion != nil {
		c.onCompletion(comp)
	}
}

// Paused reports whether the consumer is currently paused.
func (c *Consumer[T]) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Pauses returns a channel that is signaled whenever the consumer pauses,
// so a driver can call Resume without polling Paused.
// Signals coalesce if the driver falls behind.
func (c *Consumer[T]) Pauses() <-chan struct{} {
	return c.pauses
}

// Resume requests one more value if the consumer is paused.
// It is a no-op otherwise.
func (c *Consumer[T]) Resume() {
	c.mu.Lock()
	if !c.paused {
		c.mu.Unlock()
		return
	}
	c.paused = false
	s := c.sub
	c.mu.Unlock()

	if s != nil {
		s.Request(rflow.Max(1))
	}
}

// Cancel cancels the held subscription and releases it.
// Cancel is idempotent.
func (c *Consumer[T]) Cancel() {
	c.mu.Lock()
	s := c.sub
	c.sub = nil
	c.mu.Unlock()

	if s != nil {
		s.Cancel()
	}
}
