package rreplay

import (
	"sync"

	"github.com/gordian-engine/ripple/rflow"
)

// subscription is the per-subscriber state owned by a [Hub].
//
// Deliveries happen without holding mu,
// so the consumer may call Request or Cancel reentrantly.
// The emitting flag keeps a single goroutine delivering at a time,
// which is what preserves per-subscriber ordering.
type subscription[T any] struct {
	// Back-reference used only to free the arena slot.
	hub *Hub[T]
	id  uint

	capacity int

	mu sync.Mutex

	// Nil once cancelled or once the outcome has been delivered.
	consumer rflow.Subscriber[T]

	demand  rflow.Demand
	buf     []T
	outcome *rflow.Completion

	// Set once the consumer is known to hold the subscription,
	// so that nothing is delivered ahead of ReceiveSubscription.
	started bool

	emitting bool
}

func (s *subscription[T]) Request(d rflow.Demand) {
	s.mu.Lock()
	if s.consumer == nil {
		s.mu.Unlock()
		return
	}

	s.started = true
	s.demand = s.demand.Add(d)
	s.drainLocked()
}

func (s *subscription[T]) Cancel() {
	s.mu.Lock()
	if s.consumer == nil {
		s.mu.Unlock()
		return
	}

	s.consumer = nil
	s.buf = nil
	s.outcome = nil
	s.mu.Unlock()

	s.hub.remove(s)
}

// receive is the hub's relay path into this subscription.
func (s *subscription[T]) receive(v T) {
	s.mu.Lock()
	if s.consumer == nil || s.outcome != nil {
		s.mu.Unlock()
		return
	}

	s.buf = append(s.buf, v)
	s.drainLocked()
}

// complete records the upstream outcome.
// It is delivered once the backlog owed to the consumer is drained.
func (s *subscription[T]) complete(c rflow.Completion) {
	s.mu.Lock()
	if s.consumer == nil || s.outcome != nil {
		s.mu.Unlock()
		return
	}

	s.outcome = &c
	s.drainLocked()
}

// start marks the subscription as handed to its consumer
// and delivers anything deliverable without changing demand.
func (s *subscription[T]) start() {
	s.mu.Lock()
	s.started = true
	s.drainLocked()
}

// drainLocked delivers buffered values while there is demand,
// then the outcome if one is pending and the buffer is empty.
// s.mu must be held on entry, and it is released before returning.
func (s *subscription[T]) drainLocked() {
	if !s.started || s.emitting {
		// Either start will drain shortly,
		// or the active emitter observes our changes before it stops looping.
		s.mu.Unlock()
		return
	}
	s.emitting = true

	for s.consumer != nil && s.demand.IsPositive() && len(s.buf) > 0 {
		v := s.buf[0]
		var zero T
		s.buf[0] = zero
		s.buf = s.buf[1:]
		s.demand = s.demand.SubOne()

		c := s.consumer
		s.mu.Unlock()

		more := c.ReceiveValue(v)

		s.mu.Lock()
		if s.consumer != nil {
			s.demand = s.demand.Add(more)
		}
	}

	s.emitting = false

	if s.consumer == nil {
		// Cancelled during delivery.
		s.mu.Unlock()
		return
	}

	// Without demand, a subscriber holds no more pending values
	// than the replay capacity.
	s.buf = trimOldest(s.buf, s.capacity)

	if s.outcome == nil || len(s.buf) > 0 {
		s.mu.Unlock()
		return
	}

	c := s.consumer
	o := *s.outcome
	s.consumer = nil
	s.buf = nil
	s.outcome = nil
	s.mu.Unlock()

	s.hub.remove(s)
	c.ReceiveCompletion(o)
}
