package rsource

import (
	"slices"
	"sync"

	"github.com/gordian-engine/ripple/rflow"
)

// SlicePublisher emits a fixed sequence of values to each subscriber,
// honoring demand, and finishes once the sequence is exhausted.
// Create instances with [FromSlice].
type SlicePublisher[T any] struct {
	vals []T
}

// FromSlice returns a publisher over a copy of vals.
func FromSlice[T any](vals []T) *SlicePublisher[T] {
	return &SlicePublisher[T]{vals: slices.Clone(vals)}
}

func (p *SlicePublisher[T]) Subscribe(s rflow.Subscriber[T]) rflow.Subscription {
	sub := &sliceSubscription[T]{
		vals:     p.vals,
		consumer: s,
	}

	s.ReceiveSubscription(sub)

	// An empty sequence finishes without any demand.
	sub.mu.Lock()
	sub.started = true
	sub.drainLocked()

	return sub
}

type sliceSubscription[T any] struct {
	vals []T

	mu       sync.Mutex
	consumer rflow.Subscriber[T]
	demand   rflow.Demand
	next     int
	started  bool
	emitting bool
}

func (s *sliceSubscription[T]) Request(d rflow.Demand) {
	s.mu.Lock()
	if s.consumer == nil {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.demand = s.demand.Add(d)
	s.drainLocked()
}

func (s *sliceSubscription[T]) Cancel() {
	s.mu.Lock()
	s.consumer = nil
	s.mu.Unlock()
}

// drainLocked is entered with s.mu held and releases it.
func (s *sliceSubscription[T]) drainLocked() {
	if !s.started || s.emitting {
		s.mu.Unlock()
		return
	}
	s.emitting = true

	for s.consumer != nil && s.demand.IsPositive() && s.next < len(s.vals) {
		v := s.vals[s.next]
		s.next++
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

	if s.consumer == nil || s.next < len(s.vals) {
		s.mu.Unlock()
		return
	}

	c := s.consumer
	s.consumer = nil
	s.mu.Unlock()

	c.ReceiveCompletion(rflow.Finished())
}
