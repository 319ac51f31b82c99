package rflow

import "sync"

// Sink is a [Subscriber] that requests unbounded demand
// and forwards everything it receives to callbacks.
// Either callback may be nil.
type Sink[T any] struct {
	onValue      func(T)
	onCompletion func(Completion)

	mu  sync.Mutex
	sub Subscription
}

// NewSink returns a Sink that is ready to be passed to [Publisher.Subscribe].
func NewSink[T any](onValue func(T), onCompletion func(Completion)) *Sink[T] {
	return &Sink[T]{
		onValue:      onValue,
		onCompletion: onCompletion,
	}
}

func (s *Sink[T]) ReceiveSubscription(sub Subscription) {
	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()

	sub.Request(Unbounded)
}

func (s *Sink[T]) ReceiveValue(v T) Demand {
	if s.onValue != nil {
		s.onValue(v)
	}
	return None
}

func (s *Sink[T]) ReceiveCompletion(c Completion) {
	s.mu.Lock()
	s.sub = nil
	s.mu.Unlock()

	if s.onCompletion != nil {
		s.onCompletion(c)
	}
}

// Cancel cancels the underlying subscription, if there still is one.
func (s *Sink[T]) Cancel() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
}
