package rtest

import (
	"sync"

	"github.com/gordian-engine/ripple/rflow"
)

// Recorder is a [rflow.Subscriber] that records everything it receives.
//
// It requests Initial demand on subscription,
// and returns PerValue demand from every ReceiveValue call.
type Recorder[T any] struct {
	initial  rflow.Demand
	perValue rflow.Demand

	// Optional hook run inside ReceiveValue, after the value is recorded.
	OnValue func(T)

	mu          sync.Mutex
	sub         rflow.Subscription
	values      []T
	completions []rflow.Completion

	valueCh      chan T
	completionCh chan rflow.Completion
}

// NewRecorder returns a Recorder with the given demand policy.
func NewRecorder[T any](initial, perValue rflow.Demand) *Recorder[T] {
	return &Recorder[T]{
		initial:  initial,
		perValue: perValue,

		// Large enough that no test blocks a producer.
		valueCh:      make(chan T, 1024),
		completionCh: make(chan rflow.Completion, 4),
	}
}

func (r *Recorder[T]) ReceiveSubscription(s rflow.Subscription) {
	r.mu.Lock()
	r.sub = s
	r.mu.Unlock()

	if r.initial != rflow.None {
		s.Request(r.initial)
	}
}

func (r *Recorder[T]) ReceiveValue(v T) rflow.Demand {
	r.mu.Lock()
	r.values = append(r.values, v)
	r.mu.Unlock()

	r.valueCh <- v

	if r.OnValue != nil {
		r.OnValue(v)
	}

	return r.perValue
}

func (r *Recorder[T]) ReceiveCompletion(c rflow.Completion) {
	r.mu.Lock()
	r.completions = append(r.completions, c)
	r.mu.Unlock()

	r.completionCh <- c
}

// Request forwards d to the recorded subscription.
func (r *Recorder[T]) Request(d rflow.Demand) {
	r.mu.Lock()
	s := r.sub
	r.mu.Unlock()

	s.Request(d)
}

// Cancel cancels the recorded subscription.
func (r *Recorder[T]) Cancel() {
	r.mu.Lock()
	s := r.sub
	r.mu.Unlock()

	s.Cancel()
}

// Values returns a copy of every value received so far.
func (r *Recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]T, len(r.values))
	copy(out, r.values)
	return out
}

// Completions returns every completion received so far.
// A well-behaved publisher never produces more than one.
func (r *Recorder[T]) Completions() []rflow.Completion {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]rflow.Completion, len(r.completions))
	copy(out, r.completions)
	return out
}

// ValueCh receives each value as it is recorded.
func (r *Recorder[T]) ValueCh() <-chan T {
	return r.valueCh
}

// CompletionCh receives the completion when it is recorded.
func (r *Recorder[T]) CompletionCh() <-chan rflow.Completion {
	return r.completionCh
}
