package rtest

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gordian-engine/ripple/rflow"
)

// CountingPublisher wraps a publisher and counts calls to Subscribe.
type CountingPublisher[T any] struct {
	Upstream rflow.Publisher[T]

	n atomic.Int32
}

func (p *CountingPublisher[T]) Subscribe(s rflow.Subscriber[T]) rflow.Subscription {
	p.n.Add(1)
	return p.Upstream.Subscribe(s)
}

// Subscriptions returns how many times Subscribe has been called.
func (p *CountingPublisher[T]) Subscriptions() int {
	return int(p.n.Load())
}

// ManualPublisher is a publisher driven directly by the test.
// Unlike a well-behaved publisher, it delivers whatever the test tells it to,
// regardless of demand or of a prior completion,
// which makes it useful for checking how subscribers defend themselves.
type ManualPublisher[T any] struct {
	mu   sync.Mutex
	subs []*ManualSubscription
	dst  []rflow.Subscriber[T]
}

// ManualSubscription records what its subscriber asked for.
type ManualSubscription struct {
	mu        sync.Mutex
	requested rflow.Demand
	cancelled bool
}

func (s *ManualSubscription) Request(d rflow.Demand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requested = s.requested.Add(d)
}

func (s *ManualSubscription) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = true
}

// Requested returns the total demand requested so far.
func (s *ManualSubscription) Requested() rflow.Demand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requested
}

// Cancelled reports whether Cancel has been called.
func (s *ManualSubscription) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

func (p *ManualPublisher[T]) Subscribe(s rflow.Subscriber[T]) rflow.Subscription {
	sub := new(ManualSubscription)

	p.mu.Lock()
	p.subs = append(p.subs, sub)
	p.dst = append(p.dst, s)
	p.mu.Unlock()

	s.ReceiveSubscription(sub)
	return sub
}

// Subscriptions returns every subscription handed out so far.
func (p *ManualPublisher[T]) Subscriptions() []*ManualSubscription {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.subs)
}

// Send delivers v to every subscriber, ignoring demand.
func (p *ManualPublisher[T]) Send(v T) {
	for _, s := range p.subscribers() {
		_ = s.ReceiveValue(v)
	}
}

// Complete delivers c to every subscriber.
func (p *ManualPublisher[T]) Complete(c rflow.Completion) {
	for _, s := range p.subscribers() {
		s.ReceiveCompletion(c)
	}
}

func (p *ManualPublisher[T]) subscribers() []rflow.Subscriber[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.dst)
}
