package rsource

import (
	"errors"
	"sync"

	"github.com/gordian-engine/ripple/rflow"
)

// ErrSubjectCompleted is returned from [*Subject.Send] and [*Subject.Complete]
// once the subject has already completed.
var ErrSubjectCompleted = errors.New("subject already completed")

// Subject is a publisher that the host pushes values into.
// A value sent while a subscriber has no outstanding demand
// is dropped for that subscriber.
//
// Calls to Send and Complete must not overlap;
// subscribing and cancelling may happen from any goroutine.
type Subject[T any] struct {
	mu      sync.Mutex
	subs    map[*subjectSubscription[T]]struct{}
	outcome *rflow.Completion
}

// NewSubject returns a Subject with no subscribers.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{
		subs: make(map[*subjectSubscription[T]]struct{}),
	}
}

func (p *Subject[T]) Subscribe(s rflow.Subscriber[T]) rflow.Subscription {
	sub := &subjectSubscription[T]{p: p}

	p.mu.Lock()
	if p.outcome != nil {
		o := *p.outcome
		p.mu.Unlock()

		// Inert subscription: the consumer only ever sees the outcome.
		s.ReceiveSubscription(sub)
		s.ReceiveCompletion(o)
		return sub
	}

	sub.consumer = s
	p.subs[sub] = struct{}{}
	p.mu.Unlock()

	s.ReceiveSubscription(sub)
	return sub
}

// Send delivers v to every subscriber with outstanding demand.
func (p *Subject[T]) Send(v T) error {
	p.mu.Lock()
	if p.outcome != nil {
		p.mu.Unlock()
		return ErrSubjectCompleted
	}
	targets := make([]*subjectSubscription[T], 0, len(p.subs))
	for sub := range p.subs {
		targets = append(targets, sub)
	}
	p.mu.Unlock()

	for _, sub := range targets {
		sub.send(v)
	}
	return nil
}

// Complete delivers c to every current subscriber
// and to every later subscriber.
func (p *Subject[T]) Complete(c rflow.Completion) error {
	p.mu.Lock()
	if p.outcome != nil {
		p.mu.Unlock()
		return ErrSubjectCompleted
	}
	p.outcome = &c
	targets := make([]*subjectSubscription[T], 0, len(p.subs))
	for sub := range p.subs {
		targets = append(targets, sub)
	}
	clear(p.subs)
	p.mu.Unlock()

	for _, sub := range targets {
		sub.complete(c)
	}
	return nil
}

func (p *Subject[T]) remove(sub *subjectSubscription[T]) {
	p.mu.Lock()
	delete(p.subs, sub)
	p.mu.Unlock()
}

type subjectSubscription[T any] struct {
	p *Subject[T]

	mu       sync.Mutex
	consumer rflow.Subscriber[T]
	demand   rflow.Demand
}

func (s *subjectSubscription[T]) Request(d rflow.Demand) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.consumer != nil {
		s.demand = s.demand.Add(d)
	}
}

func (s *subjectSubscription[T]) Cancel() {
	s.mu.Lock()
	c := s.consumer
	s.consumer = nil
	s.mu.Unlock()

	if c != nil {
		s.p.remove(s)
	}
}

func (s *subjectSubscription[T]) send(v T) {
	s.mu.Lock()
	if s.consumer == nil || !s.demand.IsPositive() {
		s.mu.Unlock()
		return
	}
	s.demand = s.demand.SubOne()
	c := s.consumer
	s.mu.Unlock()

	more := c.ReceiveValue(v)

	s.mu.Lock()
	if s.consumer != nil {
		s.demand = s.demand.Add(more)
	}
	s.mu.Unlock()
}

func (s *subjectSubscription[T]) complete(c rflow.Completion) {
	s.mu.Lock()
	consumer := s.consumer
	s.consumer = nil
	s.mu.Unlock()

	if consumer != nil {
		consumer.ReceiveCompletion(c)
	}
}
