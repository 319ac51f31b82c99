package rsource

import (
	"context"
	"sync"

	"github.com/gordian-engine/ripple/rflow"
)

// ChannelPublisher pulls values from a channel on behalf of its subscribers.
// Create instances with [FromChannel].
//
// A value is only received from the channel once a subscriber has demand for it,
// so an unread channel applies backpressure to whoever is sending on it.
// Multiple subscribers share the channel, and each value reaches at most one of them.
// A value already pulled when its subscriber cancels is dropped.
type ChannelPublisher[T any] struct {
	ctx context.Context
	ch  <-chan T
}

// FromChannel returns a publisher over ch.
// Subscriptions finish when ch is closed,
// and fail with the context's cause when ctx is done.
func FromChannel[T any](ctx context.Context, ch <-chan T) *ChannelPublisher[T] {
	return &ChannelPublisher[T]{ctx: ctx, ch: ch}
}

func (p *ChannelPublisher[T]) Subscribe(s rflow.Subscriber[T]) rflow.Subscription {
	ctx, cancel := context.WithCancel(p.ctx)
	sub := &channelSubscription[T]{
		parent: p.ctx,
		ch:     p.ch,
		cancel: cancel,

		consumer: s,

		// One-buffered so Request never blocks.
		wake: make(chan struct{}, 1),
	}

	s.ReceiveSubscription(sub)

	go sub.run(ctx)

	return sub
}

type channelSubscription[T any] struct {
	parent context.Context
	ch     <-chan T
	cancel context.CancelFunc

	mu       sync.Mutex
	consumer rflow.Subscriber[T]
	demand   rflow.Demand

	wake chan struct{}
}

func (s *channelSubscription[T]) Request(d rflow.Demand) {
	s.mu.Lock()
	if s.consumer == nil {
		s.mu.Unlock()
		return
	}
	s.demand = s.demand.Add(d)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *channelSubscription[T]) Cancel() {
	s.mu.Lock()
	s.consumer = nil
	s.mu.Unlock()

	s.cancel()
}

func (s *channelSubscription[T]) run(ctx context.Context) {
	defer s.cancel()

	for {
		s.mu.Lock()
		active := s.consumer != nil
		ready := s.demand.IsPositive()
		s.mu.Unlock()

		if !active {
			return
		}

		if !ready {
			select {
			case <-ctx.Done():
				s.fail()
				return
			case <-s.wake:
				continue
			}
		}

		// Select picks randomly among ready cases,
		// so a cancelled subscription must not race the receive.
		if ctx.Err() != nil {
			s.fail()
			return
		}

		select {
		case <-ctx.Done():
			s.fail()
			return

		case v, ok := <-s.ch:
			if !ok {
				s.finish(rflow.Finished())
				return
			}
			s.deliver(v)
		}
	}
}

func (s *channelSubscription[T]) deliver(v T) {
	s.mu.Lock()
	c := s.consumer
	if c == nil {
		s.mu.Unlock()
		return
	}
	s.demand = s.demand.SubOne()
	s.mu.Unlock()

	more := c.ReceiveValue(v)

	s.mu.Lock()
	if s.consumer != nil {
		s.demand = s.demand.Add(more)
	}
	s.mu.Unlock()
}

// finish delivers c unless the subscription was cancelled first.
func (s *channelSubscription[T]) finish(c rflow.Completion) {
	s.mu.Lock()
	consumer := s.consumer
	s.consumer = nil
	s.mu.Unlock()

	if consumer != nil {
		consumer.ReceiveCompletion(c)
	}
}

// fail reports the parent context's cause.
// If the consumer is already gone, ctx ended because of Cancel
// and there is nothing to report.
func (s *channelSubscription[T]) fail() {
	s.mu.Lock()
	consumer := s.consumer
	s.consumer = nil
	s.mu.Unlock()

	if consumer != nil {
		consumer.ReceiveCompletion(rflow.Failed(context.Cause(s.parent)))
	}
}
