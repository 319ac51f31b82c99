// Package rtimer contains a repeating timer publisher
// that only emits while its subscriber has outstanding demand.
package rtimer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gordian-engine/ripple/rflow"
	"github.com/gordian-engine/ripple/rqueue"
	"github.com/juju/clock"
)

// Config is the configuration for [New].
type Config struct {
	// Source of time and timers.
	// Defaults to [clock.WallClock].
	Clock clock.Clock

	// Where tick handlers run.
	// Defaults to [rqueue.Inline], meaning the timer goroutine itself.
	Queue rqueue.Queue

	// Time between ticks. Must be positive.
	Interval time.Duration

	// Maximum acceptable lateness of a tick.
	// Later ticks are still delivered, but they are logged.
	Leeway time.Duration

	// Total number of values to emit before finishing.
	// Zero means no limit.
	Limit int
}

// Publisher emits the current time of its clock on every tick,
// but only while the subscriber has outstanding demand.
// Each subscriber gets an independent timer.
//
// The stream never fails; it ends by reaching the limit or by cancellation.
type Publisher struct {
	log *slog.Logger
	cfg Config
}

// New returns a new Publisher.
// It panics if cfg.Interval is not positive or if cfg.Limit is negative.
func New(log *slog.Logger, cfg Config) *Publisher {
	if cfg.Interval <= 0 {
		panic(fmt.Errorf("BUG: timer interval must be positive (got %s)", cfg.Interval))
	}
	if cfg.Limit < 0 {
		panic(fmt.Errorf("BUG: timer limit must not be negative (got %d)", cfg.Limit))
	}

	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.Queue == nil {
		cfg.Queue = rqueue.Inline{}
	}

	return &Publisher{log: log, cfg: cfg}
}

func (p *Publisher) Subscribe(s rflow.Subscriber[time.Time]) rflow.Subscription {
	remaining := rflow.Unbounded
	if p.cfg.Limit > 0 {
		remaining = rflow.Max(p.cfg.Limit)
	}

	sub := &subscription{
		log: p.log,
		cfg: p.cfg,

		consumer:  s,
		remaining: remaining,
	}

	s.ReceiveSubscription(sub)
	return sub
}

type subscription struct {
	log *slog.Logger
	cfg Config

	mu sync.Mutex

	// Nil once the subscription is cancelled or finished.
	consumer rflow.Subscriber[time.Time]

	requested rflow.Demand
	remaining rflow.Demand

	// Non-nil while the timer goroutine is running.
	stop context.CancelFunc

	// Set while the final value is being delivered.
	// The timer is already stopped, but the consumer is kept
	// so that a Cancel during that delivery suppresses the completion.
	finishing bool
}

func (s *subscription) Request(d rflow.Demand) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.consumer == nil || s.finishing {
		return
	}

	s.requested = s.requested.Add(d)

	if s.stop == nil && s.requested.IsPositive() {
		ctx, cancel := context.WithCancel(context.Background())
		s.stop = cancel
		go s.run(ctx)
	}
}

func (s *subscription) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.retireLocked()
}

// retireLocked drops the consumer and stops the timer goroutine,
// returning the consumer that was held.
// s.mu must be held.
func (s *subscription) retireLocked() rflow.Subscriber[time.Time] {
	c := s.consumer
	s.consumer = nil

	if s.stop != nil {
		s.stop()
		s.stop = nil
	}

	return c
}

// run is the timer goroutine.
// Once armed, it keeps ticking regardless of demand;
// only finishing or cancellation stops it.
func (s *subscription) run(ctx context.Context) {
	clk := s.cfg.Clock
	interval := s.cfg.Interval

	deadline := clk.Now().Add(interval)
	t := clk.NewTimer(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.Chan():
		}

		now := clk.Now()
		if late := now.Sub(deadline); late > s.cfg.Leeway {
			s.log.Debug(
				"Timer tick later than allowed leeway",
				"late", late,
				"leeway", s.cfg.Leeway,
			)
		}

		s.cfg.Queue.Dispatch(s.tick)

		if ctx.Err() != nil {
			return
		}

		// Schedule relative to the deadline rather than to now,
		// skipping any deadlines that already passed.
		for !deadline.After(now) {
			deadline = deadline.Add(interval)
		}
		_ = t.Reset(deadline.Sub(now))
	}
}

func (s *subscription) tick() {
	s.mu.Lock()

	if s.consumer == nil || s.finishing || !s.requested.IsPositive() {
		s.mu.Unlock()
		return
	}

	s.requested = s.requested.SubOne()
	s.remaining = s.remaining.SubOne()

	c := s.consumer
	last := !s.remaining.IsPositive()
	if last {
		s.finishing = true
		if s.stop != nil {
			s.stop()
			s.stop = nil
		}
	}

	now := s.cfg.Clock.Now()
	s.mu.Unlock()

	more := c.ReceiveValue(now)

	if last {
		s.mu.Lock()
		if s.consumer == nil {
			// Cancelled while receiving the final value.
			s.mu.Unlock()
			return
		}
		_ = s.retireLocked()
		s.mu.Unlock()

		c.ReceiveCompletion(rflow.Finished())
		return
	}

	if more.IsPositive() {
		s.mu.Lock()
		if s.consumer != nil {
			s.requested = s.requested.Add(more)
		}
		s.mu.Unlock()
	}
}
