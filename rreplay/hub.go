package rreplay

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/bits-and-blooms/bitset"
	"github.com/gordian-engine/ripple/rflow"
)

// Config is the configuration for [New].
type Config struct {
	// Number of most recent values retained for late subscribers.
	// Zero disables replay entirely.
	Capacity int
}

// Hub multicasts a single upstream subscription to many subscribers.
// Create instances with [New].
type Hub[T any] struct {
	log *slog.Logger

	upstream rflow.Publisher[T]
	capacity int

	mu sync.Mutex

	connected bool

	// Held from the upstream's ReceiveSubscription until completion or Stop.
	upstreamSub rflow.Subscription
	stopped     bool

	// Most recent values, oldest first.
	replay []T

	// Non-nil once upstream has completed.
	outcome *rflow.Completion

	// Arena of downstream subscriptions.
	// A slot is in use exactly when its bit in active is set.
	subs   []*subscription[T]
	active *bitset.BitSet

	relayed uint64
}

// Stats is a point-in-time view of a [Hub].
type Stats struct {
	// Downstream subscriptions that have neither cancelled nor completed.
	Subscribers int

	// Values currently held for replay.
	Buffered int

	// Values received from upstream.
	Relayed uint64

	// Whether upstream has delivered its completion.
	Completed bool
}

// New returns a Hub over upstream.
// Upstream is not subscribed until the first call to [*Hub.Subscribe].
func New[T any](log *slog.Logger, upstream rflow.Publisher[T], cfg Config) *Hub[T] {
	if cfg.Capacity < 0 {
		panic(fmt.Errorf("BUG: replay capacity must not be negative (got %d)", cfg.Capacity))
	}

	return &Hub[T]{
		log: log,

		upstream: upstream,
		capacity: cfg.Capacity,

		active: bitset.New(8),
	}
}

// Subscribe attaches s to the hub.
// The new subscription starts with a copy of the replay buffer
// and, if upstream already completed, with that completion pending.
func (h *Hub[T]) Subscribe(s rflow.Subscriber[T]) rflow.Subscription {
	h.mu.Lock()

	sub := &subscription[T]{
		hub:      h,
		capacity: h.capacity,

		consumer: s,
		buf:      slices.Clone(h.replay),
	}
	if h.outcome != nil {
		o := *h.outcome
		sub.outcome = &o
	}
	sub.id = h.registerLocked(sub)

	// Nothing left to connect to once upstream has completed or the hub stopped.
	connect := !h.connected && h.outcome == nil
	h.connected = true

	h.mu.Unlock()

	s.ReceiveSubscription(sub)

	// A subscriber who joins after completion is owed the outcome
	// even if it never requests anything.
	sub.start()

	if connect {
		h.log.Debug("Subscribing to upstream")
		_ = h.upstream.Subscribe(relay[T]{h: h})
	}

	return sub
}

// Stop cancels the upstream subscription and finishes the hub.
// Downstream subscribers receive whatever backlog they are owed,
// then [rflow.Finished]; later subscribers see the same.
// Stop is idempotent, and a no-op once upstream has already completed.
func (h *Hub[T]) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	up := h.upstreamSub
	h.upstreamSub = nil
	h.mu.Unlock()

	if up != nil {
		h.log.Debug("Cancelling upstream subscription")
		up.Cancel()
	}

	h.complete(rflow.Finished())
}

// Stats returns a snapshot of h's bookkeeping.
func (h *Hub[T]) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	return Stats{
		Subscribers: int(h.active.Count()),
		Buffered:    len(h.replay),
		Relayed:     h.relayed,
		Completed:   h.outcome != nil,
	}
}

// registerLocked places sub in the first free arena slot
// and returns the slot index.
func (h *Hub[T]) registerLocked(sub *subscription[T]) uint {
	id, ok := h.active.NextClear(0)
	if !ok || id >= uint(len(h.subs)) {
		id = uint(len(h.subs))
		h.subs = append(h.subs, nil)
	}

	h.subs[id] = sub
	h.active.Set(id)
	return id
}

// remove frees the arena slot held by sub.
// Removing a slot that was already freed, or reused, is a no-op.
func (h *Hub[T]) remove(sub *subscription[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.active.Test(sub.id) || h.subs[sub.id] != sub {
		return
	}

	h.subs[sub.id] = nil
	h.active.Clear(sub.id)
}

// activeLocked returns the currently registered subscriptions.
func (h *Hub[T]) activeLocked() []*subscription[T] {
	out := make([]*subscription[T], 0, h.active.Count())
	for i, ok := h.active.NextSet(0); ok; i, ok = h.active.NextSet(i + 1) {
		out = append(out, h.subs[i])
	}
	return out
}

func (h *Hub[T]) relay(v T) {
	h.mu.Lock()

	if h.outcome != nil {
		h.mu.Unlock()
		h.log.Warn("Dropping upstream value received after completion")
		return
	}

	h.relayed++
	h.replay = appendBounded(h.replay, v, h.capacity)

	// The replay append and this snapshot happen under one lock,
	// so a concurrent Subscribe sees v either in its copied buffer
	// or through delivery below, never both.
	targets := h.activeLocked()

	h.mu.Unlock()

	for _, sub := range targets {
		sub.receive(v)
	}
}

func (h *Hub[T]) complete(c rflow.Completion) {
	h.mu.Lock()

	if h.outcome != nil {
		h.mu.Unlock()
		return
	}

	h.outcome = &c
	h.upstreamSub = nil
	targets := h.activeLocked()

	h.mu.Unlock()

	h.log.Debug(
		"Upstream completed",
		"outcome", c,
		"subscribers", len(targets),
	)

	for _, sub := range targets {
		sub.complete(c)
	}
}

// appendBounded appends v to buf, then drops the oldest entries
// so that at most capacity remain.
func appendBounded[T any](buf []T, v T, capacity int) []T {
	buf = append(buf, v)
	return trimOldest(buf, capacity)
}

func trimOldest[T any](buf []T, capacity int) []T {
	excess := len(buf) - capacity
	if excess <= 0 {
		return buf
	}

	// Shift survivors to the front so the backing array is reused,
	// and zero the vacated tail so dropped values can be collected.
	n := copy(buf, buf[excess:])
	clear(buf[n:])
	return buf[:n]
}

// relay is the hub's single upstream subscriber.
type relay[T any] struct {
	h *Hub[T]
}

func (r relay[T]) ReceiveSubscription(s rflow.Subscription) {
	r.h.mu.Lock()
	if r.h.stopped {
		r.h.mu.Unlock()
		s.Cancel()
		return
	}
	r.h.upstreamSub = s
	r.h.mu.Unlock()

	s.Request(rflow.Unbounded)
}

func (r relay[T]) ReceiveValue(v T) rflow.Demand {
	r.h.relay(v)
	return rflow.None
}

func (r relay[T]) ReceiveCompletion(c rflow.Completion) {
	r.h.complete(c)
}
