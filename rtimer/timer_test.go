package rtimer_test

import (
	"context"
	"testing"
	"time"

	"github.com/gordian-engine/ripple/internal/rtest"
	"github.com/gordian-engine/ripple/rflow"
	"github.com/gordian-engine/ripple/rqueue"
	"github.com/gordian-engine/ripple/rtimer"
	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var epoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// tick advances clk by one interval, once the timer goroutine is waiting on it.
func tick(t *testing.T, clk *testclock.Clock, interval time.Duration) {
	t.Helper()
	require.NoError(t, clk.WaitAdvance(interval, 2*time.Second, 1))
}

func TestPublisher_limitThenFinished(t *testing.T) {
	t.Parallel()

	clk := testclock.NewClock(epoch)
	p := rtimer.New(rtest.NewLogger(t), rtimer.Config{
		Clock:    clk,
		Interval: time.Second,
		Limit:    6,
	})

	r := rtest.NewRecorder[time.Time](rflow.Unbounded, rflow.None)
	_ = p.Subscribe(r)

	for i := 1; i <= 6; i++ {
		tick(t, clk, time.Second)
		v := rtest.ReceiveSoon(t, r.ValueCh())
		require.Equal(t, epoch.Add(time.Duration(i)*time.Second), v)
	}

	c := rtest.ReceiveSoon(t, r.CompletionCh())
	require.True(t, c.IsFinished())

	// The timer is disarmed, so nothing is waiting on the clock.
	require.Error(t, clk.WaitAdvance(time.Second, 20*time.Millisecond, 1))
	rtest.NotSending(t, r.ValueCh())

	require.Len(t, r.Values(), 6)
	require.Len(t, r.Completions(), 1)
}

func TestPublisher_noTimerWithoutDemand(t *testing.T) {
	t.Parallel()

	clk := testclock.NewClock(epoch)
	p := rtimer.New(rtest.NewLogger(t), rtimer.Config{
		Clock:    clk,
		Interval: time.Second,
	})

	r := rtest.NewRecorder[time.Time](rflow.None, rflow.None)
	sub := p.Subscribe(r)
	defer sub.Cancel()

	require.Error(t, clk.WaitAdvance(time.Second, 20*time.Millisecond, 1))

	sub.Request(rflow.Max(1))
	tick(t, clk, time.Second)
	_ = rtest.ReceiveSoon(t, r.ValueCh())
}

func TestPublisher_neverExceedsDemand(t *testing.T) {
	t.Parallel()

	clk := testclock.NewClock(epoch)
	p := rtimer.New(rtest.NewLogger(t), rtimer.Config{
		Clock:    clk,
		Interval: time.Second,
	})

	r := rtest.NewRecorder[time.Time](rflow.Max(2), rflow.None)
	sub := p.Subscribe(r)
	defer sub.Cancel()

	tick(t, clk, time.Second)
	_ = rtest.ReceiveSoon(t, r.ValueCh())
	tick(t, clk, time.Second)
	_ = rtest.ReceiveSoon(t, r.ValueCh())

	// Demand is exhausted, but the timer keeps ticking.
	tick(t, clk, time.Second)
	tick(t, clk, time.Second)
	rtest.NotSending(t, r.ValueCh())
	require.Len(t, r.Values(), 2)

	sub.Request(rflow.Max(1))
	tick(t, clk, time.Second)
	v := rtest.ReceiveSoon(t, r.ValueCh())
	require.Equal(t, epoch.Add(5*time.Second), v)
	require.Empty(t, r.Completions())
}

func TestPublisher_foldsReturnedDemand(t *testing.T) {
	t.Parallel()

	clk := testclock.NewClock(epoch)
	p := rtimer.New(rtest.NewLogger(t), rtimer.Config{
		Clock:    clk,
		Interval: time.Second,
		Limit:    3,
	})

	// One at a time, with each value asking for one more.
	r := rtest.NewRecorder[time.Time](rflow.Max(1), rflow.Max(1))
	_ = p.Subscribe(r)

	for range 3 {
		tick(t, clk, time.Second)
		_ = rtest.ReceiveSoon(t, r.ValueCh())
	}

	c := rtest.ReceiveSoon(t, r.CompletionCh())
	require.True(t, c.IsFinished())
}

func TestPublisher_cancel(t *testing.T) {
	t.Parallel()

	clk := testclock.NewClock(epoch)
	p := rtimer.New(rtest.NewLogger(t), rtimer.Config{
		Clock:    clk,
		Interval: time.Second,
	})

	r := rtest.NewRecorder[time.Time](rflow.Unbounded, rflow.None)
	sub := p.Subscribe(r)

	tick(t, clk, time.Second)
	_ = rtest.ReceiveSoon(t, r.ValueCh())

	sub.Cancel()
	sub.Cancel() // Idempotent.

	clk.Advance(time.Second)
	rtest.NotSending(t, r.ValueCh())
	rtest.NotSending(t, r.CompletionCh())

	// Requests after cancel are ignored and do not re-arm.
	sub.Request(rflow.Unbounded)
	require.Error(t, clk.WaitAdvance(time.Second, 20*time.Millisecond, 1))
}

func TestPublisher_independentSubscribers(t *testing.T) {
	t.Parallel()

	clk := testclock.NewClock(epoch)
	p := rtimer.New(rtest.NewLogger(t), rtimer.Config{
		Clock:    clk,
		Interval: time.Second,
		Limit:    1,
	})

	r1 := rtest.NewRecorder[time.Time](rflow.Unbounded, rflow.None)
	r2 := rtest.NewRecorder[time.Time](rflow.Unbounded, rflow.None)
	_ = p.Subscribe(r1)
	_ = p.Subscribe(r2)

	require.NoError(t, clk.WaitAdvance(time.Second, 2*time.Second, 2))

	_ = rtest.ReceiveSoon(t, r1.ValueCh())
	_ = rtest.ReceiveSoon(t, r2.ValueCh())
	_ = rtest.ReceiveSoon(t, r1.CompletionCh())
	_ = rtest.ReceiveSoon(t, r2.CompletionCh())
}

func TestPublisher_serialQueue(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := rtest.NewLogger(t)
	q := rqueue.NewSerial(ctx, log, rqueue.SerialConfig{})
	defer q.Wait()
	defer cancel()

	clk := testclock.NewClock(epoch)
	p := rtimer.New(log, rtimer.Config{
		Clock:    clk,
		Queue:    q,
		Interval: 10 * time.Millisecond,
		Limit:    2,
	})

	r := rtest.NewRecorder[time.Time](rflow.Unbounded, rflow.None)
	_ = p.Subscribe(r)

	tick(t, clk, 10*time.Millisecond)
	_ = rtest.ReceiveSoon(t, r.ValueCh())
	tick(t, clk, 10*time.Millisecond)
	_ = rtest.ReceiveSoon(t, r.ValueCh())

	c := rtest.ReceiveSoon(t, r.CompletionCh())
	require.True(t, c.IsFinished())
}

func TestNew_invalidConfig(t *testing.T) {
	t.Parallel()

	log := rtest.NewLogger(t)

	require.Panics(t, func() {
		rtimer.New(log, rtimer.Config{})
	})
	require.Panics(t, func() {
		rtimer.New(log, rtimer.Config{Interval: time.Second, Limit: -1})
	})
}

func TestPublisher_cancelDuringFinalValue(t *testing.T) {
	t.Parallel()

	clk := testclock.NewClock(epoch)
	p := rtimer.New(rtest.NewLogger(t), rtimer.Config{
		Clock:    clk,
		Interval: time.Second,
		Limit:    1,
	})

	r := rtest.NewRecorder[time.Time](rflow.Unbounded, rflow.None)
	r.OnValue = func(time.Time) {
		r.Cancel()
	}
	_ = p.Subscribe(r)

	tick(t, clk, time.Second)
	_ = rtest.ReceiveSoon(t, r.ValueCh())

	// Cancelled before the limit's completion could be delivered.
	rtest.NotSending(t, r.CompletionCh())
	require.Empty(t, r.Completions())
	require.Len(t, r.Values(), 1)
}
