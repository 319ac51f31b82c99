package rpause_test

import (
	"testing"

	"github.com/gordian-engine/ripple/internal/rtest"
	"github.com/gordian-engine/ripple/rflow"
	"github.com/gordian-engine/ripple/rpause"
	"github.com/gordian-engine/ripple/rreplay"
	"github.com/gordian-engine/ripple/rsource"
	"github.com/stretchr/testify/require"
)

func TestConsumer_pausesOnOddValues(t *testing.T) {
	t.Parallel()

	var got []int
	var done []rflow.Completion
	c := rpause.New(
		func(v int) bool {
			got = append(got, v)
			return v%2 == 0
		},
		func(comp rflow.Completion) { done = append(done, comp) },
	)

	_ = rsource.FromSlice([]int{1, 2, 3, 4, 5, 6}).Subscribe(c)

	require.Equal(t, []int{1}, got)
	require.True(t, c.Paused())

	// Signaled once per pause; drive resumption from the signal.
	for len(done) == 0 {
		rtest.IsSending(t, c.Pauses())
		c.Resume()
	}

	require.Equal(t, []int{1, 2, 3, 4, 5, 6}, got)
	require.Equal(t, []rflow.Completion{rflow.Finished()}, done)
	require.False(t, c.Paused())
}

func TestConsumer_resumeWhenNotPausedIsNoop(t *testing.T) {
	t.Parallel()

	up := new(rtest.ManualPublisher[int])
	c := rpause.New(func(int) bool { return true }, nil)
	_ = up.Subscribe(c)

	sub := up.Subscriptions()[0]
	require.Equal(t, rflow.Max(1), sub.Requested())

	c.Resume()
	require.Equal(t, rflow.Max(1), sub.Requested())
	rtest.NotSending(t, c.Pauses())
}

func TestConsumer_singleItemDiscipline(t *testing.T) {
	t.Parallel()

	up := rsource.NewSubject[int]()

	var got []int
	c := rpause.New(func(v int) bool {
		got = append(got, v)
		return false
	}, nil)
	_ = up.Subscribe(c)

	// Only one value fits in the outstanding demand;
	// the subject drops the rest while paused.
	require.NoError(t, up.Send(1))
	require.NoError(t, up.Send(2))
	require.Equal(t, []int{1}, got)

	c.Resume()
	require.NoError(t, up.Send(3))
	require.NoError(t, up.Send(4))
	require.Equal(t, []int{1, 3}, got)
}

func TestConsumer_Cancel(t *testing.T) {
	t.Parallel()

	up := new(rtest.ManualPublisher[int])
	c := rpause.New(func(int) bool { return false }, nil)
	_ = up.Subscribe(c)

	c.Cancel()
	c.Cancel()

	sub := up.Subscriptions()[0]
	require.True(t, sub.Cancelled())

	// Resume after cancel has no subscription to request from.
	c.Resume()
	require.Equal(t, rflow.Max(1), sub.Requested())
}

func TestConsumer_overReplayHub(t *testing.T) {
	t.Parallel()

	up := new(rtest.ManualPublisher[int])
	h := rreplay.New[int](rtest.NewLogger(t), up, rreplay.Config{Capacity: 8})

	var got []int
	c := rpause.New(func(v int) bool {
		got = append(got, v)
		return v != 2
	}, nil)
	_ = h.Subscribe(c)

	for i := 1; i <= 4; i++ {
		up.Send(i)
	}
	require.Equal(t, []int{1, 2}, got)

	// The hub holds the backlog while the consumer is paused.
	c.Resume()
	require.Equal(t, []int{1, 2, 3, 4}, got)
}
