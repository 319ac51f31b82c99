package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/gordian-engine/ripple/rflow"
	"github.com/gordian-engine/ripple/rqueue"
	"github.com/gordian-engine/ripple/rtimer"
	"github.com/spf13/cobra"
)

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Subscribe to a limited timer and optionally cancel it early",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		times, _ := cmd.Flags().GetInt("times")
		cancelAfter, _ := cmd.Flags().GetDuration("cancel-after")

		return runTimer(cmd.Context(), newLogger(cmd), interval, times, cancelAfter)
	},
}

func init() {
	timerCmd.Flags().Duration("interval", time.Second, "time between ticks")
	timerCmd.Flags().Int("times", 6, "number of ticks before finishing (0 for no limit)")
	timerCmd.Flags().Duration("cancel-after", 0, "cancel the subscription after this long (0 to never cancel)")
	rootCmd.AddCommand(timerCmd)
}

func runTimer(
	ctx context.Context,
	log *slog.Logger,
	interval time.Duration, times int, cancelAfter time.Duration,
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	q := rqueue.NewSerial(ctx, log, rqueue.SerialConfig{})
	defer q.Wait()
	defer cancel()

	start := time.Now()
	done := make(chan struct{})
	sink := rflow.NewSink(
		func(t time.Time) {
			log.Info("Timer emitted", "since_start", t.Sub(start).Round(time.Millisecond))
		},
		func(c rflow.Completion) {
			log.Info("Timer completed", "outcome", c)
			close(done)
		},
	)

	p := rtimer.New(log, rtimer.Config{
		Queue:    q,
		Interval: interval,
		Limit:    times,
	})
	_ = p.Subscribe(sink)

	var cancelCh <-chan time.Time
	if cancelAfter > 0 {
		cancelCh = time.After(cancelAfter)
	}

	select {
	case <-ctx.Done():
		sink.Cancel()
		return context.Cause(ctx)
	case <-cancelCh:
		sink.Cancel()
		log.Info("Cancelled timer subscription")
	case <-done:
	}

	return nil
}
