package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/gordian-engine/ripple/rflow"
	"github.com/gordian-engine/ripple/rpause"
	"github.com/gordian-engine/ripple/rsource"
	"github.com/gordian-engine/ripple/rtimer"
	"github.com/spf13/cobra"
)

var pausableCmd = &cobra.Command{
	Use:   "pausable",
	Short: "Pull 1 through 6 one at a time, pausing after every odd value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		every, _ := cmd.Flags().GetDuration("resume-every")
		return runPausable(cmd.Context(), newLogger(cmd), every)
	},
}

func init() {
	pausableCmd.Flags().Duration("resume-every", time.Second, "how often the driver checks for a paused consumer")
	rootCmd.AddCommand(pausableCmd)
}

func runPausable(ctx context.Context, log *slog.Logger, every time.Duration) error {
	done := make(chan struct{})
	consumer := rpause.New(
		func(v int) bool {
			log.Info("Received", "value", v)
			if v%2 == 1 {
				log.Info("Pausing")
				return false
			}
			return true
		},
		func(c rflow.Completion) {
			log.Info("Pausable subscription completed", "outcome", c)
			close(done)
		},
	)
	_ = rsource.FromSlice([]int{1, 2, 3, 4, 5, 6}).Subscribe(consumer)

	// The driver is itself a timer subscription,
	// checking on every tick whether the consumer needs resuming.
	driver := rflow.NewSink(func(time.Time) {
		if consumer.Paused() {
			log.Info("Subscription is paused, resuming")
			consumer.Resume()
		}
	}, nil)
	_ = rtimer.New(log, rtimer.Config{Interval: every}).Subscribe(driver)
	defer driver.Cancel()

	select {
	case <-ctx.Done():
		consumer.Cancel()
		return context.Cause(ctx)
	case <-done:
		return nil
	}
}
