package main

import (
	"log/slog"

	"github.com/gordian-engine/ripple/rflow"
	"github.com/gordian-engine/ripple/rreplay"
	"github.com/gordian-engine/ripple/rsource"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Attach subscribers to a replay hub before, during, and after its upstream completes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		capacity, _ := cmd.Flags().GetInt("capacity")
		return runReplay(newLogger(cmd), capacity)
	},
}

func init() {
	replayCmd.Flags().Int("capacity", 2, "number of values replayed to late subscribers")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(log *slog.Logger, capacity int) error {
	subject := rsource.NewSubject[int]()
	hub := rreplay.New[int](log, subject, rreplay.Config{Capacity: capacity})

	attach := func(name string) {
		l := log.With("subscriber", name)
		_ = hub.Subscribe(rflow.NewSink(
			func(v int) { l.Info("Received", "value", v) },
			func(c rflow.Completion) { l.Info("Completed", "outcome", c) },
		))
	}

	// Sent before anything subscribes to the hub, so nobody sees it.
	if err := subject.Send(0); err != nil {
		return err
	}

	attach("#1")
	for _, v := range []int{1, 2, 3} {
		if err := subject.Send(v); err != nil {
			return err
		}
	}

	attach("#2")
	for _, v := range []int{4, 5} {
		if err := subject.Send(v); err != nil {
			return err
		}
	}
	if err := subject.Complete(rflow.Finished()); err != nil {
		return err
	}

	log.Info("Subscribing after upstream completed")
	attach("#3")

	s := hub.Stats()
	log.Info(
		"Hub finished",
		"relayed", s.Relayed,
		"buffered", s.Buffered,
		"subscribers", s.Subscribers,
	)
	return nil
}
