// Command ripple runs small demonstrations of the ripple stream engine.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ripple",
	Short: "Demonstrations of demand-driven streams with multicast replay.",
	Long: `ripple runs small scenarios against the ripple packages ` +
		`and logs every value and completion as it is delivered.`,
	SilenceUsage: true,
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		os.Exit(1)
	}
}

// newLogger returns the logger shared by every subcommand.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(cmd.OutOrStdout(), &slog.HandlerOptions{
		Level: level,
	}))
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "log at debug level")
}
