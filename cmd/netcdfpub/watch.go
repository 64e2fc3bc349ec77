package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

const defaultWatchInterval = 15 * time.Minute

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dotenv_path>",
		Short: "Sync the catalog periodically until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, err := cmd.Flags().GetDuration("interval")
			if err != nil {
				return err
			}
			return runLocked(cmd, args[0], func(ctx context.Context, a *app) error {
				return a.engine.Watch(ctx, interval)
			})
		},
	}

	cmd.Flags().DurationP("interval", "i", defaultWatchInterval, "Time between sync runs")
	return cmd
}
