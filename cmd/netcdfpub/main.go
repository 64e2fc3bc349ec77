package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/openmined/netcdfpub/internal/version"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "netcdfpub <dotenv_path> [resource_id]",
		Short: "Publish public NetCDF resources to a THREDDS catalog",
		Long: `Synchronizes the THREDDS catalog with the public NetCDF resources of the
content store. With a resource id, publishes only that resource.`,
		Version: version.Detailed(),
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocked(cmd, args[0], func(ctx context.Context, a *app) error {
				if len(args) == 2 {
					_, err := a.engine.PublishOne(ctx, args[1])
					return err
				}
				_, err := a.engine.RunSync(ctx)
				return err
			})
		},
	}

	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
