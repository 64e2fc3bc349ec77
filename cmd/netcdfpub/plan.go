package main

import (
	"fmt"
	"io"

	"github.com/openmined/netcdfpub/internal/sync"
	"github.com/spf13/cobra"
)

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <dotenv_path>",
		Short: "Show what a sync would publish and remove",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(args[0], cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			cmd.SilenceUsage = true

			ops, err := a.engine.Plan(cmd.Context())
			if err != nil {
				a.logger.Error("plan failed", "error", err)
				return err
			}

			return printPlan(cmd.OutOrStdout(), a.catalog.Root, ops)
		},
	}
}

func printPlan(w io.Writer, root string, ops *sync.ReconcileOperations) error {
	var err error
	p := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	p("%s %s\n", bold.Render("catalog"), cyan.Render(root))

	if !ops.HasChanges() {
		p("%s\n", gray.Render(fmt.Sprintf("up to date, %d unchanged", len(ops.Unchanged))))
		return err
	}

	for _, op := range ops.Publishes {
		if op.IsNew() {
			p("%s %s %s\n", green.Render("+ publish"), op.ID, gray.Render("(new)"))
			continue
		}
		p("%s %s %s\n", green.Render("~ publish"), op.ID, gray.Render(fmt.Sprintf("(%s > %s)",
			op.Source.LastModified.UTC().Format("2006-01-02T15:04:05Z"),
			op.Destination.LastModified.UTC().Format("2006-01-02T15:04:05Z"),
		)))
	}
	for _, op := range ops.Removes {
		p("%s %s\n", red.Render("- remove"), op.ID)
	}

	p("%s\n", gray.Render(fmt.Sprintf("%d to publish, %d to remove, %d unchanged",
		len(ops.Publishes), len(ops.Removes), len(ops.Unchanged))))
	return err
}
