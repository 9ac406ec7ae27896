package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ytproc/internal/deps"
	"ytproc/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show database, queue, and dependency health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Dependencies:")
			for _, status := range deps.CheckBinaries(deps.Default(cfg)) {
				state := "missing"
				if status.Available {
					state = "ok"
				} else if status.Optional {
					state = "missing (optional)"
				}
				detail := ""
				if status.Detail != "" {
					detail = " (" + status.Detail + ")"
				}
				fmt.Fprintf(out, "  %-10s %s%s\n", status.Name+":", state, detail)
			}

			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				health := store.Health(cmd.Context())
				fmt.Fprintln(out, "\nDatabase:")
				fmt.Fprintf(out, "  URI:       %s\n", health.URI)
				fmt.Fprintf(out, "  Database:  %s\n", health.Database)
				fmt.Fprintf(out, "  Connected: %s\n", yesNo(health.Connected))
				if health.Error != "" {
					fmt.Fprintf(out, "  Error:     %s\n", health.Error)
				}
				fmt.Fprintf(out, "  Items:     %d\n", health.TotalItems)

				summary, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "\nQueue:")
				fmt.Fprintf(out, "  Pending:    %d\n", summary.Pending)
				fmt.Fprintf(out, "  Processing: %d\n", summary.Processing)
				fmt.Fprintf(out, "  Completed:  %d\n", summary.Completed)
				fmt.Fprintf(out, "  Failed:     %d\n", summary.Failed)
				fmt.Fprintf(out, "  Paused:     %d\n", summary.Paused)
				return nil
			})
		},
	}
}
