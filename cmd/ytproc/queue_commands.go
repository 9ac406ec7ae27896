package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ytproc/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Manage queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newQueueRetryCommand(ctx))
	cmd.AddCommand(newQueueRemoveCommand(ctx))
	cmd.AddCommand(newQueueClearCommand(ctx))
	cmd.AddCommand(newQueuePauseCommand(ctx))
	cmd.AddCommand(newQueueResumeCommand(ctx))
	cmd.AddCommand(newQueueStatsCommand(ctx))

	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Reset failed items to pending (all failed items when no IDs given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				count, err := store.RetryFailed(cmd.Context(), args...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d item(s) for retry.\n", count)
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "remove <id...>",
		Short: "Remove items from the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				count, err := store.Remove(cmd.Context(), force, args...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d item(s).\n", count)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Remove items even while they are processing")

	return cmd
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var completed bool
	var failed bool
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear queue items by state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := 0
			for _, flag := range []bool{completed, failed, all} {
				if flag {
					selected++
				}
			}
			if selected != 1 {
				return fmt.Errorf("specify exactly one of --completed, --failed, or --all")
			}

			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				var count int
				var err error
				switch {
				case completed:
					count, err = store.ClearCompleted(cmd.Context())
				case failed:
					count, err = store.ClearFailed(cmd.Context())
				default:
					count, err = store.Clear(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d item(s).\n", count)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&completed, "completed", false, "Clear completed items")
	cmd.Flags().BoolVar(&failed, "failed", false, "Clear failed items")
	cmd.Flags().BoolVar(&all, "all", false, "Clear every item")

	return cmd
}

func newQueuePauseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pause <id...>",
		Short: "Pause pending items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				count, err := store.Pause(cmd.Context(), args...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Paused %d item(s).\n", count)
				return nil
			})
		},
	}
}

func newQueueResumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <id...>",
		Short: "Resume paused items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				count, err := store.Resume(cmd.Context(), args...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Resumed %d item(s).\n", count)
				return nil
			})
		},
	}
}

func newQueueStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show queue counts by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				summary, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				byStatus, err := store.ItemsByStatus(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Total:      %d\n", summary.Total)
				fmt.Fprintf(out, "Pending:    %d\n", summary.Pending)
				fmt.Fprintf(out, "Processing: %d\n", summary.Processing)
				fmt.Fprintf(out, "Completed:  %d\n", summary.Completed)
				fmt.Fprintf(out, "Failed:     %d\n", summary.Failed)
				fmt.Fprintf(out, "Paused:     %d\n", summary.Paused)

				printed := false
				for _, status := range queue.AllStatuses() {
					count := byStatus[status]
					if count == 0 {
						continue
					}
					if !printed {
						fmt.Fprintln(out, "\nBy status:")
						printed = true
					}
					fmt.Fprintf(out, "  %-18s %d\n", status, count)
				}
				return nil
			})
		},
	}
}
