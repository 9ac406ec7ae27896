package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ytproc/internal/queue"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var statuses []queue.Status
			if statusFilter != "" {
				status, ok := queue.ParseStatus(statusFilter)
				if !ok {
					return fmt.Errorf("unknown status %q", statusFilter)
				}
				statuses = append(statuses, status)
			}

			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				items, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if limit > 0 && len(items) > limit {
					items = items[:limit]
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty.")
					return nil
				}

				headers := []string{"ID", "Status", "Priority", "Progress", "Title"}
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						item.ID,
						string(item.Status),
						fmt.Sprintf("%d", item.Priority),
						formatProgress(item),
						itemTitle(item),
					})
				}

				out := cmd.OutOrStdout()
				if isTerminal(out) {
					fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft}))
					return nil
				}
				for _, row := range rows {
					fmt.Fprintln(out, strings.Join(row, "\t"))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&statusFilter, "status", "s", "", "Filter by status (pending, failed, completed, ...)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Limit the number of items shown")

	return cmd
}

func itemTitle(item *queue.Item) string {
	if item.Title != "" {
		return item.Title
	}
	return item.VideoURL
}

func formatProgress(item *queue.Item) string {
	if item.Status == queue.StatusFailed {
		return "failed"
	}
	if item.ProgressPercent <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", item.ProgressPercent)
}
