package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"ytproc/internal/queue"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show details for one queue item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				item, err := store.GetByID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printItemDetails(cmd.OutOrStdout(), item)
				return nil
			})
		},
	}
	return cmd
}

func printItemDetails(out io.Writer, item *queue.Item) {
	fmt.Fprintf(out, "ID:         %s\n", item.ID)
	fmt.Fprintf(out, "URL:        %s\n", item.VideoURL)
	if item.VideoID != "" {
		fmt.Fprintf(out, "Video ID:   %s\n", item.VideoID)
	}
	if item.Title != "" {
		fmt.Fprintf(out, "Title:      %s\n", item.Title)
	}
	fmt.Fprintf(out, "Status:     %s\n", item.Status)
	fmt.Fprintf(out, "Priority:   %d\n", item.Priority)
	fmt.Fprintf(out, "Quality:    %s\n", item.Quality)
	fmt.Fprintf(out, "Language:   %s\n", item.TargetLang)
	if item.ProgressStage != "" {
		fmt.Fprintf(out, "Progress:   %s (%.0f%%)\n", item.ProgressStage, item.ProgressPercent)
	}
	if item.ProgressMessage != "" {
		fmt.Fprintf(out, "Message:    %s\n", item.ProgressMessage)
	}
	if item.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:      %s\n", item.ErrorMessage)
	}

	printArtifact(out, "Video", item.VideoFile)
	printArtifact(out, "Thumbnail", item.ThumbnailFile)
	printArtifact(out, "Subtitles", item.SubtitleFile)
	printArtifact(out, "Translated", item.TranslatedSubtitleFile)
	printArtifact(out, "Comments", item.CommentsFile)
	printArtifact(out, "Final", item.FinalFile)

	if len(item.PublishedURLs) > 0 {
		fmt.Fprintln(out, "Published:")
		names := make([]string, 0, len(item.PublishedURLs))
		for name := range item.PublishedURLs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(out, "  %s: %s\n", name, item.PublishedURLs[name])
		}
	}

	fmt.Fprintf(out, "Created:    %s\n", item.CreatedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(out, "Updated:    %s\n", item.UpdatedAt.Local().Format(time.RFC3339))
	if item.LastHeartbeat != nil {
		fmt.Fprintf(out, "Heartbeat:  %s\n", item.LastHeartbeat.Local().Format(time.RFC3339))
	}
}

func printArtifact(out io.Writer, label, path string) {
	if path == "" {
		return
	}
	fmt.Fprintf(out, "%-11s %s\n", label+":", path)
}
