package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"ytproc/internal/config"
	"ytproc/internal/downloader"
	"ytproc/internal/notifications"
	"ytproc/internal/queue"
)

func newCreateCommand(ctx *commandContext) *cobra.Command {
	var priority int
	var quality string
	var targetLang string

	cmd := &cobra.Command{
		Use:   "create <video-url>",
		Short: "Queue a YouTube video for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoURL := strings.TrimSpace(args[0])
			if !downloader.ValidateURL(videoURL) {
				return fmt.Errorf("invalid YouTube URL: %s", videoURL)
			}
			if priority < 1 || priority > 9 {
				return fmt.Errorf("priority must be between 1 and 9, got %d", priority)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if quality == "" {
				quality = cfg.Download.Quality
			}
			if !slices.Contains(config.QualityChoices, quality) {
				return fmt.Errorf("quality must be one of %s", strings.Join(config.QualityChoices, ", "))
			}
			if targetLang == "" {
				targetLang = cfg.Translation.TargetLang
			}

			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				item, err := store.NewVideo(cmd.Context(), videoURL, quality, targetLang, priority)
				if err != nil {
					return err
				}

				notifier := notifications.NewService(cfg)
				if err := notifier.NotifyQueued(cmd.Context(), videoURL, priority); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: queue notification failed: %v\n", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s\n", videoURL)
				fmt.Fprintf(cmd.OutOrStdout(), "  ID:       %s\n", item.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "  Priority: %d\n", item.Priority)
				fmt.Fprintf(cmd.OutOrStdout(), "  Quality:  %s\n", item.Quality)
				fmt.Fprintf(cmd.OutOrStdout(), "  Language: %s\n", item.TargetLang)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&priority, "priority", "p", 5, "Queue priority from 1 (lowest) to 9 (highest)")
	cmd.Flags().StringVar(&quality, "quality", "", "Download quality (480p, 720p, 1080p, 4K)")
	cmd.Flags().StringVar(&targetLang, "lang", "", "Translation target language code")

	return cmd
}
