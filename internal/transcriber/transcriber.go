package transcriber

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ytproc/internal/config"
	"ytproc/internal/logging"
	"ytproc/internal/queue"
	"ytproc/internal/services"
	"ytproc/internal/services/whisper"
	"ytproc/internal/stage"
	"ytproc/internal/subtitles"
)

// transcriptionService abstracts the Whisper client for tests.
type transcriptionService interface {
	Transcribe(ctx context.Context, path string) (*whisper.Transcription, error)
}

// Transcriber implements the transcription stage.
type Transcriber struct {
	cfg     *config.Config
	store   *queue.Store
	logger  *slog.Logger
	service transcriptionService
}

// New constructs the transcription stage handler using default dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Transcriber {
	client := whisper.NewClient(whisper.Config{
		APIKey:         cfg.Transcription.APIKey,
		BaseURL:        cfg.Transcription.BaseURL,
		Model:          cfg.Transcription.Model,
		Language:       cfg.Transcription.Language,
		TimeoutSeconds: cfg.Transcription.TimeoutSeconds,
	})
	return NewWithDependencies(cfg, store, logger, client)
}

// NewWithDependencies allows injecting collaborators (used in tests).
func NewWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, service transcriptionService) *Transcriber {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "transcriber"))
	}
	return &Transcriber{cfg: cfg, store: store, logger: stageLogger, service: service}
}

func (t *Transcriber) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)
	if _, err := stage.RequireFile(item.VideoFile, "Video file"); err != nil {
		return err
	}
	if _, err := os.Stat(item.VideoFile); err != nil {
		return services.Wrap(services.ErrValidation, "transcribing", "stat video",
			fmt.Sprintf("video file %s is not readable", item.VideoFile), err)
	}
	item.InitProgress("Transcribing", "Preparing transcription")
	logger.Info("starting transcription preparation",
		logging.String("video_file", item.VideoFile))
	return nil
}

func (t *Transcriber) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)

	target := SubtitlePath(item.VideoFile)
	if _, err := os.Stat(target); err == nil {
		item.SubtitleFile = target
		item.SetProgressComplete("Transcribing", "Reused existing subtitles")
		logger.Info("subtitle file already present", logging.String("subtitle_file", target))
		return nil
	}

	logger.Info("starting transcription", logging.String("video_file", item.VideoFile))
	t.updateProgress(ctx, item, "Uploading media for transcription", 10)
	transcription, err := t.service.Transcribe(ctx, item.VideoFile)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "transcribing", "call whisper api", "Transcription failed", err)
	}
	if len(transcription.Segments) == 0 {
		return services.Wrap(services.ErrExternalTool, "transcribing", "inspect response", "Transcription returned no segments", nil)
	}

	t.updateProgress(ctx, item, "Writing subtitles", 80)
	cues := subtitles.SplitCues(CuesFromSegments(transcription.Segments), t.cfg.Subtitles.MaxLineLength)
	if err := subtitles.WriteFile(target, cues); err != nil {
		return services.Wrap(services.ErrTransient, "transcribing", "write srt", "Failed to write subtitle file", err)
	}

	item.SubtitleFile = target
	item.SetProgressComplete("Transcribing", fmt.Sprintf("Transcribed %d cues", len(cues)))
	logger.Info("transcription completed",
		logging.Int("segments", len(transcription.Segments)),
		logging.Int("cues", len(cues)),
		logging.String("subtitle_file", target))
	return nil
}

// HealthCheck verifies the transcription API key is configured.
func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	const name = "transcriber"
	if t.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(t.cfg.Transcription.APIKey) == "" {
		return stage.Unhealthy(name, "transcription API key not configured")
	}
	return stage.Healthy(name)
}

func (t *Transcriber) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	if t.store == nil {
		item.SetProgress("Transcribing", message, percent)
		return
	}
	logger := logging.WithContext(ctx, t.logger)
	updated := *item
	updated.SetProgress("Transcribing", message, percent)
	if err := t.store.Update(ctx, &updated); err != nil {
		logger.Warn("failed to persist transcription progress", logging.Error(err))
		return
	}
	*item = updated
}

// SubtitlePath derives the SRT path for a media file.
func SubtitlePath(videoFile string) string {
	ext := filepath.Ext(videoFile)
	return strings.TrimSuffix(videoFile, ext) + ".srt"
}

// CuesFromSegments converts Whisper segments into subtitle cues. Zero-length
// or empty segments are dropped.
func CuesFromSegments(segments []whisper.Segment) []subtitles.Cue {
	cues := make([]subtitles.Cue, 0, len(segments))
	for _, segment := range segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		start := secondsToDuration(segment.Start)
		end := secondsToDuration(segment.End)
		if end <= start {
			continue
		}
		cues = append(cues, subtitles.Cue{
			Index: len(cues) + 1,
			Start: start,
			End:   end,
			Text:  text,
		})
	}
	return cues
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds * float64(time.Second)))
}
