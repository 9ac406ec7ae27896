package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"ytproc/internal/config"
	"ytproc/internal/logging"
	"ytproc/internal/queue"
	"ytproc/internal/services"
	"ytproc/internal/stage"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

// Renderer implements the rendering stage.
type Renderer struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	runner commandRunner
}

// New constructs the rendering stage handler using the system FFmpeg binary.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Renderer {
	return NewWithDependencies(cfg, store, logger, runCommand)
}

// NewWithDependencies allows injecting a command runner (used in tests).
func NewWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, runner commandRunner) *Renderer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "renderer"))
	}
	if runner == nil {
		runner = runCommand
	}
	return &Renderer{cfg: cfg, store: store, logger: stageLogger, runner: runner}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (r *Renderer) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, r.logger)
	if _, err := stage.RequireVideoID(item.VideoID); err != nil {
		return err
	}
	if _, err := stage.RequireFile(item.VideoFile, "Video file"); err != nil {
		return err
	}
	if _, err := os.Stat(item.VideoFile); err != nil {
		return services.Wrap(services.ErrValidation, "rendering", "inspect video",
			fmt.Sprintf("Video file %s is not readable", item.VideoFile), err)
	}
	if _, err := stage.RequireFile(item.TranslatedSubtitleFile, "Translated subtitle file"); err != nil {
		return err
	}
	item.InitProgress("Rendering", "Preparing final render")
	logger.Info("starting render preparation",
		logging.String("video_file", item.VideoFile),
		logging.String("translated_file", item.TranslatedSubtitleFile),
		logging.Bool("burn_in", r.cfg.Subtitles.BurnIn))
	return nil
}

func (r *Renderer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, r.logger)

	target := FinalPath(r.cfg.Paths.OutputDir, item.VideoID)
	if _, err := os.Stat(target); err == nil {
		item.FinalFile = target
		item.SetProgressComplete("Rendering", "Reused existing final file")
		logger.Info("final file already present", logging.String("final_file", target))
		return nil
	}

	if err := os.MkdirAll(r.cfg.Paths.OutputDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "rendering", "ensure output dir",
			fmt.Sprintf("Failed to create output directory %s", r.cfg.Paths.OutputDir), err)
	}

	// Render into a temp name first so a failed run never leaves a partial
	// file that later looks complete.
	temp := strings.TrimSuffix(target, ".mp4") + ".tmp.mp4"
	defer os.Remove(temp)

	args := r.buildArgs(item, temp)
	r.updateProgress(ctx, item, "Running FFmpeg", 10)
	logger.Info("rendering final video",
		logging.String("final_file", target),
		logging.Bool("burn_in", r.cfg.Subtitles.BurnIn))

	if err := r.runner(ctx, r.cfg.FFmpegBinary(), args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "rendering", "run ffmpeg", "FFmpeg render failed", err)
	}
	if _, err := os.Stat(temp); err != nil {
		return services.Wrap(services.ErrExternalTool, "rendering", "inspect output",
			"FFmpeg reported success but produced no output", err)
	}
	if err := os.Rename(temp, target); err != nil {
		return services.Wrap(services.ErrTransient, "rendering", "finalize output",
			fmt.Sprintf("Failed to move render into place at %s", target), err)
	}

	item.FinalFile = target
	item.SetProgressComplete("Rendering", "Rendered final video")
	logger.Info("render completed", logging.String("final_file", target))
	return nil
}

// HealthCheck verifies FFmpeg is available.
func (r *Renderer) HealthCheck(ctx context.Context) stage.Health {
	const name = "renderer"
	binary := r.cfg.FFmpegBinary()
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("%s not found in PATH", binary))
	}
	return stage.Healthy(name)
}

// buildArgs assembles the FFmpeg invocation. Soft-sub muxing stream-copies
// audio and video and adds the SRT as a mov_text track; burn-in re-encodes
// video through the subtitles filter.
func (r *Renderer) buildArgs(item *queue.Item, output string) []string {
	if r.cfg.Subtitles.BurnIn {
		return []string{
			"-y", "-nostdin",
			"-i", item.VideoFile,
			"-vf", "subtitles=" + escapeFilterPath(item.TranslatedSubtitleFile),
			"-c:a", "copy",
			output,
		}
	}
	return []string{
		"-y", "-nostdin",
		"-i", item.VideoFile,
		"-i", item.TranslatedSubtitleFile,
		"-map", "0",
		"-map", "1:0",
		"-c", "copy",
		"-c:s", "mov_text",
		"-metadata:s:s:0", "language=" + subtitleLanguage(item.TargetLang),
		output,
	}
}

func (r *Renderer) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	if r.store == nil {
		item.SetProgress("Rendering", message, percent)
		return
	}
	logger := logging.WithContext(ctx, r.logger)
	updated := *item
	updated.SetProgress("Rendering", message, percent)
	if err := r.store.Update(ctx, &updated); err != nil {
		logger.Warn("failed to persist render progress", logging.Error(err))
		return
	}
	*item = updated
}

// FinalPath derives the output path for a rendered video.
func FinalPath(outputDir, videoID string) string {
	return filepath.Join(outputDir, fmt.Sprintf("final_%s.mp4", videoID))
}

// escapeFilterPath escapes a path for use inside an FFmpeg filter argument,
// where backslash, colon and quote are meta characters.
func escapeFilterPath(path string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`:`, `\:`,
		`'`, `\'`,
	)
	return replacer.Replace(path)
}

// subtitleLanguage maps a BCP-47 tag to the ISO 639-2 code FFmpeg expects in
// stream metadata. Unknown tags pass through unchanged.
func subtitleLanguage(tag string) string {
	base := strings.ToLower(tag)
	if idx := strings.IndexAny(base, "-_"); idx > 0 {
		base = base[:idx]
	}
	switch base {
	case "zh":
		return "chi"
	case "en":
		return "eng"
	case "ja":
		return "jpn"
	case "ko":
		return "kor"
	case "es":
		return "spa"
	case "fr":
		return "fre"
	case "de":
		return "ger"
	default:
		return base
	}
}
