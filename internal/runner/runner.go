package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"ytproc/internal/archive"
	"ytproc/internal/comments"
	"ytproc/internal/config"
	"ytproc/internal/deps"
	"ytproc/internal/downloader"
	"ytproc/internal/logging"
	"ytproc/internal/notifications"
	"ytproc/internal/publisher"
	"ytproc/internal/queue"
	"ytproc/internal/renderer"
	"ytproc/internal/transcriber"
	"ytproc/internal/translator"
	"ytproc/internal/workflow"
)

// Options configures service process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the processing service and blocks until the context is cancelled
// or a termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("ytproc-%s.log", runID))

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update ytproc.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "ytproc-*.log", Exclude: []string{logPath}},
	)

	logDependencySnapshot(logger, cfg)

	lock := flock.New(lockPath(cfg))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another ytproc instance is already running")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release instance lock", logging.Error(err))
		}
	}()

	pidPath := filepath.Join(cfg.Paths.LogDir, "ytproc.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(signalCtx, cfg, logger)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	archiveStore, err := archive.Open(cfg.ArchiveDBPath())
	if err != nil {
		logger.Error("open download archive", logging.Error(err))
		return err
	}
	defer archiveStore.Close()

	notifier := notifications.NewService(cfg)
	manager := workflow.NewManagerWithNotifier(cfg, store, logger, notifier)
	manager.ConfigureStages(BuildStageSet(cfg, store, archiveStore, logger))

	// Anything left in a processing status from a previous run is stale now.
	// The reset uses the manager's effective rollback map: when optional stages
	// are absent the ladder is re-linked, and the default map would park items
	// in statuses no lane polls.
	if reset, err := store.ResetStuckProcessing(signalCtx, manager.Rollbacks()); err != nil {
		logger.Warn("failed to reset stuck items", logging.Error(err))
	} else if reset > 0 {
		logger.Info("reset stuck processing items", logging.Int("count", reset))
	}

	if err := manager.Start(signalCtx); err != nil {
		logger.Error("workflow start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "workflow_start_failed"),
		)
		return err
	}

	logger.Info("ytproc service started",
		logging.String("log_file", logPath),
		logging.String("lock_file", lockPath(cfg)),
	)

	<-signalCtx.Done()
	logger.Info("ytproc service shutting down")
	manager.Stop()
	return nil
}

// BuildStageSet wires the concrete stage handlers from configuration. Stages
// are omitted when their feature is off: comment fetching when disabled,
// publishing when no target is enabled.
func BuildStageSet(cfg *config.Config, store *queue.Store, archiveStore *archive.Store, logger *slog.Logger) workflow.StageSet {
	notifier := notifications.NewService(cfg)

	set := workflow.StageSet{
		Downloader:  downloader.New(cfg, store, archiveStore, logger),
		Transcriber: transcriber.New(cfg, store, logger),
		Translator:  translator.New(cfg, store, logger),
		Renderer:    renderer.New(cfg, store, logger),
	}
	if cfg.Comments.Enabled {
		set.CommentFetcher = comments.NewFetcher(cfg, store, logger)
	}
	if hasEnabledPublishTarget(cfg) {
		set.Publisher = publisher.New(cfg, store, notifier, logger)
	}
	return set
}

func hasEnabledPublishTarget(cfg *config.Config) bool {
	for _, target := range cfg.Publish.Targets {
		if target.Enabled {
			return true
		}
	}
	return false
}

func lockPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "ytproc.lock")
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "ytproc.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	statuses := deps.CheckBinaries(deps.Default(cfg))
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("youtube_key_present", strings.TrimSpace(cfg.Comments.APIKey) != ""),
		logging.Bool("transcription_key_present", strings.TrimSpace(cfg.Transcription.APIKey) != ""),
		logging.Bool("translation_key_present", strings.TrimSpace(cfg.Translation.APIKey) != ""),
	}
	for _, status := range statuses {
		key := strings.ReplaceAll(strings.ToLower(status.Name), "-", "_")
		attrs = append(attrs, logging.Bool(key+"_available", status.Available))
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
}
