package comments

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ytproc/internal/config"
	"ytproc/internal/logging"
	"ytproc/internal/queue"
	"ytproc/internal/services"
	"ytproc/internal/stage"
)

// commentSource abstracts the API client for tests.
type commentSource interface {
	Fetch(ctx context.Context, videoID string) ([]Comment, error)
}

// Fetcher implements the comment fetching stage.
type Fetcher struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	source commentSource
}

// NewFetcher constructs the comments stage handler using default dependencies.
func NewFetcher(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Fetcher {
	client := NewClient(Config{
		APIKey:            cfg.Comments.APIKey,
		BaseURL:           cfg.Comments.BaseURL,
		MaxComments:       cfg.Comments.MaxComments,
		PageSize:          cfg.Comments.PageSize,
		RequestsPerSecond: cfg.Comments.RequestsPerSecond,
		UserAgent:         cfg.HTTP.UserAgent,
	})
	return NewFetcherWithDependencies(cfg, store, logger, client)
}

// NewFetcherWithDependencies allows injecting collaborators (used in tests).
func NewFetcherWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, source commentSource) *Fetcher {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "comments"))
	}
	return &Fetcher{cfg: cfg, store: store, logger: stageLogger, source: source}
}

func (f *Fetcher) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, f.logger)
	if _, err := stage.RequireVideoID(item.VideoID); err != nil {
		return err
	}
	item.InitProgress("Fetching comments", "Preparing comment fetch")
	logger.Info("starting comment fetch preparation",
		logging.String(logging.FieldVideoID, item.VideoID))
	return nil
}

func (f *Fetcher) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, f.logger)

	target := f.artifactPath(item)
	if _, err := os.Stat(target); err == nil {
		item.CommentsFile = target
		item.SetProgressComplete("Fetching comments", "Reused existing comments artifact")
		logger.Info("comments artifact already present", logging.String("comments_file", target))
		return nil
	}

	logger.Info("fetching comments",
		logging.String(logging.FieldVideoID, item.VideoID),
		logging.Int("max_comments", f.cfg.Comments.MaxComments))
	collected, err := f.source.Fetch(ctx, item.VideoID)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "fetching_comments", "call youtube api", "Comment fetch failed", err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "fetching_comments", "ensure comments dir", "Failed to create comments directory", err)
	}
	encoded, err := json.MarshalIndent(collected, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrTransient, "fetching_comments", "encode comments", "Failed to encode comments", err)
	}
	if err := os.WriteFile(target, encoded, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "fetching_comments", "write artifact", "Failed to write comments artifact", err)
	}

	item.CommentsFile = target
	item.SetProgressComplete("Fetching comments", fmt.Sprintf("Fetched %d comments", len(collected)))
	logger.Info("comment fetch completed",
		logging.Int("comments", len(collected)),
		logging.String("comments_file", target))
	return nil
}

// HealthCheck verifies the API key is configured when the stage is enabled.
func (f *Fetcher) HealthCheck(ctx context.Context) stage.Health {
	const name = "comments"
	if f.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if !f.cfg.Comments.Enabled {
		return stage.Healthy(name)
	}
	if strings.TrimSpace(f.cfg.Comments.APIKey) == "" {
		return stage.Unhealthy(name, "YouTube API key not configured")
	}
	return stage.Healthy(name)
}

func (f *Fetcher) artifactPath(item *queue.Item) string {
	return filepath.Join(f.cfg.Paths.CommentsDir, item.VideoID+"_comments.json")
}
