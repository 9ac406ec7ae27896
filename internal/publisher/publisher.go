package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ytproc/internal/config"
	"ytproc/internal/logging"
	"ytproc/internal/notifications"
	"ytproc/internal/queue"
	"ytproc/internal/services"
	"ytproc/internal/stage"
)

const defaultTimeoutSeconds = 300

// Publisher implements the publishing stage.
type Publisher struct {
	cfg      *config.Config
	store    *queue.Store
	notifier notifications.Service
	logger   *slog.Logger
	client   *http.Client
}

// New constructs the publishing stage handler.
func New(cfg *config.Config, store *queue.Store, notifier notifications.Service, logger *slog.Logger) *Publisher {
	timeout := cfg.Publish.TimeoutSeconds
	if timeout <= 0 {
		timeout = defaultTimeoutSeconds
	}
	return NewWithDependencies(cfg, store, notifier, logger, &http.Client{Timeout: time.Duration(timeout) * time.Second})
}

// NewWithDependencies allows injecting the HTTP client (used in tests).
func NewWithDependencies(cfg *config.Config, store *queue.Store, notifier notifications.Service, logger *slog.Logger, client *http.Client) *Publisher {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "publisher"))
	}
	if notifier == nil {
		notifier = notifications.NewNop()
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeoutSeconds * time.Second}
	}
	return &Publisher{cfg: cfg, store: store, notifier: notifier, logger: stageLogger, client: client}
}

// enabledTargets returns the enabled target names in deterministic order.
func (p *Publisher) enabledTargets() []string {
	var names []string
	for name, target := range p.cfg.Publish.Targets {
		if target.Enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (p *Publisher) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)
	if len(p.enabledTargets()) == 0 {
		item.InitProgress("Publishing", "No publish targets configured")
		return nil
	}
	if _, err := stage.RequireFile(item.FinalFile, "Final video file"); err != nil {
		return err
	}
	if _, err := os.Stat(item.FinalFile); err != nil {
		return services.Wrap(services.ErrValidation, "publishing", "inspect final file",
			fmt.Sprintf("Final video %s is not readable", item.FinalFile), err)
	}
	item.InitProgress("Publishing", "Preparing upload")
	logger.Info("starting publish preparation",
		logging.String("final_file", item.FinalFile),
		logging.Int("targets", len(p.enabledTargets())))
	return nil
}

func (p *Publisher) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)

	targets := p.enabledTargets()
	if len(targets) == 0 {
		item.SetProgressComplete("Publishing", "No publish targets configured")
		logger.Info("publishing skipped, no targets enabled")
		return nil
	}

	if item.PublishedURLs == nil {
		item.PublishedURLs = make(map[string]string, len(targets))
	}

	var failed []string
	var lastErr error
	for i, name := range targets {
		if item.PublishedURLs[name] != "" {
			logger.Info("target already published", logging.String("target", name))
			continue
		}
		target := p.cfg.Publish.Targets[name]
		url, err := p.upload(ctx, target, item)
		if err != nil {
			failed = append(failed, name)
			lastErr = err
			logger.Error("upload failed",
				logging.String("target", name),
				logging.Error(err))
			continue
		}
		item.PublishedURLs[name] = url
		percent := float64(i+1) / float64(len(targets)) * 90
		p.updateProgress(ctx, item, fmt.Sprintf("Published to %s", name), percent)
		logger.Info("upload completed",
			logging.String("target", name),
			logging.String("url", url))
	}

	if len(failed) > 0 {
		return services.Wrap(services.ErrExternalTool, "publishing", "upload",
			fmt.Sprintf("Publishing failed for targets: %s", strings.Join(failed, ", ")), lastErr)
	}

	item.SetProgressComplete("Publishing", fmt.Sprintf("Published to %d targets", len(targets)))
	if err := p.notifier.NotifyPublishCompleted(ctx, item.Title, item.PublishedURLs); err != nil {
		logger.Warn("publish notification failed", logging.Error(err))
	}
	return nil
}

// HealthCheck verifies every enabled target carries a URL. No enabled targets
// is healthy; the stage is simply a pass-through then.
func (p *Publisher) HealthCheck(ctx context.Context) stage.Health {
	const name = "publisher"
	for _, targetName := range p.enabledTargets() {
		target := p.cfg.Publish.Targets[targetName]
		if strings.TrimSpace(target.URL) == "" {
			return stage.Unhealthy(name, fmt.Sprintf("target %s has no URL", targetName))
		}
	}
	return stage.Healthy(name)
}

type uploadResponse struct {
	URL string `json:"url"`
}

// upload streams the final video to one target as a multipart POST. The
// translated subtitles ride along when burn-in is off, so the platform can
// offer the soft-sub file separately.
func (p *Publisher) upload(ctx context.Context, target config.PublishTarget, item *queue.Item) (string, error) {
	pipeReader, pipeWriter := io.Pipe()
	form := multipart.NewWriter(pipeWriter)

	go func() {
		err := p.writeForm(form, item)
		if closeErr := form.Close(); err == nil {
			err = closeErr
		}
		pipeWriter.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, pipeReader)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("User-Agent", p.cfg.HTTP.UserAgent)
	if target.Token != "" {
		req.Header.Set("Authorization", "Bearer "+target.Token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("post %s: %w", target.URL, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("post %s: status %d: %s", target.URL, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed uploadResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.URL != "" {
		return parsed.URL, nil
	}
	if location := resp.Header.Get("Location"); location != "" {
		return location, nil
	}
	return target.URL, nil
}

func (p *Publisher) writeForm(form *multipart.Writer, item *queue.Item) error {
	fields := map[string]string{
		"title":    item.Title,
		"video_id": item.VideoID,
		"language": item.TargetLang,
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := form.WriteField(name, value); err != nil {
			return fmt.Errorf("write field %s: %w", name, err)
		}
	}
	if err := attachFile(form, "video", item.FinalFile); err != nil {
		return err
	}
	if item.TranslatedSubtitleFile != "" && !p.cfg.Subtitles.BurnIn {
		if err := attachFile(form, "subtitle", item.TranslatedSubtitleFile); err != nil {
			return err
		}
	}
	if item.CommentsFile != "" {
		if err := attachFile(form, "comments", item.CommentsFile); err != nil {
			return err
		}
	}
	return nil
}

func attachFile(form *multipart.Writer, field, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	part, err := form.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create part %s: %w", field, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("stream %s: %w", path, err)
	}
	return nil
}

func (p *Publisher) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	if p.store == nil {
		item.SetProgress("Publishing", message, percent)
		return
	}
	logger := logging.WithContext(ctx, p.logger)
	updated := *item
	updated.SetProgress("Publishing", message, percent)
	if err := p.store.Update(ctx, &updated); err != nil {
		logger.Warn("failed to persist publish progress", logging.Error(err))
		return
	}
	*item = updated
}
