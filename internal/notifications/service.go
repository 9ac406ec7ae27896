package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ytproc/internal/config"
)

const userAgent = "ytproc/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyQueued(ctx context.Context, videoURL string, priority int) error
	NotifyDownloadCompleted(ctx context.Context, title string) error
	NotifyPublishCompleted(ctx context.Context, title string, urls map[string]string) error
	NotifyProcessingCompleted(ctx context.Context, title, finalFile string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		events:   cfg.Notifications,
	}
}

// NewNop returns a Service that discards every notification.
func NewNop() Service {
	return noopService{}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	events   config.Notifications
}

func (n *ntfyService) NotifyQueued(ctx context.Context, videoURL string, priority int) error {
	if !n.events.Queue {
		return nil
	}
	data := payload{
		title:   "ytproc - Queued",
		message: fmt.Sprintf("Queued %s (priority %d)", strings.TrimSpace(videoURL), priority),
		tags:    []string{"ytproc", "queue", "added"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDownloadCompleted(ctx context.Context, title string) error {
	if !n.events.Download {
		return nil
	}
	data := payload{
		title:   "ytproc - Downloaded",
		message: fmt.Sprintf("Download complete: %s", strings.TrimSpace(title)),
		tags:    []string{"ytproc", "download", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPublishCompleted(ctx context.Context, title string, urls map[string]string) error {
	if !n.events.Publish {
		return nil
	}
	var builder strings.Builder
	fmt.Fprintf(&builder, "Published: %s", strings.TrimSpace(title))
	for target, url := range urls {
		fmt.Fprintf(&builder, "\n%s: %s", target, url)
	}
	data := payload{
		title:   "ytproc - Published",
		message: builder.String(),
		tags:    []string{"ytproc", "publish", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyProcessingCompleted(ctx context.Context, title, finalFile string) error {
	if !n.events.Completion {
		return nil
	}
	message := fmt.Sprintf("Pipeline complete: %s", strings.TrimSpace(title))
	if finalFile = strings.TrimSpace(finalFile); finalFile != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, finalFile)
	}
	data := payload{
		title:    "ytproc - Complete",
		message:  message,
		tags:     []string{"ytproc", "workflow", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.events.Errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "ytproc - Error",
		message:  builder.String(),
		tags:     []string{"ytproc", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "ytproc - Test",
		message:  "Notification system test",
		tags:     []string{"ytproc", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyQueued(context.Context, string, int) error { return nil }
func (noopService) NotifyDownloadCompleted(context.Context, string) error {
	return nil
}
func (noopService) NotifyPublishCompleted(context.Context, string, map[string]string) error {
	return nil
}
func (noopService) NotifyProcessingCompleted(context.Context, string, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error                { return nil }
func (noopService) TestNotification(context.Context) error                          { return nil }
