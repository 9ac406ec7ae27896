package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"ytproc/internal/config"
	"ytproc/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T, sink *[]captured) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*sink = append(*sink, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

func newNtfyConfig(topic string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	cfg.Notifications.Queue = true
	cfg.Notifications.Download = true
	cfg.Notifications.Publish = true
	cfg.Notifications.Completion = true
	cfg.Notifications.Errors = true
	return &cfg
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyQueued(context.Background(), "https://youtu.be/x", 5); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNotifyQueuedSendsTitleAndTags(t *testing.T) {
	var got []captured
	server := newCaptureServer(t, &got)
	svc := notifications.NewService(newNtfyConfig(server.URL))

	if err := svc.NotifyQueued(context.Background(), "https://youtu.be/abc", 7); err != nil {
		t.Fatalf("NotifyQueued: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(got))
	}
	if got[0].title != "ytproc - Queued" {
		t.Fatalf("unexpected title %q", got[0].title)
	}
	if got[0].tags != "ytproc,queue,added" {
		t.Fatalf("unexpected tags %q", got[0].tags)
	}
	if got[0].body != "Queued https://youtu.be/abc (priority 7)" {
		t.Fatalf("unexpected body %q", got[0].body)
	}
}

func TestNotifyProcessingCompletedUsesHighPriority(t *testing.T) {
	var got []captured
	server := newCaptureServer(t, &got)
	svc := notifications.NewService(newNtfyConfig(server.URL))

	if err := svc.NotifyProcessingCompleted(context.Background(), "My Video", "/out/final_abc.mp4"); err != nil {
		t.Fatalf("NotifyProcessingCompleted: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(got))
	}
	if got[0].priority != "high" {
		t.Fatalf("expected high priority, got %q", got[0].priority)
	}
	if got[0].body != "Pipeline complete: My Video\nFile: /out/final_abc.mp4" {
		t.Fatalf("unexpected body %q", got[0].body)
	}
}

func TestNotifyErrorIncludesContextLabel(t *testing.T) {
	var got []captured
	server := newCaptureServer(t, &got)
	svc := notifications.NewService(newNtfyConfig(server.URL))

	if err := svc.NotifyError(context.Background(), errors.New("boom"), "downloader"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(got))
	}
	if got[0].body != "Error with downloader: boom" {
		t.Fatalf("unexpected body %q", got[0].body)
	}
}

func TestDisabledEventsAreSkipped(t *testing.T) {
	var got []captured
	server := newCaptureServer(t, &got)
	cfg := newNtfyConfig(server.URL)
	cfg.Notifications.Download = false
	svc := notifications.NewService(cfg)

	if err := svc.NotifyDownloadCompleted(context.Background(), "quiet"); err != nil {
		t.Fatalf("NotifyDownloadCompleted: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no request for disabled event, got %d", len(got))
	}
}

func TestSendReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)
	svc := notifications.NewService(newNtfyConfig(server.URL))

	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
