package translator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ytproc/internal/config"
	"ytproc/internal/logging"
	"ytproc/internal/queue"
	"ytproc/internal/services"
	"ytproc/internal/subtitles"
)

// echoService translates by prefixing each numbered line.
type echoService struct {
	calls   int
	prompts []string
	fail    bool
	drop    int // 1-based line number to omit from every reply
}

func (e *echoService) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	e.calls++
	e.prompts = append(e.prompts, userPrompt)
	if e.fail {
		return "", errors.New("provider down")
	}
	var out []string
	for _, line := range strings.Split(userPrompt, "\n") {
		parts := strings.SplitN(line, ". ", 2)
		if len(parts) != 2 {
			continue
		}
		if fmt.Sprintf("%d", e.drop) == parts[0] {
			continue
		}
		out = append(out, parts[0]+". translated "+parts[1])
	}
	return strings.Join(out, "\n"), nil
}

func writeSourceSRT(t *testing.T, count int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "video.srt")
	cues := make([]subtitles.Cue, count)
	for i := range cues {
		cues[i] = subtitles.Cue{
			Start: time.Duration(i) * time.Second,
			End:   time.Duration(i+1) * time.Second,
			Text:  fmt.Sprintf("line %d", i+1),
		}
	}
	if err := subtitles.WriteFile(path, cues); err != nil {
		t.Fatalf("write srt: %v", err)
	}
	return path
}

func translatorConfig() *config.Config {
	cfg := config.Default()
	cfg.Translation.APIKey = "key"
	return &cfg
}

func TestPrepareCanonicalizesTargetLang(t *testing.T) {
	tr := NewWithDependencies(translatorConfig(), nil, logging.NewNop(), &echoService{})
	item := &queue.Item{SubtitleFile: "/tmp/a.srt", TargetLang: "ZH"}
	if err := tr.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if item.TargetLang != "zh" {
		t.Fatalf("expected canonical tag, got %q", item.TargetLang)
	}

	item = &queue.Item{SubtitleFile: "/tmp/a.srt", TargetLang: "not-a-lang!"}
	if err := tr.Prepare(context.Background(), item); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExecuteTranslatesPreservingTiming(t *testing.T) {
	source := writeSourceSRT(t, 5)
	service := &echoService{}
	tr := NewWithDependencies(translatorConfig(), nil, logging.NewNop(), service)

	item := &queue.Item{SubtitleFile: source, TargetLang: "zh"}
	if err := tr.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := TranslatedPath(source, "zh")
	if item.TranslatedSubtitleFile != want {
		t.Fatalf("unexpected output path %q", item.TranslatedSubtitleFile)
	}

	original, err := subtitles.ParseFile(source)
	if err != nil {
		t.Fatalf("parse source: %v", err)
	}
	translated, err := subtitles.ParseFile(item.TranslatedSubtitleFile)
	if err != nil {
		t.Fatalf("parse translated: %v", err)
	}
	if len(translated) != len(original) {
		t.Fatalf("cue count changed: %d vs %d", len(translated), len(original))
	}
	for i := range original {
		if translated[i].Start != original[i].Start || translated[i].End != original[i].End {
			t.Fatalf("cue %d timing changed", i)
		}
		if !strings.HasPrefix(translated[i].Text, "translated ") {
			t.Fatalf("cue %d not translated: %q", i, translated[i].Text)
		}
	}
}

func TestExecuteBatchesByLineLimit(t *testing.T) {
	source := writeSourceSRT(t, 5)
	cfg := translatorConfig()
	cfg.Translation.MaxSegmentLines = 2
	service := &echoService{}
	tr := NewWithDependencies(cfg, nil, logging.NewNop(), service)

	item := &queue.Item{SubtitleFile: source, TargetLang: "zh"}
	if err := tr.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if service.calls != 3 {
		t.Fatalf("expected 3 batches, got %d", service.calls)
	}
	if !strings.HasPrefix(service.prompts[0], "1. line 1") {
		t.Fatalf("unexpected first prompt %q", service.prompts[0])
	}
	// Numbering restarts inside every batch.
	if !strings.HasPrefix(service.prompts[1], "1. line 3") {
		t.Fatalf("unexpected second prompt %q", service.prompts[1])
	}
}

func TestExecuteBackfillsDroppedLines(t *testing.T) {
	source := writeSourceSRT(t, 3)
	service := &echoService{drop: 2}
	tr := NewWithDependencies(translatorConfig(), nil, logging.NewNop(), service)

	item := &queue.Item{SubtitleFile: source, TargetLang: "zh"}
	if err := tr.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	translated, err := subtitles.ParseFile(item.TranslatedSubtitleFile)
	if err != nil {
		t.Fatalf("parse translated: %v", err)
	}
	if len(translated) != 3 {
		t.Fatalf("expected 3 cues, got %d", len(translated))
	}
	if strings.TrimSpace(translated[1].Text) != "" {
		t.Fatalf("dropped line should be empty, got %q", translated[1].Text)
	}
}

func TestExecuteReusesExistingTranslation(t *testing.T) {
	source := writeSourceSRT(t, 2)
	existing := TranslatedPath(source, "zh")
	if err := subtitles.WriteFile(existing, []subtitles.Cue{{Start: 0, End: time.Second, Text: "cached"}}); err != nil {
		t.Fatalf("write existing: %v", err)
	}
	service := &echoService{}
	tr := NewWithDependencies(translatorConfig(), nil, logging.NewNop(), service)

	item := &queue.Item{SubtitleFile: source, TargetLang: "zh"}
	if err := tr.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if service.calls != 0 {
		t.Fatalf("expected provider to be skipped, got %d calls", service.calls)
	}
	if item.TranslatedSubtitleFile != existing {
		t.Fatalf("unexpected output path %q", item.TranslatedSubtitleFile)
	}
}

func TestExecuteWrapsProviderFailure(t *testing.T) {
	source := writeSourceSRT(t, 2)
	tr := NewWithDependencies(translatorConfig(), nil, logging.NewNop(), &echoService{fail: true})

	err := tr.Execute(context.Background(), &queue.Item{SubtitleFile: source, TargetLang: "zh"})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestTranslatedPath(t *testing.T) {
	got := TranslatedPath("/data/video.srt", "zh")
	if got != "/data/video_zh_translated.srt" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestHealthCheck(t *testing.T) {
	cfg := translatorConfig()
	tr := NewWithDependencies(cfg, nil, logging.NewNop(), &echoService{})
	if health := tr.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy, got %+v", health)
	}
	cfg.Translation.APIKey = ""
	if health := tr.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy without api key")
	}
}

// pingService adds a provider health probe on top of echoService.
type pingService struct {
	echoService
	pingErr error
	pings   int
}

func (p *pingService) HealthCheck(ctx context.Context) error {
	p.pings++
	return p.pingErr
}

func TestHealthCheckPingsProvider(t *testing.T) {
	service := &pingService{}
	tr := NewWithDependencies(translatorConfig(), nil, logging.NewNop(), service)
	if health := tr.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy, got %+v", health)
	}
	if service.pings != 1 {
		t.Fatalf("expected provider ping, got %d", service.pings)
	}

	service.pingErr = errors.New("auth failed")
	health := tr.HealthCheck(context.Background())
	if health.Ready {
		t.Fatal("expected unhealthy when provider ping fails")
	}
	if !strings.Contains(health.Detail, "auth failed") {
		t.Fatalf("expected ping error in detail, got %+v", health)
	}
}
