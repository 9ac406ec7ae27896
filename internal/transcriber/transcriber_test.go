package transcriber

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ytproc/internal/config"
	"ytproc/internal/logging"
	"ytproc/internal/queue"
	"ytproc/internal/services"
	"ytproc/internal/services/whisper"
	"ytproc/internal/subtitles"
)

type stubService struct {
	transcription *whisper.Transcription
	err           error
	calls         int
}

func (s *stubService) Transcribe(ctx context.Context, path string) (*whisper.Transcription, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.transcription, nil
}

func writeVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	return path
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Transcription.APIKey = "key"
	return &cfg
}

func TestPrepareRequiresVideoFile(t *testing.T) {
	tr := NewWithDependencies(testConfig(), nil, logging.NewNop(), &stubService{})
	if err := tr.Prepare(context.Background(), &queue.Item{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	item := &queue.Item{VideoFile: "/does/not/exist.mp4"}
	if err := tr.Prepare(context.Background(), item); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing file, got %v", err)
	}
}

func TestExecuteWritesSubtitles(t *testing.T) {
	videoFile := writeVideo(t)
	service := &stubService{transcription: &whisper.Transcription{
		Text: "hello world",
		Segments: []whisper.Segment{
			{ID: 0, Start: 0, End: 1.5, Text: " hello"},
			{ID: 1, Start: 1.5, End: 3.0, Text: " world"},
		},
	}}
	tr := NewWithDependencies(testConfig(), nil, logging.NewNop(), service)

	item := &queue.Item{VideoFile: videoFile}
	if err := tr.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if item.SubtitleFile != SubtitlePath(videoFile) {
		t.Fatalf("unexpected subtitle file %q", item.SubtitleFile)
	}

	cues, err := subtitles.ParseFile(item.SubtitleFile)
	if err != nil {
		t.Fatalf("parse srt: %v", err)
	}
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	if cues[0].Text != "hello" || cues[0].End != 1500*time.Millisecond {
		t.Fatalf("unexpected first cue %+v", cues[0])
	}
}

func TestExecuteSplitsLongSegments(t *testing.T) {
	videoFile := writeVideo(t)
	long := "The quick brown fox jumps over the lazy dog. Pack my box with five dozen liquor jugs. How vexingly quick daft zebras jump."
	service := &stubService{transcription: &whisper.Transcription{
		Text:     long,
		Segments: []whisper.Segment{{ID: 0, Start: 0, End: 9, Text: long}},
	}}
	cfg := testConfig()
	cfg.Subtitles.MaxLineLength = 50
	tr := NewWithDependencies(cfg, nil, logging.NewNop(), service)

	item := &queue.Item{VideoFile: videoFile}
	if err := tr.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	cues, err := subtitles.ParseFile(item.SubtitleFile)
	if err != nil {
		t.Fatalf("parse srt: %v", err)
	}
	if len(cues) < 2 {
		t.Fatalf("expected the long segment to be split, got %+v", cues)
	}
	for _, cue := range cues {
		if got := len([]rune(cue.Text)); got > 50 {
			t.Fatalf("cue exceeds max line length (%d runes): %q", got, cue.Text)
		}
	}
	if cues[0].Start != 0 || cues[len(cues)-1].End != 9*time.Second {
		t.Fatalf("split cues must span the segment's time range, got %+v", cues)
	}
	for i := 1; i < len(cues); i++ {
		if cues[i].Start != cues[i-1].End {
			t.Fatalf("split cues must be contiguous, got %+v then %+v", cues[i-1], cues[i])
		}
	}
}

func TestExecuteSkipsWhenSubtitleExists(t *testing.T) {
	videoFile := writeVideo(t)
	existing := SubtitlePath(videoFile)
	cues := []subtitles.Cue{{Start: 0, End: time.Second, Text: "cached"}}
	if err := subtitles.WriteFile(existing, cues); err != nil {
		t.Fatalf("write srt: %v", err)
	}
	service := &stubService{}
	tr := NewWithDependencies(testConfig(), nil, logging.NewNop(), service)

	item := &queue.Item{VideoFile: videoFile}
	if err := tr.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if service.calls != 0 {
		t.Fatalf("expected API to be skipped, got %d calls", service.calls)
	}
	if item.SubtitleFile != existing {
		t.Fatalf("unexpected subtitle file %q", item.SubtitleFile)
	}
}

func TestExecuteWrapsServiceFailure(t *testing.T) {
	videoFile := writeVideo(t)
	tr := NewWithDependencies(testConfig(), nil, logging.NewNop(), &stubService{err: errors.New("timeout")})

	err := tr.Execute(context.Background(), &queue.Item{VideoFile: videoFile})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestExecuteRejectsEmptySegments(t *testing.T) {
	videoFile := writeVideo(t)
	tr := NewWithDependencies(testConfig(), nil, logging.NewNop(), &stubService{
		transcription: &whisper.Transcription{Text: "silence"},
	})

	err := tr.Execute(context.Background(), &queue.Item{VideoFile: videoFile})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestCuesFromSegmentsDropsDegenerateSegments(t *testing.T) {
	segments := []whisper.Segment{
		{Start: 0, End: 1, Text: "keep"},
		{Start: 1, End: 1, Text: "zero length"},
		{Start: 2, End: 3, Text: "   "},
		{Start: 3, End: 4, Text: "also keep"},
	}
	cues := CuesFromSegments(segments)
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %+v", cues)
	}
	if cues[0].Index != 1 || cues[1].Index != 2 {
		t.Fatalf("expected sequential indexes, got %+v", cues)
	}
}

func TestHealthCheckRequiresAPIKey(t *testing.T) {
	cfg := testConfig()
	tr := NewWithDependencies(cfg, nil, logging.NewNop(), &stubService{})
	if health := tr.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy, got %+v", health)
	}
	cfg.Transcription.APIKey = ""
	if health := tr.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy without api key")
	}
}
