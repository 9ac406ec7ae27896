package testsupport

import (
	"path/filepath"
	"testing"

	"ytproc/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DownloadDir = filepath.Join(base, "downloads")
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.CommentsDir = filepath.Join(base, "comments")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Transcription.APIKey = "test"
	cfg.Translation.APIKey = "test"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithCommentsEnabled turns comment fetching on with a dummy API key.
func WithCommentsEnabled() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Comments.Enabled = true
		cfg.Comments.APIKey = "test"
	}
}

// WithPublishTarget registers a single enabled publish target.
func WithPublishTarget(name, url, token string) ConfigOption {
	return func(cfg *config.Config) {
		if cfg.Publish.Targets == nil {
			cfg.Publish.Targets = make(map[string]config.PublishTarget)
		}
		cfg.Publish.Targets[name] = config.PublishTarget{URL: url, Token: token, Enabled: true}
	}
}
