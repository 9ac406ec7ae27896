package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DownloadDir string `toml:"download_dir"`
	StagingDir  string `toml:"staging_dir"`
	OutputDir   string `toml:"output_dir"`
	CommentsDir string `toml:"comments_dir"`
	LogDir      string `toml:"log_dir"`
}

// Database contains the MongoDB connection settings backing the task queue.
type Database struct {
	URI                      string `toml:"uri"`
	Name                     string `toml:"name"`
	ServerSelectionTimeoutMS int    `toml:"server_selection_timeout_ms"`
	ConnectTimeoutMS         int    `toml:"connect_timeout_ms"`
	SocketTimeoutMS          int    `toml:"socket_timeout_ms"`
}

// Download contains configuration for fetching videos via yt-dlp.
type Download struct {
	Quality         string `toml:"quality"`
	CookieFile      string `toml:"cookie_file"`
	WriteThumbnail  bool   `toml:"write_thumbnail"`
	DefaultPriority int    `toml:"default_priority"`
}

// Comments contains configuration for the YouTube Data API comment fetcher.
type Comments struct {
	Enabled           bool    `toml:"enabled"`
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	MaxComments       int     `toml:"max_comments"`
	PageSize          int     `toml:"page_size"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Transcription contains configuration for speech-to-text over the OpenAI audio API.
type Transcription struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Translation contains configuration for the subtitle translation LLM.
type Translation struct {
	Provider        string `toml:"provider"`
	APIKey          string `toml:"api_key"`
	BaseURL         string `toml:"base_url"`
	Model           string `toml:"model"`
	TargetLang      string `toml:"target_lang"`
	MaxSegmentChars int    `toml:"max_segment_chars"`
	MaxSegmentLines int    `toml:"max_segment_lines"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// Subtitles contains configuration for subtitle line splitting and rendering.
type Subtitles struct {
	MaxLineLength int  `toml:"max_line_length"`
	BurnIn        bool `toml:"burn_in"`
}

// PublishTarget describes one upload destination for finished videos.
type PublishTarget struct {
	URL     string `toml:"url"`
	Token   string `toml:"token"`
	Enabled bool   `toml:"enabled"`
}

// Publish contains configuration for multi-platform publishing.
type Publish struct {
	Targets        map[string]PublishTarget `toml:"targets"`
	TimeoutSeconds int                      `toml:"timeout_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Queue          bool   `toml:"queue"`
	Download       bool   `toml:"download"`
	Publish        bool   `toml:"publish"`
	Completion     bool   `toml:"completion"`
	Errors         bool   `toml:"errors"`
}

// Workflow contains configuration for service timing and intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// HTTP contains settings shared by outbound HTTP clients.
type HTTP struct {
	UserAgent string `toml:"user_agent"`
}

// Config encapsulates all configuration values for the pipeline.
//
// Configuration sections by subsystem:
//   - Paths: download, staging, output, comments, and log directories
//   - Database: MongoDB task queue connection
//   - Download: yt-dlp quality and cookie settings
//   - Comments: YouTube Data API comment fetching
//   - Transcription: OpenAI audio API speech-to-text
//   - Translation: LLM provider and batching settings
//   - Subtitles: line splitting and render mode
//   - Publish: upload targets for finished videos
//   - Notifications: ntfy push notification settings
//   - Workflow: polling intervals and heartbeat timeouts
//   - Logging: log format, level, and retention
//   - HTTP: shared outbound client settings
type Config struct {
	Paths         Paths         `toml:"paths"`
	Database      Database      `toml:"database"`
	Download      Download      `toml:"download"`
	Comments      Comments      `toml:"comments"`
	Transcription Transcription `toml:"transcription"`
	Translation   Translation   `toml:"translation"`
	Subtitles     Subtitles     `toml:"subtitles"`
	Publish       Publish       `toml:"publish"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
	HTTP          HTTP          `toml:"http"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ytproc/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ytproc.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for service operation.
// Creation is idempotent; existing directories are left untouched.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		c.Paths.DownloadDir,
		c.Paths.StagingDir,
		c.Paths.OutputDir,
		c.Paths.CommentsDir,
		c.Paths.LogDir,
	} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ArchiveDBPath returns the location of the SQLite download archive.
func (c *Config) ArchiveDBPath() string {
	return filepath.Join(c.Paths.LogDir, "archive.db")
}

// YtdlpBinary returns the yt-dlp executable name.
func (c *Config) YtdlpBinary() string {
	return "yt-dlp"
}

// FFmpegBinary returns the ffmpeg executable name used for subtitle rendering.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
// An existing file is never overwritten.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
