package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateComments(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.URI == "" {
		return errors.New("database.uri must be set (or export MONGODB_URI)")
	}
	if !strings.HasPrefix(c.Database.URI, "mongodb://") && !strings.HasPrefix(c.Database.URI, "mongodb+srv://") {
		return fmt.Errorf("database.uri must be a mongodb:// or mongodb+srv:// URI, got %q", c.Database.URI)
	}
	if c.Database.Name == "" {
		return errors.New("database.name must be set (or export DB_NAME)")
	}
	return nil
}

func (c *Config) validateDownload() error {
	valid := false
	for _, choice := range QualityChoices {
		if c.Download.Quality == choice {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("download.quality must be one of %s, got %q", strings.Join(QualityChoices, "/"), c.Download.Quality)
	}
	if c.Download.DefaultPriority < 1 || c.Download.DefaultPriority > 9 {
		return errors.New("download.default_priority must be between 1 and 9")
	}
	return nil
}

func (c *Config) validateComments() error {
	if !c.Comments.Enabled {
		return nil
	}
	if c.Comments.PageSize < 1 || c.Comments.PageSize > 100 {
		return errors.New("comments.page_size must be between 1 and 100")
	}
	if c.Comments.MaxComments < 1 {
		return errors.New("comments.max_comments must be positive")
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if _, ok := providerDefaults[c.Translation.Provider]; !ok {
		return fmt.Errorf("translation.provider must be one of openai/moonshot/baidu, got %q", c.Translation.Provider)
	}
	if _, err := language.Parse(c.Translation.TargetLang); err != nil {
		return fmt.Errorf("translation.target_lang %q is not a valid language tag: %w", c.Translation.TargetLang, err)
	}
	if c.Translation.MaxSegmentChars < 100 {
		return errors.New("translation.max_segment_chars must be at least 100")
	}
	if c.Translation.MaxSegmentLines < 1 {
		return errors.New("translation.max_segment_lines must be positive")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if c.Subtitles.MaxLineLength < 10 {
		return errors.New("subtitles.max_line_length must be at least 10")
	}
	return nil
}

func (c *Config) validatePublish() error {
	for name, target := range c.Publish.Targets {
		if !target.Enabled {
			continue
		}
		if target.URL == "" {
			return fmt.Errorf("publish.targets.%s.url must be set when enabled", name)
		}
		if target.Token == "" {
			return fmt.Errorf("publish.targets.%s.token must be set when enabled", name)
		}
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":         c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval":        c.Workflow.ErrorRetryInterval,
		"notifications.request_timeout":        c.Notifications.RequestTimeout,
		"transcription.timeout_seconds":        c.Transcription.TimeoutSeconds,
		"translation.timeout_seconds":          c.Translation.TimeoutSeconds,
		"publish.timeout_seconds":              c.Publish.TimeoutSeconds,
		"database.socket_timeout_ms":           c.Database.SocketTimeoutMS,
		"database.connect_timeout_ms":          c.Database.ConnectTimeoutMS,
		"database.server_selection_timeout_ms": c.Database.ServerSelectionTimeoutMS,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
