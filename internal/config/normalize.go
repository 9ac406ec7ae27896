package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDatabase(); err != nil {
		return err
	}
	if err := c.normalizeDownload(); err != nil {
		return err
	}
	c.normalizeComments()
	c.normalizeTranscription()
	c.normalizeTranslation()
	c.normalizeSubtitles()
	c.normalizePublish()
	c.normalizeNotifications()
	c.normalizeLogging()
	c.normalizeHTTP()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("DOWNLOAD_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.DownloadDir = strings.TrimSpace(value)
	}
	var err error
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.CommentsDir, err = expandPath(c.Paths.CommentsDir); err != nil {
		return fmt.Errorf("paths.comments_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDatabase() error {
	if value, ok := os.LookupEnv("MONGODB_URI"); ok && strings.TrimSpace(value) != "" {
		c.Database.URI = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("DB_NAME"); ok && strings.TrimSpace(value) != "" {
		c.Database.Name = strings.TrimSpace(value)
	}
	c.Database.URI = strings.TrimSpace(c.Database.URI)
	c.Database.Name = strings.TrimSpace(c.Database.Name)
	if c.Database.ServerSelectionTimeoutMS <= 0 {
		c.Database.ServerSelectionTimeoutMS = defaultServerSelectionTimeoutMS
	}
	if c.Database.ConnectTimeoutMS <= 0 {
		c.Database.ConnectTimeoutMS = defaultConnectTimeoutMS
	}
	if c.Database.SocketTimeoutMS <= 0 {
		c.Database.SocketTimeoutMS = defaultSocketTimeoutMS
	}
	return nil
}

func (c *Config) normalizeDownload() error {
	c.Download.Quality = normalizeQuality(c.Download.Quality)
	if c.Download.DefaultPriority == 0 {
		c.Download.DefaultPriority = defaultPriority
	}
	if strings.TrimSpace(c.Download.CookieFile) != "" {
		expanded, err := expandPath(c.Download.CookieFile)
		if err != nil {
			return fmt.Errorf("download.cookie_file: %w", err)
		}
		c.Download.CookieFile = expanded
	}
	return nil
}

func normalizeQuality(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultQuality
	}
	if strings.EqualFold(trimmed, "4k") {
		return "4K"
	}
	return strings.ToLower(trimmed)
}

func (c *Config) normalizeComments() {
	c.Comments.APIKey = strings.TrimSpace(c.Comments.APIKey)
	if c.Comments.APIKey == "" {
		if value, ok := os.LookupEnv("YOUTUBE_API_KEY"); ok {
			c.Comments.APIKey = strings.TrimSpace(value)
		}
	}
	c.Comments.BaseURL = strings.TrimSpace(c.Comments.BaseURL)
	if c.Comments.BaseURL == "" {
		c.Comments.BaseURL = defaultCommentsBaseURL
	}
	if c.Comments.MaxComments <= 0 {
		c.Comments.MaxComments = defaultMaxComments
	}
	if c.Comments.PageSize <= 0 {
		c.Comments.PageSize = defaultCommentPageSize
	}
	if c.Comments.RequestsPerSecond <= 0 {
		c.Comments.RequestsPerSecond = defaultCommentRequestsPerSecond
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.APIKey = strings.TrimSpace(c.Transcription.APIKey)
	if c.Transcription.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Transcription.APIKey = strings.TrimSpace(value)
		}
	}
	c.Transcription.BaseURL = strings.TrimSpace(c.Transcription.BaseURL)
	if c.Transcription.BaseURL == "" {
		c.Transcription.BaseURL = defaultTranscriptionBaseURL
	}
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultTranscriptionModel
	}
	c.Transcription.Language = strings.TrimSpace(c.Transcription.Language)
	if c.Transcription.TimeoutSeconds <= 0 {
		c.Transcription.TimeoutSeconds = defaultTranscriptionTimeout
	}
}

func (c *Config) normalizeTranslation() {
	c.Translation.Provider = strings.ToLower(strings.TrimSpace(c.Translation.Provider))
	if c.Translation.Provider == "" {
		c.Translation.Provider = defaultTranslationProvider
	}
	c.Translation.APIKey = strings.TrimSpace(c.Translation.APIKey)
	if c.Translation.APIKey == "" {
		c.Translation.APIKey = translationKeyFromEnv(c.Translation.Provider)
	}
	defaults, known := providerDefaults[c.Translation.Provider]
	c.Translation.BaseURL = strings.TrimSpace(c.Translation.BaseURL)
	if c.Translation.BaseURL == "" && known {
		c.Translation.BaseURL = defaults.BaseURL
	}
	c.Translation.Model = strings.TrimSpace(c.Translation.Model)
	if c.Translation.Model == "" && known {
		c.Translation.Model = defaults.Model
	}
	if value, ok := os.LookupEnv("TRANSLATE_TARGET_LANG"); ok && strings.TrimSpace(value) != "" {
		c.Translation.TargetLang = strings.TrimSpace(value)
	}
	c.Translation.TargetLang = strings.TrimSpace(c.Translation.TargetLang)
	if c.Translation.TargetLang == "" {
		c.Translation.TargetLang = defaultTargetLang
	}
	if c.Translation.MaxSegmentChars <= 0 {
		c.Translation.MaxSegmentChars = defaultMaxSegmentChars
	}
	if c.Translation.MaxSegmentLines <= 0 {
		c.Translation.MaxSegmentLines = defaultMaxSegmentLines
	}
	if c.Translation.TimeoutSeconds <= 0 {
		c.Translation.TimeoutSeconds = defaultTranslationTimeout
	}
}

func translationKeyFromEnv(provider string) string {
	keys := []string{"LLM_API_KEY"}
	switch provider {
	case "openai":
		keys = append(keys, "OPENAI_API_KEY")
	case "moonshot":
		keys = append(keys, "MOONSHOT_API_KEY")
	case "baidu":
		keys = append(keys, "BAIDU_API_KEY")
	}
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func (c *Config) normalizeSubtitles() {
	if c.Subtitles.MaxLineLength <= 0 {
		c.Subtitles.MaxLineLength = defaultMaxLineLength
	}
}

func (c *Config) normalizePublish() {
	if c.Publish.TimeoutSeconds <= 0 {
		c.Publish.TimeoutSeconds = defaultPublishTimeout
	}
	for name, target := range c.Publish.Targets {
		target.URL = strings.TrimSpace(target.URL)
		target.Token = strings.TrimSpace(target.Token)
		c.Publish.Targets[name] = target
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func (c *Config) normalizeHTTP() {
	if value, ok := os.LookupEnv("USER_AGENT"); ok && strings.TrimSpace(value) != "" {
		c.HTTP.UserAgent = strings.TrimSpace(value)
	}
	c.HTTP.UserAgent = strings.TrimSpace(c.HTTP.UserAgent)
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = defaultUserAgent
	}
}
