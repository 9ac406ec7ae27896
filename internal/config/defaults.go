package config

const (
	defaultDownloadDir              = "~/.local/share/ytproc/downloads"
	defaultStagingDir               = "~/.local/share/ytproc/staging"
	defaultOutputDir                = "~/.local/share/ytproc/output"
	defaultCommentsDir              = "~/.local/share/ytproc/comments"
	defaultLogDir                   = "~/.local/share/ytproc/logs"
	defaultDatabaseURI              = "mongodb://localhost:27017"
	defaultDatabaseName             = "ytproc"
	defaultServerSelectionTimeoutMS = 5000
	defaultConnectTimeoutMS         = 3000
	defaultSocketTimeoutMS          = 30000
	defaultQuality                  = "1080p"
	defaultPriority                 = 5
	defaultCommentsBaseURL          = "https://www.googleapis.com/youtube/v3"
	defaultMaxComments              = 100
	defaultCommentPageSize          = 20
	defaultCommentRequestsPerSecond = 2.0
	defaultTranscriptionBaseURL     = "https://api.openai.com/v1"
	defaultTranscriptionModel       = "whisper-1"
	defaultTranscriptionTimeout     = 600
	defaultTranslationProvider      = "openai"
	defaultTargetLang               = "zh"
	defaultMaxSegmentChars          = 3500
	defaultMaxSegmentLines          = 6
	defaultTranslationTimeout       = 120
	defaultMaxLineLength            = 40
	defaultPublishTimeout           = 600
	defaultNotifyRequestTimeout     = 10
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
	defaultLogRetentionDays         = 60
	defaultUserAgent                = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Quality values accepted for downloads, ordered low to high.
var QualityChoices = []string{"480p", "720p", "1080p", "4K"}

// Provider default chat-completions endpoints and models.
var providerDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai":   {BaseURL: "https://api.openai.com/v1/chat/completions", Model: "gpt-4o-mini"},
	"moonshot": {BaseURL: "https://api.moonshot.cn/v1/chat/completions", Model: "moonshot-v1-8k"},
	"baidu":    {BaseURL: "https://qianfan.baidubce.com/v2/chat/completions", Model: "ernie-3.5-8k"},
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			StagingDir:  defaultStagingDir,
			OutputDir:   defaultOutputDir,
			CommentsDir: defaultCommentsDir,
			LogDir:      defaultLogDir,
		},
		Database: Database{
			URI:                      defaultDatabaseURI,
			Name:                     defaultDatabaseName,
			ServerSelectionTimeoutMS: defaultServerSelectionTimeoutMS,
			ConnectTimeoutMS:         defaultConnectTimeoutMS,
			SocketTimeoutMS:          defaultSocketTimeoutMS,
		},
		Download: Download{
			Quality:         defaultQuality,
			WriteThumbnail:  true,
			DefaultPriority: defaultPriority,
		},
		Comments: Comments{
			Enabled:           true,
			BaseURL:           defaultCommentsBaseURL,
			MaxComments:       defaultMaxComments,
			PageSize:          defaultCommentPageSize,
			RequestsPerSecond: defaultCommentRequestsPerSecond,
		},
		Transcription: Transcription{
			BaseURL:        defaultTranscriptionBaseURL,
			Model:          defaultTranscriptionModel,
			TimeoutSeconds: defaultTranscriptionTimeout,
		},
		Translation: Translation{
			Provider:        defaultTranslationProvider,
			TargetLang:      defaultTargetLang,
			MaxSegmentChars: defaultMaxSegmentChars,
			MaxSegmentLines: defaultMaxSegmentLines,
			TimeoutSeconds:  defaultTranslationTimeout,
		},
		Subtitles: Subtitles{
			MaxLineLength: defaultMaxLineLength,
		},
		Publish: Publish{
			TimeoutSeconds: defaultPublishTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Queue:          true,
			Download:       true,
			Publish:        true,
			Completion:     true,
			Errors:         true,
		},
		Workflow: Workflow{
			QueuePollInterval:  5,
			ErrorRetryInterval: 10,
			HeartbeatInterval:  15,
			HeartbeatTimeout:   120,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		HTTP: HTTP{
			UserAgent: defaultUserAgent,
		},
	}
}
