package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"ytproc/internal/archive"
	"ytproc/internal/config"
	"ytproc/internal/deps"
	"ytproc/internal/logging"
	"ytproc/internal/notifications"
	"ytproc/internal/queue"
	"ytproc/internal/services"
	"ytproc/internal/stage"
)

// qualityHeights caps the yt-dlp format selection per configured quality.
var qualityHeights = map[string]int{
	"480p":  480,
	"720p":  720,
	"1080p": 1080,
	"4K":    2160,
}

// fetchResult reports the artifacts produced by a fetch.
type fetchResult struct {
	VideoID   string
	Title     string
	VideoFile string
	Thumbnail string
}

// fetcher runs the actual download. Tests substitute a stub.
type fetcher interface {
	Fetch(ctx context.Context, item *queue.Item, destDir string, progress func(percent float64, message string)) (*fetchResult, error)
}

// Downloader implements the download stage.
type Downloader struct {
	cfg      *config.Config
	store    *queue.Store
	archive  *archive.Store
	notifier notifications.Service
	logger   *slog.Logger
	fetcher  fetcher
}

// New constructs the download stage handler using default dependencies.
func New(cfg *config.Config, store *queue.Store, archiveStore *archive.Store, logger *slog.Logger) *Downloader {
	d := NewWithDependencies(cfg, store, archiveStore, logger, notifications.NewService(cfg), nil)
	d.fetcher = &ytdlpFetcher{cfg: cfg}
	return d
}

// NewWithDependencies allows injecting collaborators (used in tests).
func NewWithDependencies(cfg *config.Config, store *queue.Store, archiveStore *archive.Store, logger *slog.Logger, notifier notifications.Service, fetch fetcher) *Downloader {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "downloader"))
	}
	return &Downloader{
		cfg:      cfg,
		store:    store,
		archive:  archiveStore,
		notifier: notifier,
		logger:   stageLogger,
		fetcher:  fetch,
	}
}

func (d *Downloader) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, d.logger)
	if !ValidateURL(item.VideoURL) {
		return services.Wrap(
			services.ErrValidation, "downloading", "validate url",
			fmt.Sprintf("URL %q is not a YouTube video URL", item.VideoURL), nil)
	}
	if item.VideoID == "" {
		item.VideoID = ExtractVideoID(item.VideoURL)
	}
	if item.Quality == "" {
		item.Quality = d.cfg.Download.Quality
	}
	if _, ok := qualityHeights[item.Quality]; !ok {
		return services.Wrap(
			services.ErrValidation, "downloading", "validate quality",
			fmt.Sprintf("unsupported quality %q", item.Quality), nil)
	}
	item.InitProgress("Downloading", "Preparing download")
	logger.Info("starting download preparation",
		logging.String(logging.FieldVideoID, item.VideoID),
		logging.String("quality", item.Quality))
	return nil
}

func (d *Downloader) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, d.logger)

	if item.VideoID != "" && d.archive != nil {
		entry, err := d.archive.Lookup(ctx, item.VideoID)
		if err != nil {
			logger.Warn("archive lookup failed", logging.Error(err))
		} else if entry != nil {
			if _, statErr := os.Stat(entry.VideoFile); statErr == nil {
				item.Title = entry.Title
				item.VideoFile = entry.VideoFile
				item.ThumbnailFile = entry.ThumbnailFile
				item.SetProgressComplete("Downloading", "Reused archived download")
				logger.Info("reusing archived download",
					logging.String(logging.FieldVideoID, item.VideoID),
					logging.String("video_file", entry.VideoFile))
				return nil
			}
			logger.Info("archived file missing, re-downloading",
				logging.String("video_file", entry.VideoFile))
		}
	}

	destDir := filepath.Join(d.cfg.Paths.StagingDir, item.ID)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "downloading", "ensure staging dir", "Failed to create staging directory", err)
	}

	logger.Info("starting download",
		logging.String("video_url", item.VideoURL),
		logging.String("dest_dir", destDir))
	result, err := d.fetcher.Fetch(ctx, item, destDir, func(percent float64, message string) {
		d.updateProgress(ctx, item, message, percent)
	})
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "downloading", "run yt-dlp", "Video download failed", err)
	}
	if result.VideoFile == "" {
		return services.Wrap(services.ErrExternalTool, "downloading", "locate output", "yt-dlp reported success but produced no file", nil)
	}

	if result.VideoID != "" {
		item.VideoID = result.VideoID
	}
	if result.Title != "" {
		item.Title = result.Title
	}
	item.VideoFile = result.VideoFile
	item.ThumbnailFile = result.Thumbnail
	item.SetProgressComplete("Downloading", fmt.Sprintf("Downloaded %s", filepath.Base(result.VideoFile)))

	if d.archive != nil && item.VideoID != "" {
		entry := archive.Entry{
			VideoID:       item.VideoID,
			VideoURL:      item.VideoURL,
			Title:         item.Title,
			VideoFile:     item.VideoFile,
			ThumbnailFile: item.ThumbnailFile,
			Quality:       item.Quality,
		}
		if err := d.archive.Record(ctx, entry); err != nil {
			logger.Warn("failed to record archive entry", logging.Error(err))
		}
	}

	logger.Info("download completed",
		logging.String(logging.FieldVideoID, item.VideoID),
		logging.String("video_file", item.VideoFile))
	if d.notifier != nil {
		title := item.Title
		if title == "" {
			title = item.VideoURL
		}
		if err := d.notifier.NotifyDownloadCompleted(ctx, title); err != nil {
			logger.Warn("download notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies the yt-dlp binary is available.
func (d *Downloader) HealthCheck(ctx context.Context) stage.Health {
	const name = "downloader"
	if d.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	statuses := deps.CheckBinaries([]deps.Requirement{{Name: "yt-dlp", Command: d.cfg.YtdlpBinary()}})
	if len(statuses) == 1 && !statuses[0].Available {
		return stage.Unhealthy(name, statuses[0].Detail)
	}
	return stage.Healthy(name)
}

func (d *Downloader) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, d.logger)
	updated := *item
	updated.SetProgress("Downloading", message, percent)
	if err := d.store.Update(ctx, &updated); err != nil {
		logger.Warn("failed to persist download progress", logging.Error(err))
		return
	}
	*item = updated
}

// ytdlpFetcher drives yt-dlp through go-ytdlp.
type ytdlpFetcher struct {
	cfg *config.Config
}

func (f *ytdlpFetcher) Fetch(ctx context.Context, item *queue.Item, destDir string, progress func(percent float64, message string)) (*fetchResult, error) {
	height := qualityHeights[item.Quality]
	if height == 0 {
		height = 1080
	}

	dl := ytdlp.New().
		Format(fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", height, height)).
		Continue().
		NoPlaylist().
		RestrictFilenames().
		Output(filepath.Join(destDir, "%(id)s.%(ext)s"))
	if f.cfg.Download.WriteThumbnail {
		dl = dl.WriteThumbnail()
	}
	if cookieFile := strings.TrimSpace(f.cfg.Download.CookieFile); cookieFile != "" {
		dl = dl.Cookies(cookieFile)
	}
	if progress != nil {
		dl = dl.ProgressFunc(time.Second, func(update ytdlp.ProgressUpdate) {
			if update.TotalBytes <= 0 {
				return
			}
			percent := float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
			progress(percent, fmt.Sprintf("Downloading %.0f%%", percent))
		})
	}

	result, err := dl.Run(ctx, item.VideoURL)
	if err != nil {
		return nil, err
	}

	out := &fetchResult{}
	info, err := result.GetExtractedInfo()
	if err == nil && len(info) > 0 {
		if info[0].ID != "" {
			out.VideoID = info[0].ID
		}
		if info[0].Title != nil {
			out.Title = *info[0].Title
		}
		if info[0].Filename != nil {
			out.VideoFile = *info[0].Filename
		}
	}
	if out.VideoID == "" {
		out.VideoID = item.VideoID
	}
	if out.VideoFile == "" {
		out.VideoFile = locateByStem(destDir, out.VideoID, []string{".mp4", ".mkv", ".webm"})
	}
	out.Thumbnail = locateByStem(destDir, out.VideoID, []string{".jpg", ".jpeg", ".png", ".webp"})
	return out, nil
}

// locateByStem finds <dir>/<stem>.<ext> for the first extension that exists.
func locateByStem(dir, stem string, exts []string) string {
	if stem == "" {
		return ""
	}
	for _, ext := range exts {
		candidate := filepath.Join(dir, stem+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
