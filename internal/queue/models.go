package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending          Status = "pending"
	StatusDownloading      Status = "downloading"
	StatusDownloaded       Status = "downloaded"
	StatusFetchingComments Status = "fetching_comments"
	StatusCommentsFetched  Status = "comments_fetched"
	StatusTranscribing     Status = "transcribing"
	StatusTranscribed      Status = "transcribed"
	StatusTranslating      Status = "translating"
	StatusTranslated       Status = "translated"
	StatusRendering        Status = "rendering"
	StatusRendered         Status = "rendered"
	StatusPublishing       Status = "publishing"
	StatusCompleted        Status = "completed"
	StatusFailed           Status = "failed"
	StatusPaused           Status = "paused"
)

// ServiceStopReason is the error message set when items are failed due to service shutdown.
const ServiceStopReason = "Service stopped"

var allStatuses = []Status{
	StatusPending,
	StatusDownloading,
	StatusDownloaded,
	StatusFetchingComments,
	StatusCommentsFetched,
	StatusTranscribing,
	StatusTranscribed,
	StatusTranslating,
	StatusTranslated,
	StatusRendering,
	StatusRendered,
	StatusPublishing,
	StatusCompleted,
	StatusFailed,
	StatusPaused,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusDownloading:      {},
	StatusFetchingComments: {},
	StatusTranscribing:     {},
	StatusTranslating:      {},
	StatusRendering:        {},
	StatusPublishing:       {},
}

// DefaultRollbacks maps each processing status to the canonical stage start
// status it resets to when stuck work is reclaimed. The workflow manager
// substitutes its own map when optional stages re-link the ladder.
func DefaultRollbacks() map[Status]Status {
	return map[Status]Status{
		StatusDownloading:      StatusPending,
		StatusFetchingComments: StatusDownloaded,
		StatusTranscribing:     StatusCommentsFetched,
		StatusTranslating:      StatusTranscribed,
		StatusRendering:        StatusTranslated,
		StatusPublishing:       StatusRendered,
	}
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	URI        string
	Database   string
	Connected  bool
	TotalItems int64
	Error      string
}

// HealthSummary describes aggregated queue counts for key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Completed  int
	Paused     int
}

// Item represents a queue item persisted in MongoDB. ID is the hex form of the
// document's ObjectID and is empty until the item is inserted.
type Item struct {
	ID                     string
	VideoURL               string
	VideoID                string
	Title                  string
	Status                 Status
	Priority               int
	Quality                string
	TargetLang             string
	VideoFile              string
	ThumbnailFile          string
	SubtitleFile           string
	TranslatedSubtitleFile string
	CommentsFile           string
	FinalFile              string
	PublishedURLs          map[string]string
	ErrorMessage           string
	ProgressStage          string
	ProgressPercent        float64
	ProgressMessage        string
	MetadataJSON           string
	CreatedAt              time.Time
	UpdatedAt              time.Time
	LastHeartbeat          *time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	return IsProcessingStatus(i.Status)
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// ProcessingStatuses returns the statuses that represent in-flight work.
func ProcessingStatuses() []Status {
	out := make([]Status, 0, len(processingStatuses))
	for _, status := range allStatuses {
		if IsProcessingStatus(status) {
			out = append(out, status)
		}
	}
	return out
}

// InitProgress resets progress fields for a new stage. If ProgressStage is
// currently empty it is set to the provided stage value; otherwise the
// existing stage is preserved to support resume scenarios.
func (i *Item) InitProgress(stage, message string) {
	if i.ProgressStage == "" {
		i.ProgressStage = stage
	}
	i.ProgressMessage = message
	i.ProgressPercent = 0
	i.ErrorMessage = ""
}

// SetProgress updates all three progress fields atomically.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (i *Item) SetProgressComplete(stage, message string) {
	i.SetProgress(stage, message, 100)
}

// SetFailed marks the item as failed with the given error message and clears
// the heartbeat.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressPercent = 0
	i.ProgressMessage = message
	i.LastHeartbeat = nil
	i.ProgressStage = "Failed"
}
