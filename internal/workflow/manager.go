package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ytproc/internal/config"
	"ytproc/internal/notifications"
	"ytproc/internal/queue"
)

// Store is the queue surface the manager needs. *queue.Store satisfies it;
// tests substitute an in-memory fake so the manager can run without MongoDB.
type Store interface {
	NextForStatuses(ctx context.Context, statuses ...queue.Status) (*queue.Item, error)
	Update(ctx context.Context, item *queue.Item) error
	UpdateHeartbeat(ctx context.Context, id string) error
	ReclaimStaleProcessing(ctx context.Context, cutoff time.Time, transitions map[queue.Status]queue.Status) (int, error)
	Stats(ctx context.Context) (queue.HealthSummary, error)
	ItemsByStatus(ctx context.Context) (map[queue.Status]int, error)
}

// Manager coordinates queue processing using registered stage handlers.
type Manager struct {
	cfg          *config.Config
	store        Store
	logger       *slog.Logger
	pollInterval time.Duration
	notifier     notifications.Service

	heartbeat *HeartbeatMonitor

	lanes     map[laneKind]*laneState
	laneOrder []laneKind

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastErr  error
	lastItem *queue.Item
}

// NewManager constructs a new workflow manager.
func NewManager(cfg *config.Config, store Store, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, notifications.NewService(cfg))
}

// NewManagerWithNotifier constructs a workflow manager with a custom notifier (used in tests).
func NewManagerWithNotifier(cfg *config.Config, store Store, logger *slog.Logger, notifier notifications.Service) *Manager {
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		notifier:     notifier,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		lanes: make(map[laneKind]*laneState),
	}
}
