package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ytproc/internal/config"
	"ytproc/internal/logging"
	"ytproc/internal/queue"
	"ytproc/internal/stage"
)

type fakeStore struct {
	mu    sync.Mutex
	items map[string]*queue.Item
	order []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: make(map[string]*queue.Item)}
}

func (f *fakeStore) add(item *queue.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *item
	f.items[item.ID] = &copied
	f.order = append(f.order, item.ID)
}

func (f *fakeStore) get(id string) *queue.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item, ok := f.items[id]; ok {
		copied := *item
		return &copied
	}
	return nil
}

func (f *fakeStore) NextForStatuses(ctx context.Context, statuses ...queue.Status) (*queue.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.order {
		item := f.items[id]
		for _, status := range statuses {
			if item.Status == status {
				copied := *item
				return &copied, nil
			}
		}
	}
	return nil, nil
}

func (f *fakeStore) Update(ctx context.Context, item *queue.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[item.ID]; !ok {
		return fmt.Errorf("item %s not found", item.ID)
	}
	copied := *item
	f.items[item.ID] = &copied
	return nil
}

func (f *fakeStore) UpdateHeartbeat(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item, ok := f.items[id]; ok {
		now := time.Now().UTC()
		item.LastHeartbeat = &now
	}
	return nil
}

func (f *fakeStore) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time, transitions map[queue.Status]queue.Status) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, item := range f.items {
		target, ok := transitions[item.Status]
		if !ok {
			continue
		}
		if item.LastHeartbeat != nil && item.LastHeartbeat.After(cutoff) {
			continue
		}
		item.Status = target
		item.LastHeartbeat = nil
		count++
	}
	return count, nil
}

func (f *fakeStore) Stats(ctx context.Context) (queue.HealthSummary, error) {
	counts, _ := f.ItemsByStatus(ctx)
	var summary queue.HealthSummary
	for status, count := range counts {
		summary.Total += count
		switch {
		case status == queue.StatusPending:
			summary.Pending += count
		case status == queue.StatusCompleted:
			summary.Completed += count
		case status == queue.StatusFailed:
			summary.Failed += count
		case status == queue.StatusPaused:
			summary.Paused += count
		case queue.IsProcessingStatus(status):
			summary.Processing += count
		}
	}
	return summary, nil
}

func (f *fakeStore) ItemsByStatus(ctx context.Context) (map[queue.Status]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[queue.Status]int)
	for _, item := range f.items {
		counts[item.Status]++
	}
	return counts, nil
}

// stubHandler completes immediately, optionally failing or mutating the item.
type stubHandler struct {
	name    string
	fail    error
	onExec  func(*queue.Item)
	execs   int
	mu      sync.Mutex
	healthy bool
}

func newStubHandler(name string) *stubHandler {
	return &stubHandler{name: name, healthy: true}
}

func (s *stubHandler) Prepare(ctx context.Context, item *queue.Item) error { return nil }

func (s *stubHandler) Execute(ctx context.Context, item *queue.Item) error {
	s.mu.Lock()
	s.execs++
	s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	if s.onExec != nil {
		s.onExec(item)
	}
	return nil
}

func (s *stubHandler) HealthCheck(ctx context.Context) stage.Health {
	if s.healthy {
		return stage.Healthy(s.name)
	}
	return stage.Unhealthy(s.name, "stub down")
}

func (s *stubHandler) executions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.execs
}

type recordingNotifier struct {
	mu        sync.Mutex
	errors    []string
	completed []string
}

func (r *recordingNotifier) NotifyQueued(ctx context.Context, videoURL string, priority int) error {
	return nil
}
func (r *recordingNotifier) NotifyDownloadCompleted(ctx context.Context, title string) error {
	return nil
}
func (r *recordingNotifier) NotifyPublishCompleted(ctx context.Context, title string, urls map[string]string) error {
	return nil
}
func (r *recordingNotifier) NotifyProcessingCompleted(ctx context.Context, title, finalFile string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, title)
	return nil
}
func (r *recordingNotifier) NotifyError(ctx context.Context, err error, context string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, context)
	return nil
}
func (r *recordingNotifier) TestNotification(ctx context.Context) error { return nil }

func newTestManager(store Store, notifier *recordingNotifier) *Manager {
	cfg := config.Default()
	cfg.Workflow.QueuePollInterval = 0
	cfg.Workflow.ErrorRetryInterval = 0
	cfg.Workflow.HeartbeatInterval = 0
	if notifier == nil {
		notifier = &recordingNotifier{}
	}
	return NewManagerWithNotifier(&cfg, store, logging.NewNop(), notifier)
}

func fullStageSet() (StageSet, map[string]*stubHandler) {
	handlers := map[string]*stubHandler{
		"downloader":      newStubHandler("downloader"),
		"comment-fetcher": newStubHandler("comment-fetcher"),
		"transcriber":     newStubHandler("transcriber"),
		"translator":      newStubHandler("translator"),
		"renderer":        newStubHandler("renderer"),
		"publisher":       newStubHandler("publisher"),
	}
	return StageSet{
		Downloader:     handlers["downloader"],
		CommentFetcher: handlers["comment-fetcher"],
		Transcriber:    handlers["transcriber"],
		Translator:     handlers["translator"],
		Renderer:       handlers["renderer"],
		Publisher:      handlers["publisher"],
	}, handlers
}

func TestConfigureStagesBuildsTwoLanes(t *testing.T) {
	m := newTestManager(newFakeStore(), nil)
	set, _ := fullStageSet()
	m.ConfigureStages(set)

	foreground := m.lanes[laneForeground]
	if foreground == nil || len(foreground.stages) != 2 {
		t.Fatalf("expected 2 foreground stages, got %+v", foreground)
	}
	background := m.lanes[laneBackground]
	if background == nil || len(background.stages) != 4 {
		t.Fatalf("expected 4 background stages, got %+v", background)
	}
	if background.stages[0].startStatus != queue.StatusCommentsFetched {
		t.Fatalf("transcriber should start from comments_fetched, got %s", background.stages[0].startStatus)
	}
	if got := background.rollbacks[queue.StatusTranscribing]; got != queue.StatusCommentsFetched {
		t.Fatalf("unexpected rollback for transcribing: %s", got)
	}
}

func TestConfigureStagesRelinksAroundMissingStages(t *testing.T) {
	m := newTestManager(newFakeStore(), nil)
	set, _ := fullStageSet()
	set.CommentFetcher = nil
	set.Publisher = nil
	m.ConfigureStages(set)

	background := m.lanes[laneBackground]
	if background.stages[0].startStatus != queue.StatusDownloaded {
		t.Fatalf("transcriber should start from downloaded, got %s", background.stages[0].startStatus)
	}
	last := background.stages[len(background.stages)-1]
	if last.name != "renderer" || last.doneStatus != queue.StatusCompleted {
		t.Fatalf("renderer should complete items without a publisher, got %+v", last)
	}
}

func TestRollbacksFollowRelinkedLadder(t *testing.T) {
	m := newTestManager(newFakeStore(), nil)
	set, _ := fullStageSet()
	set.CommentFetcher = nil
	set.Publisher = nil
	m.ConfigureStages(set)

	rollbacks := m.Rollbacks()
	if got := rollbacks[queue.StatusTranscribing]; got != queue.StatusDownloaded {
		t.Fatalf("transcribing should roll back to downloaded, got %s", got)
	}
	if got := rollbacks[queue.StatusRendering]; got != queue.StatusTranslated {
		t.Fatalf("rendering should roll back to translated, got %s", got)
	}
	if _, ok := rollbacks[queue.StatusFetchingComments]; ok {
		t.Fatal("rollbacks must not target the absent comment fetcher")
	}
	if _, ok := rollbacks[queue.StatusPublishing]; ok {
		t.Fatal("rollbacks must not target the absent publisher")
	}

	polled := make(map[queue.Status]bool)
	for _, lane := range m.lanes {
		for _, status := range lane.statusOrder {
			polled[status] = true
		}
	}
	for from, to := range rollbacks {
		if !polled[to] {
			t.Fatalf("rollback %s -> %s lands in a status no lane polls", from, to)
		}
	}
}

func TestBootResetUsesConfiguredRollbacks(t *testing.T) {
	store := newFakeStore()
	store.add(&queue.Item{ID: "item-1", Status: queue.StatusTranscribing})

	m := newTestManager(store, nil)
	set, _ := fullStageSet()
	set.CommentFetcher = nil
	m.ConfigureStages(set)

	count, err := store.ReclaimStaleProcessing(context.Background(), time.Now().UTC().Add(time.Hour), m.Rollbacks())
	if err != nil || count != 1 {
		t.Fatalf("reclaim: count=%d err=%v", count, err)
	}
	if got := store.get("item-1"); got.Status != queue.StatusDownloaded {
		t.Fatalf("expected downloaded, got %s", got.Status)
	}

	lane := m.lanes[laneBackground]
	item, err := store.NextForStatuses(context.Background(), lane.statusOrder...)
	if err != nil || item == nil {
		t.Fatalf("reset item not picked up by the background lane: item=%v err=%v", item, err)
	}
}

func TestProcessItemAdvancesStatus(t *testing.T) {
	store := newFakeStore()
	store.add(&queue.Item{ID: "item-1", VideoURL: "https://youtu.be/abc", Status: queue.StatusPending})

	m := newTestManager(store, nil)
	set, handlers := fullStageSet()
	m.ConfigureStages(set)

	lane := m.lanes[laneForeground]
	item, err := store.NextForStatuses(context.Background(), lane.statusOrder...)
	if err != nil || item == nil {
		t.Fatalf("NextForStatuses: item=%v err=%v", item, err)
	}
	if err := m.processItem(context.Background(), lane, logging.NewNop(), item); err != nil {
		t.Fatalf("processItem: %v", err)
	}
	if handlers["downloader"].executions() != 1 {
		t.Fatalf("downloader ran %d times", handlers["downloader"].executions())
	}
	if got := store.get("item-1"); got.Status != queue.StatusDownloaded {
		t.Fatalf("expected downloaded, got %s", got.Status)
	}
}

func TestStageFailureMarksItemFailed(t *testing.T) {
	store := newFakeStore()
	store.add(&queue.Item{ID: "item-1", Status: queue.StatusPending})

	notifier := &recordingNotifier{}
	m := newTestManager(store, notifier)
	set, handlers := fullStageSet()
	handlers["downloader"].fail = errors.New("network gone")
	m.ConfigureStages(set)

	lane := m.lanes[laneForeground]
	item, _ := store.NextForStatuses(context.Background(), lane.statusOrder...)
	if err := m.processItem(context.Background(), lane, logging.NewNop(), item); err == nil {
		t.Fatal("expected processItem to surface the failure")
	}

	got := store.get("item-1")
	if got.Status != queue.StatusFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
	if got.ErrorMessage == "" {
		t.Fatal("expected error message on failed item")
	}
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.errors) != 1 {
		t.Fatalf("expected one error notification, got %d", len(notifier.errors))
	}
}

func TestRunDrivesItemToCompletion(t *testing.T) {
	store := newFakeStore()
	store.add(&queue.Item{ID: "item-1", Title: "Video A", Status: queue.StatusPending})

	notifier := &recordingNotifier{}
	m := newTestManager(store, notifier)
	set, _ := fullStageSet()
	m.ConfigureStages(set)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if item := store.get("item-1"); item.Status == queue.StatusCompleted {
			if item.ProgressPercent < 100 {
				t.Fatalf("completed item has progress %f", item.ProgressPercent)
			}
			notifier.mu.Lock()
			completed := len(notifier.completed)
			notifier.mu.Unlock()
			if completed == 0 {
				t.Fatal("expected a completion notification")
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("item never completed, status=%s", store.get("item-1").Status)
}

func TestStartRequiresConfiguredStages(t *testing.T) {
	m := newTestManager(newFakeStore(), nil)
	if err := m.Start(context.Background()); err == nil {
		m.Stop()
		t.Fatal("expected Start to fail without stages")
	}
}

func TestReclaimStaleItemsRollsBack(t *testing.T) {
	store := newFakeStore()
	stale := time.Now().Add(-time.Hour).UTC()
	store.add(&queue.Item{ID: "stuck", Status: queue.StatusTranscribing, LastHeartbeat: &stale})

	monitor := NewHeartbeatMonitor(store, logging.NewNop(), time.Second, time.Minute)
	transitions := map[queue.Status]queue.Status{queue.StatusTranscribing: queue.StatusCommentsFetched}
	if err := monitor.ReclaimStaleItems(context.Background(), logging.NewNop(), transitions); err != nil {
		t.Fatalf("ReclaimStaleItems: %v", err)
	}
	if got := store.get("stuck"); got.Status != queue.StatusCommentsFetched {
		t.Fatalf("expected rollback to comments_fetched, got %s", got.Status)
	}
}

func TestStatusReportsStageHealth(t *testing.T) {
	store := newFakeStore()
	store.add(&queue.Item{ID: "item-1", Status: queue.StatusPending})

	m := newTestManager(store, nil)
	set, handlers := fullStageSet()
	handlers["renderer"].healthy = false
	m.ConfigureStages(set)

	summary := m.Status(context.Background())
	if summary.Running {
		t.Fatal("manager should not report running before Start")
	}
	if summary.QueueStats[queue.StatusPending] != 1 {
		t.Fatalf("unexpected queue stats %v", summary.QueueStats)
	}
	if summary.StageHealth["renderer"].Ready {
		t.Fatal("renderer health should be unhealthy")
	}
	if !summary.StageHealth["downloader"].Ready {
		t.Fatal("downloader health should be ready")
	}
}

func TestDeriveStageLabel(t *testing.T) {
	if got := deriveStageLabel(queue.StatusFetchingComments); got != "Fetching Comments" {
		t.Fatalf("deriveStageLabel = %q", got)
	}
}
