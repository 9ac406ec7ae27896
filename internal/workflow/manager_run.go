package workflow

import (
	"context"
	"errors"
	"time"

	"ytproc/internal/logging"
)

// Start launches one goroutine per configured lane. It fails when called twice
// or before ConfigureStages.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}

	var lanes []*laneState
	for _, kind := range m.laneOrder {
		if lane := m.lanes[kind]; lane != nil && len(lane.statusOrder) > 0 {
			lane.logger = m.laneLogger(lane)
			lanes = append(lanes, lane)
		}
	}
	if len(lanes) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(len(lanes))
	m.mu.Unlock()

	for _, lane := range lanes {
		go m.runLane(runCtx, lane)
	}
	return nil
}

// Stop cancels lane goroutines and blocks until they exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) runLane(ctx context.Context, lane *laneState) {
	defer m.wg.Done()

	logger := lane.logger
	if logger == nil {
		logger = m.logger
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	for ctx.Err() == nil {
		if lane.runReclaimer {
			if err := m.heartbeat.ReclaimStaleItems(ctx, logger, lane.rollbacks); err != nil {
				logger.Warn("stale item reclaim failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "heartbeat_reclaim_failed"),
				)
			}
		}

		item, err := m.store.NextForStatuses(ctx, lane.statusOrder...)
		switch {
		case err != nil:
			m.setLastError(err)
			logger.Error("queue poll failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_fetch_failed"),
			)
			m.sleep(ctx, time.Duration(m.cfg.Workflow.ErrorRetryInterval)*time.Second)
		case item == nil:
			m.sleep(ctx, m.pollInterval)
		default:
			if err := m.processItem(ctx, lane, logger, item); errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
