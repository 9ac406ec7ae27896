package workflow

import "ytproc/internal/queue"

// ConfigureStages registers the concrete stage handlers the workflow will run.
// The status ladder re-links around absent stages: without a comment fetcher
// the transcriber picks up downloaded items directly, and without a publisher
// the renderer completes the item.
func (m *Manager) ConfigureStages(set StageSet) {
	foreground := &laneState{kind: laneForeground, name: "foreground", notificationsEnabled: true}
	background := &laneState{kind: laneBackground, name: "background"}

	if set.Downloader != nil {
		foreground.stages = append(foreground.stages, pipelineStage{
			name:             "downloader",
			handler:          set.Downloader,
			startStatus:      queue.StatusPending,
			processingStatus: queue.StatusDownloading,
			doneStatus:       queue.StatusDownloaded,
		})
	}
	transcriberStart := queue.StatusDownloaded
	if set.CommentFetcher != nil {
		foreground.stages = append(foreground.stages, pipelineStage{
			name:             "comment-fetcher",
			handler:          set.CommentFetcher,
			startStatus:      queue.StatusDownloaded,
			processingStatus: queue.StatusFetchingComments,
			doneStatus:       queue.StatusCommentsFetched,
		})
		transcriberStart = queue.StatusCommentsFetched
	}
	if set.Transcriber != nil {
		background.stages = append(background.stages, pipelineStage{
			name:             "transcriber",
			handler:          set.Transcriber,
			startStatus:      transcriberStart,
			processingStatus: queue.StatusTranscribing,
			doneStatus:       queue.StatusTranscribed,
		})
	}
	if set.Translator != nil {
		background.stages = append(background.stages, pipelineStage{
			name:             "translator",
			handler:          set.Translator,
			startStatus:      queue.StatusTranscribed,
			processingStatus: queue.StatusTranslating,
			doneStatus:       queue.StatusTranslated,
		})
	}
	rendererDone := queue.StatusRendered
	if set.Publisher == nil {
		rendererDone = queue.StatusCompleted
	}
	if set.Renderer != nil {
		background.stages = append(background.stages, pipelineStage{
			name:             "renderer",
			handler:          set.Renderer,
			startStatus:      queue.StatusTranslated,
			processingStatus: queue.StatusRendering,
			doneStatus:       rendererDone,
		})
	}
	if set.Publisher != nil {
		background.stages = append(background.stages, pipelineStage{
			name:             "publisher",
			handler:          set.Publisher,
			startStatus:      queue.StatusRendered,
			processingStatus: queue.StatusPublishing,
			doneStatus:       queue.StatusCompleted,
		})
	}

	lanes := make(map[laneKind]*laneState)
	order := make([]laneKind, 0, 2)

	if len(foreground.stages) > 0 {
		foreground.finalize()
		lanes[foreground.kind] = foreground
		order = append(order, foreground.kind)
	}
	if len(background.stages) > 0 {
		background.finalize()
		lanes[background.kind] = background
		order = append(order, background.kind)
	}

	for _, lane := range lanes {
		lane.runReclaimer = len(lane.rollbacks) > 0
	}

	m.mu.Lock()
	m.lanes = lanes
	m.laneOrder = order
	m.mu.Unlock()
}

// Rollbacks returns the effective processing-to-start transitions across all
// configured lanes. Unlike queue.DefaultRollbacks this reflects a re-linked
// ladder, so a reset never strands an item in a status no lane polls.
func (m *Manager) Rollbacks() map[queue.Status]queue.Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	transitions := make(map[queue.Status]queue.Status)
	for _, kind := range m.laneOrder {
		lane := m.lanes[kind]
		if lane == nil {
			continue
		}
		for from, to := range lane.rollbacks {
			transitions[from] = to
		}
	}
	return transitions
}
