package workflow

import (
	"log/slog"

	"ytproc/internal/queue"
	"ytproc/internal/stage"
)

// StageSet bundles the concrete workflow handlers the manager orchestrates.
// A nil handler removes that stage and the ladder re-links around it.
type StageSet struct {
	Downloader     stage.Handler
	CommentFetcher stage.Handler
	Transcriber    stage.Handler
	Translator     stage.Handler
	Renderer       stage.Handler
	Publisher      stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
}

type laneKind string

const (
	laneForeground laneKind = "foreground"
	laneBackground laneKind = "background"
)

type laneState struct {
	kind                 laneKind
	name                 string
	stages               []pipelineStage
	statusOrder          []queue.Status
	stageByStart         map[queue.Status]pipelineStage
	rollbacks            map[queue.Status]queue.Status
	logger               *slog.Logger
	notificationsEnabled bool
	runReclaimer         bool
}

func (l *laneState) finalize() {
	if l == nil {
		return
	}
	l.stageByStart = make(map[queue.Status]pipelineStage, len(l.stages))
	l.statusOrder = make([]queue.Status, 0, len(l.stages))
	l.rollbacks = make(map[queue.Status]queue.Status, len(l.stages))
	for _, stg := range l.stages {
		l.stageByStart[stg.startStatus] = stg
		l.statusOrder = append(l.statusOrder, stg.startStatus)
		if stg.processingStatus != "" {
			l.rollbacks[stg.processingStatus] = stg.startStatus
		}
	}
}

func (l *laneState) stageForStatus(status queue.Status) (pipelineStage, bool) {
	if l == nil {
		return pipelineStage{}, false
	}
	stg, ok := l.stageByStart[status]
	return stg, ok
}
