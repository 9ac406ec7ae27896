// Package workflow advances queue items through the configured processing
// stages.
//
// The Manager polls the queue, reclaims stale work via heartbeats, and feeds
// items into registered stage handlers (downloader, comment fetcher,
// transcriber, translator, renderer, publisher) while capturing progress and
// failure metadata. It also aggregates queue stats and calls stage health
// checks.
//
// The workflow runs two independent lanes: foreground (downloading, comment
// fetching) and background (transcription, translation, rendering,
// publishing). Each lane polls for items matching its statuses and processes
// them independently, so video B can download while video A transcribes.
//
// Add new lifecycle stages by extending StageSet, updating the queue status
// enums, and teaching the manager how to transition items; this package is the
// authoritative home for that coordination logic.
package workflow
