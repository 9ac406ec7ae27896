package queue

import (
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  Status
		ok    bool
	}{
		{"pending", StatusPending, true},
		{" Completed ", StatusCompleted, true},
		{"FETCHING_COMMENTS", StatusFetchingComments, true},
		{"", "", false},
		{"bogus", "bogus", false},
	}
	for _, tc := range cases {
		got, ok := ParseStatus(tc.input)
		if ok != tc.ok {
			t.Fatalf("ParseStatus(%q) ok = %v, want %v", tc.input, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("ParseStatus(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestProcessingStatuses(t *testing.T) {
	want := map[Status]bool{
		StatusDownloading:      true,
		StatusFetchingComments: true,
		StatusTranscribing:     true,
		StatusTranslating:      true,
		StatusRendering:        true,
		StatusPublishing:       true,
	}
	got := ProcessingStatuses()
	if len(got) != len(want) {
		t.Fatalf("expected %d processing statuses, got %v", len(want), got)
	}
	for _, status := range got {
		if !want[status] {
			t.Fatalf("unexpected processing status %q", status)
		}
	}
	if IsProcessingStatus(StatusPending) || IsProcessingStatus(StatusCompleted) {
		t.Fatal("terminal statuses must not be processing")
	}
}

func TestDefaultRollbacksCoverProcessingStatuses(t *testing.T) {
	rollbacks := DefaultRollbacks()
	for _, status := range ProcessingStatuses() {
		target, ok := rollbacks[status]
		if !ok {
			t.Fatalf("no rollback for %q", status)
		}
		if IsProcessingStatus(target) {
			t.Fatalf("rollback target %q for %q is itself processing", target, status)
		}
	}
	if len(rollbacks) != len(ProcessingStatuses()) {
		t.Fatalf("rollback map has extra entries: %v", rollbacks)
	}
}

func TestInitProgressPreservesExistingStage(t *testing.T) {
	item := &Item{ProgressStage: "Downloading", ErrorMessage: "old failure"}
	item.InitProgress("Transcribing", "starting")
	if item.ProgressStage != "Downloading" {
		t.Fatalf("existing stage should be preserved, got %q", item.ProgressStage)
	}
	if item.ErrorMessage != "" {
		t.Fatal("error message should be cleared")
	}
	if item.ProgressPercent != 0 || item.ProgressMessage != "starting" {
		t.Fatalf("unexpected progress %v %q", item.ProgressPercent, item.ProgressMessage)
	}

	fresh := &Item{}
	fresh.InitProgress("Downloading", "queued")
	if fresh.ProgressStage != "Downloading" {
		t.Fatalf("empty stage should take the new value, got %q", fresh.ProgressStage)
	}
}

func TestSetFailed(t *testing.T) {
	now := time.Now()
	item := &Item{Status: StatusTranslating, LastHeartbeat: &now, ProgressPercent: 42}
	item.SetFailed("translation broke")
	if item.Status != StatusFailed {
		t.Fatalf("expected failed status, got %q", item.Status)
	}
	if item.LastHeartbeat != nil {
		t.Fatal("heartbeat should be cleared")
	}
	if item.ErrorMessage != "translation broke" || item.ProgressMessage != "translation broke" {
		t.Fatalf("unexpected messages %q %q", item.ErrorMessage, item.ProgressMessage)
	}
	if item.ProgressPercent != 0 {
		t.Fatalf("progress should reset, got %v", item.ProgressPercent)
	}
}

func TestSetProgressComplete(t *testing.T) {
	item := &Item{}
	item.SetProgressComplete("Rendering", "done")
	if item.ProgressPercent != 100 || item.ProgressStage != "Rendering" || item.ProgressMessage != "done" {
		t.Fatalf("unexpected progress %+v", item)
	}
}
