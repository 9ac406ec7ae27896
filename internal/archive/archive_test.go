package archive_test

import (
	"context"
	"path/filepath"
	"testing"

	"ytproc/internal/archive"
)

func openStore(t *testing.T) *archive.Store {
	t.Helper()
	store, err := archive.Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndLookup(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	entry := archive.Entry{
		VideoID:       "dQw4w9WgXcQ",
		VideoURL:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Title:         "Test Video",
		VideoFile:     "/downloads/dQw4w9WgXcQ.mp4",
		ThumbnailFile: "/downloads/dQw4w9WgXcQ.jpg",
		Quality:       "1080p",
	}
	if err := store.Record(ctx, entry); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := store.Lookup(ctx, "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got == nil {
		t.Fatal("expected entry")
	}
	if got.VideoFile != entry.VideoFile || got.Title != entry.Title {
		t.Fatalf("unexpected entry %+v", got)
	}
	if got.DownloadedAt.IsZero() {
		t.Fatal("expected downloaded_at to be stamped")
	}
}

func TestLookupMissingReturnsNil(t *testing.T) {
	store := openStore(t)
	got, err := store.Lookup(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestRecordUpserts(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first := archive.Entry{VideoID: "abc", VideoURL: "https://youtu.be/abc", VideoFile: "/old.mp4", Quality: "720p"}
	if err := store.Record(ctx, first); err != nil {
		t.Fatalf("Record: %v", err)
	}
	second := first
	second.VideoFile = "/new.mp4"
	second.Quality = "1080p"
	if err := store.Record(ctx, second); err != nil {
		t.Fatalf("Record upsert: %v", err)
	}

	got, err := store.Lookup(ctx, "abc")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.VideoFile != "/new.mp4" || got.Quality != "1080p" {
		t.Fatalf("upsert did not replace fields: %+v", got)
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected single row, got %d", count)
	}
}

func TestRecordRequiresVideoID(t *testing.T) {
	store := openStore(t)
	if err := store.Record(context.Background(), archive.Entry{VideoURL: "https://youtu.be/x"}); err == nil {
		t.Fatal("expected error for missing video id")
	}
}

func TestRemove(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, archive.Entry{VideoID: "gone", VideoURL: "u", VideoFile: "f"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Remove(ctx, "gone"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	got, err := store.Lookup(ctx, "gone")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got != nil {
		t.Fatal("entry should be removed")
	}
	if err := store.Remove(ctx, "absent"); err != nil {
		t.Fatalf("Remove absent: %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.db")
	ctx := context.Background()

	store, err := archive.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Record(ctx, archive.Entry{VideoID: "keep", VideoURL: "u", VideoFile: "f"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := archive.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Lookup(ctx, "keep")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got == nil {
		t.Fatal("expected entry to survive reopen")
	}
}
