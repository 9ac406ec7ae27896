package testsupport

import (
	"context"
	"os"
	"testing"

	"ytproc/internal/config"
	"ytproc/internal/logging"
	"ytproc/internal/queue"
)

// MongoTestURI is the environment variable holding the MongoDB connection
// string for integration tests. Tests that need a real store skip when it is
// unset.
const MongoTestURI = "MONGO_TEST_URI"

// MustOpenStore opens a queue.Store against the test MongoDB and registers
// cleanup. The test is skipped when MONGO_TEST_URI is unset.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	uri := os.Getenv(MongoTestURI)
	if uri == "" {
		t.Skipf("%s not set; skipping store integration test", MongoTestURI)
	}
	cfg.Database.URI = uri
	cfg.Database.Name = "ytproc_test"

	store, err := queue.Open(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		_, _ = store.Clear(context.Background())
		store.Close()
	})
	return store
}

// NewVideo enqueues a video for tests using the provided store.
func NewVideo(t testing.TB, store *queue.Store, videoURL string) *queue.Item {
	t.Helper()

	item, err := store.NewVideo(context.Background(), videoURL, "", "", 5)
	if err != nil {
		t.Fatalf("store.NewVideo: %v", err)
	}
	return item
}
