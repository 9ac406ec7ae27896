package archive

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users then delete the archive database and let it rebuild.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Entry records a completed download.
type Entry struct {
	VideoID       string
	VideoURL      string
	Title         string
	VideoFile     string
	ThumbnailFile string
	Quality       string
	DownloadedAt  time.Time
}

// Store is the SQLite-backed download archive.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the archive database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the filesystem location of the archive database.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to rebuild)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Record upserts an archive entry for a completed download.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if entry.VideoID == "" {
		return errors.New("archive entry requires a video id")
	}
	if entry.DownloadedAt.IsZero() {
		entry.DownloadedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO downloads (video_id, video_url, title, video_file, thumbnail_file, quality, downloaded_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(video_id) DO UPDATE SET
    video_url = excluded.video_url,
    title = excluded.title,
    video_file = excluded.video_file,
    thumbnail_file = excluded.thumbnail_file,
    quality = excluded.quality,
    downloaded_at = excluded.downloaded_at`,
		entry.VideoID, entry.VideoURL, entry.Title, entry.VideoFile,
		entry.ThumbnailFile, entry.Quality, entry.DownloadedAt)
	if err != nil {
		return fmt.Errorf("record download: %w", err)
	}
	return nil
}

// Lookup returns the archive entry for a video ID, or nil when the video has
// not been downloaded.
func (s *Store) Lookup(ctx context.Context, videoID string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT video_id, video_url, title, video_file, thumbnail_file, quality, downloaded_at
FROM downloads WHERE video_id = ?`, videoID)

	var entry Entry
	err := row.Scan(&entry.VideoID, &entry.VideoURL, &entry.Title, &entry.VideoFile,
		&entry.ThumbnailFile, &entry.Quality, &entry.DownloadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup download: %w", err)
	}
	return &entry, nil
}

// Remove deletes the entry for a video ID. Removing an absent entry is not an
// error.
func (s *Store) Remove(ctx context.Context, videoID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM downloads WHERE video_id = ?", videoID); err != nil {
		return fmt.Errorf("remove download: %w", err)
	}
	return nil
}

// Count returns the number of archived downloads.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM downloads").Scan(&count); err != nil {
		return 0, fmt.Errorf("count downloads: %w", err)
	}
	return count, nil
}
