// Package queue persists pipeline tasks in MongoDB and models their lifecycle.
//
// Each video travels a status ladder from pending through download, comment
// fetching, transcription, translation, rendering, and publishing to
// completed. Per-stage processing statuses carry a heartbeat so crashed or
// stalled work can be rolled back to the stage start status and resumed.
//
// The store keeps a compound index on (status, priority desc, created_at) so
// NextForStatuses returns the highest-priority oldest item for a lane.
package queue
