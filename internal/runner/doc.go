// Package runner hosts the long-running service process.
//
// Run wires the queue store, stage handlers, and workflow manager together,
// enforces single-instance execution with a file lock, rotates per-run log
// files, and shuts everything down cleanly on SIGINT/SIGTERM.
package runner
