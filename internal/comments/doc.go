// Package comments fetches top-level YouTube comments for a video.
//
// The client pages through the Data API v3 commentThreads endpoint under a
// rate limiter until max_comments are collected, then the stage handler writes
// them as a comments.json artifact next to the other pipeline outputs. The
// stage is optional; when disabled in configuration the workflow manager links
// the download stage directly to transcription.
package comments
