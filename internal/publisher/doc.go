// Package publisher implements the publishing stage.
//
// The rendered final video is uploaded to every enabled publish target as a
// multipart POST with bearer authentication. Uploads are idempotent per
// target: a URL already recorded on the item is not re-uploaded, so a retry
// after a partial failure only touches the targets that failed.
package publisher
