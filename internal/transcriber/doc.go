// Package transcriber implements the transcription stage.
//
// It uploads the downloaded media to a Whisper-compatible API and converts the
// returned segments into an SRT file next to the video. An existing SRT short
// circuits the stage so retried items never pay for a second transcription.
package transcriber
