// Package whisper provides a client for OpenAI-compatible audio
// transcription endpoints.
//
// The client uploads media as multipart form data and requests verbose_json
// output so segment timings survive into the generated subtitles. Any server
// implementing the /audio/transcriptions contract works, including local
// whisper.cpp deployments.
package whisper
