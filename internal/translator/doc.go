// Package translator implements the subtitle translation stage.
//
// Cues from the transcription SRT are grouped into batches bounded by
// max_segment_chars and max_segment_lines, sent to the configured
// chat-completions provider as numbered lines, and realigned strictly by the
// numbers in the reply. Lines the model drops come back empty rather than
// shifting later cues, so the translated SRT always has the same cue count and
// timing as its source.
package translator
