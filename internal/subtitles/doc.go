// Package subtitles implements SRT parsing, formatting, and the line-splitting
// rules applied before translation.
//
// Splitting cascades through sentence punctuation, clause punctuation, word
// boundaries, and finally hard cuts, so every cue fits the configured maximum
// line length. When a cue is split, its time range is redistributed across the
// fragments proportionally to their text length.
package subtitles
