package subtitles

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Punctuation classes used by the splitting cascade. Sentence-final marks are
// preferred break points; clause marks are the fallback.
const (
	sentencePunct = "。！？.!?…"
	clausePunct   = "，,；;、"
)

const (
	splitBySentence = iota
	splitByClause
	splitBySpace
	splitHard
)

// SplitText breaks text into fragments no longer than maxLen runes, preferring
// sentence-final punctuation, then clause punctuation, then spaces, and hard
// cuts only as a last resort.
func SplitText(text string, maxLen int) []string {
	trimmed := strings.Join(strings.Fields(text), " ")
	if trimmed == "" {
		return nil
	}
	if maxLen <= 0 || utf8.RuneCountInString(trimmed) <= maxLen {
		return []string{trimmed}
	}
	return splitWith(trimmed, maxLen, splitBySentence)
}

func splitWith(text string, maxLen, strategy int) []string {
	if utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}
	if strategy == splitHard {
		return hardCut(text, maxLen)
	}

	var pieces []string
	switch strategy {
	case splitBySentence:
		pieces = splitAfterAny(text, sentencePunct)
	case splitByClause:
		pieces = splitAfterAny(text, clausePunct)
	case splitBySpace:
		pieces = strings.Fields(text)
	}
	if len(pieces) < 2 {
		return splitWith(text, maxLen, strategy+1)
	}

	joiner := ""
	if strategy == splitBySpace {
		joiner = " "
	}
	lines := packPieces(pieces, maxLen, joiner)

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > maxLen {
			out = append(out, splitWith(line, maxLen, strategy+1)...)
		} else {
			out = append(out, line)
		}
	}
	return out
}

// splitAfterAny cuts text after each rune in delims, keeping the delimiter
// attached to the preceding fragment. Surrounding whitespace is preserved so
// fragments packed back together keep their original spacing.
func splitAfterAny(text, delims string) []string {
	var pieces []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if strings.ContainsRune(delims, r) {
			if piece := current.String(); strings.TrimSpace(piece) != "" {
				pieces = append(pieces, piece)
			}
			current.Reset()
		}
	}
	if rest := current.String(); strings.TrimSpace(rest) != "" {
		pieces = append(pieces, rest)
	}
	return pieces
}

// packPieces greedily accumulates pieces into lines of at most maxLen runes.
// Oversized single pieces pass through for the next strategy to handle.
func packPieces(pieces []string, maxLen int, joiner string) []string {
	var lines []string
	var current string
	for _, piece := range pieces {
		if current == "" {
			current = piece
			continue
		}
		candidate := current + joiner + piece
		if utf8.RuneCountInString(strings.TrimSpace(candidate)) <= maxLen {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = piece
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

func hardCut(text string, maxLen int) []string {
	runes := []rune(text)
	lines := make([]string, 0, (len(runes)+maxLen-1)/maxLen)
	for start := 0; start < len(runes); start += maxLen {
		end := start + maxLen
		if end > len(runes) {
			end = len(runes)
		}
		lines = append(lines, strings.TrimSpace(string(runes[start:end])))
	}
	return lines
}

// SplitCues applies SplitText to every cue, redistributing each split cue's
// time range across its fragments proportionally to fragment length. Cue
// indexes are renumbered sequentially.
func SplitCues(cues []Cue, maxLen int) []Cue {
	out := make([]Cue, 0, len(cues))
	for _, cue := range cues {
		fragments := SplitText(cue.Text, maxLen)
		switch len(fragments) {
		case 0:
			continue
		case 1:
			cue.Text = fragments[0]
			cue.Index = len(out) + 1
			out = append(out, cue)
			continue
		}

		total := 0
		for _, frag := range fragments {
			total += utf8.RuneCountInString(frag)
		}
		duration := cue.End - cue.Start
		start := cue.Start
		for i, frag := range fragments {
			end := cue.End
			if i < len(fragments)-1 {
				share := time.Duration(float64(duration) * float64(utf8.RuneCountInString(frag)) / float64(total))
				end = start + share
				if end > cue.End {
					end = cue.End
				}
			}
			out = append(out, Cue{
				Index: len(out) + 1,
				Start: start,
				End:   end,
				Text:  frag,
			})
			start = end
		}
	}
	return out
}
