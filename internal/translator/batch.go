package translator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Batch is a numbered group of subtitle lines sent to the model in one
// request. Offset is the zero-based index of the first line in the full list.
type Batch struct {
	Offset int
	Lines  []string
}

// BuildBatches groups lines into batches of at most maxChars total characters
// and maxLines lines. A single oversized line still forms its own batch.
func BuildBatches(lines []string, maxChars, maxLines int) []Batch {
	if maxLines <= 0 {
		maxLines = 1
	}
	var batches []Batch
	var current []string
	currentChars := 0
	offset := 0

	flush := func(next int) {
		if len(current) > 0 {
			batches = append(batches, Batch{Offset: offset, Lines: current})
		}
		current = nil
		currentChars = 0
		offset = next
	}

	for i, line := range lines {
		lineChars := utf8.RuneCountInString(line)
		if len(current) > 0 && (len(current) >= maxLines || (maxChars > 0 && currentChars+lineChars > maxChars)) {
			flush(i)
		}
		current = append(current, line)
		currentChars += lineChars
	}
	flush(len(lines))
	return batches
}

// Format renders the batch as numbered lines, one per subtitle line,
// numbering from 1 within the batch.
func (b Batch) Format() string {
	var builder strings.Builder
	for i, line := range b.Lines {
		fmt.Fprintf(&builder, "%d. %s\n", i+1, line)
	}
	return strings.TrimRight(builder.String(), "\n")
}

var numberedLine = regexp.MustCompile(`^\s*(\d+)\s*[.、．:：]\s*(.*)$`)

// ParseNumbered extracts translated lines from a numbered reply. The result
// always has count entries aligned by the leading numbers; lines the model
// skipped or misnumbered stay empty. A continuation line without a number is
// appended to the previous entry.
func ParseNumbered(reply string, count int) []string {
	result := make([]string, count)
	last := -1
	for _, raw := range strings.Split(reply, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		match := numberedLine.FindStringSubmatch(line)
		if match == nil {
			if last >= 0 && last < count {
				result[last] = strings.TrimSpace(result[last] + " " + line)
			}
			continue
		}
		index, err := strconv.Atoi(match[1])
		if err != nil || index < 1 || index > count {
			last = -1
			continue
		}
		result[index-1] = strings.TrimSpace(match[2])
		last = index - 1
	}
	return result
}
