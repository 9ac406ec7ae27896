package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Cue is a single subtitle entry. Text may span multiple lines.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// FormatTimestamp renders a duration as an SRT timestamp (HH:MM:SS,mmm).
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := d.Milliseconds()
	hours := total / 3_600_000
	minutes := (total % 3_600_000) / 60_000
	seconds := (total % 60_000) / 1000
	millis := total % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

// ParseTimestamp parses an SRT timestamp. A period is accepted in place of the
// comma since some generators emit it.
func ParseTimestamp(value string) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	normalized := strings.Replace(trimmed, ".", ",", 1)
	parts := strings.Split(normalized, ",")
	if len(parts) != 2 {
		return 0, fmt.Errorf("timestamp %q: missing millisecond separator", value)
	}
	clock := strings.Split(parts[0], ":")
	if len(clock) != 3 {
		return 0, fmt.Errorf("timestamp %q: expected HH:MM:SS", value)
	}
	hours, err := strconv.Atoi(clock[0])
	if err != nil {
		return 0, fmt.Errorf("timestamp %q: hours: %w", value, err)
	}
	minutes, err := strconv.Atoi(clock[1])
	if err != nil {
		return 0, fmt.Errorf("timestamp %q: minutes: %w", value, err)
	}
	seconds, err := strconv.Atoi(clock[2])
	if err != nil {
		return 0, fmt.Errorf("timestamp %q: seconds: %w", value, err)
	}
	millis, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("timestamp %q: milliseconds: %w", value, err)
	}
	if minutes > 59 || seconds > 59 || millis > 999 {
		return 0, fmt.Errorf("timestamp %q: component out of range", value)
	}
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

// Parse reads SRT cues from r. Cues are separated by blank lines; the index
// line is optional and re-derived from document order when absent.
func Parse(r io.Reader) ([]Cue, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var cues []Cue
	var block []string
	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		cue, err := parseBlock(block)
		if err != nil {
			return err
		}
		block = block[:0]
		cue.Index = len(cues) + 1
		cues = append(cues, cue)
		return nil
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		block = append(block, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return cues, nil
}

func parseBlock(lines []string) (Cue, error) {
	var cue Cue
	cursor := 0

	// Leading index line, if present.
	if _, err := strconv.Atoi(strings.TrimSpace(lines[cursor])); err == nil && len(lines) > cursor+1 {
		cursor++
	}
	if cursor >= len(lines) {
		return cue, fmt.Errorf("srt block %q: missing time range", strings.Join(lines, " "))
	}

	timing := lines[cursor]
	cursor++
	startRaw, endRaw, ok := strings.Cut(timing, "-->")
	if !ok {
		return cue, fmt.Errorf("srt block: invalid time range %q", timing)
	}
	start, err := ParseTimestamp(startRaw)
	if err != nil {
		return cue, err
	}
	end, err := ParseTimestamp(endRaw)
	if err != nil {
		return cue, err
	}
	if end < start {
		return cue, fmt.Errorf("srt block: end %s before start %s", FormatTimestamp(end), FormatTimestamp(start))
	}

	cue.Start = start
	cue.End = end
	cue.Text = strings.TrimSpace(strings.Join(lines[cursor:], "\n"))
	return cue, nil
}

// ParseFile reads and parses the SRT file at path.
func ParseFile(path string) ([]Cue, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open srt: %w", err)
	}
	defer file.Close()
	cues, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cues, nil
}

// Format renders cues as an SRT document. Indexes are rewritten sequentially.
func Format(cues []Cue) string {
	var sb strings.Builder
	for i, cue := range cues {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteByte('\n')
		sb.WriteString(FormatTimestamp(cue.Start))
		sb.WriteString(" --> ")
		sb.WriteString(FormatTimestamp(cue.End))
		sb.WriteByte('\n')
		sb.WriteString(strings.TrimSpace(cue.Text))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// WriteFile writes cues to path in SRT format.
func WriteFile(path string, cues []Cue) error {
	if err := os.WriteFile(path, []byte(Format(cues)), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}
