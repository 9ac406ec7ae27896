package subtitles_test

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"ytproc/internal/subtitles"
)

func TestSplitTextShortPassesThrough(t *testing.T) {
	got := subtitles.SplitText("short line", 40)
	if len(got) != 1 || got[0] != "short line" {
		t.Fatalf("unexpected result %v", got)
	}
}

func TestSplitTextPrefersSentencePunctuation(t *testing.T) {
	text := "This is the first sentence. This is the second one!"
	got := subtitles.SplitText(text, 30)
	if len(got) != 2 {
		t.Fatalf("expected 2 fragments, got %v", got)
	}
	if got[0] != "This is the first sentence." {
		t.Fatalf("unexpected first fragment %q", got[0])
	}
	if got[1] != "This is the second one!" {
		t.Fatalf("unexpected second fragment %q", got[1])
	}
}

func TestSplitTextCJKSentences(t *testing.T) {
	text := "这是第一句话。这是第二句话！这是第三句话？"
	got := subtitles.SplitText(text, 8)
	want := []string{"这是第一句话。", "这是第二句话！", "这是第三句话？"}
	if len(got) != len(want) {
		t.Fatalf("expected %d fragments, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fragment %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplitTextFallsBackToClausePunctuation(t *testing.T) {
	text := "first clause without any period, second clause right here, third one"
	got := subtitles.SplitText(text, 35)
	if len(got) < 2 {
		t.Fatalf("expected multiple fragments, got %v", got)
	}
	for _, frag := range got {
		if utf8.RuneCountInString(frag) > 35 {
			t.Fatalf("fragment %q exceeds limit", frag)
		}
	}
	if !strings.HasSuffix(got[0], ",") {
		t.Fatalf("expected clause delimiter kept on fragment, got %q", got[0])
	}
}

func TestSplitTextFallsBackToSpaces(t *testing.T) {
	text := "plenty of words but not a single punctuation mark anywhere in sight"
	got := subtitles.SplitText(text, 25)
	if len(got) < 2 {
		t.Fatalf("expected multiple fragments, got %v", got)
	}
	for _, frag := range got {
		if utf8.RuneCountInString(frag) > 25 {
			t.Fatalf("fragment %q exceeds limit", frag)
		}
	}
	if strings.Join(got, " ") != text {
		t.Fatalf("space splitting lost content: %v", got)
	}
}

func TestSplitTextHardCut(t *testing.T) {
	text := strings.Repeat("嗨", 50)
	got := subtitles.SplitText(text, 20)
	if len(got) != 3 {
		t.Fatalf("expected 3 fragments, got %d", len(got))
	}
	for _, frag := range got {
		if utf8.RuneCountInString(frag) > 20 {
			t.Fatalf("fragment %q exceeds limit", frag)
		}
	}
}

func TestSplitTextNeverExceedsLimit(t *testing.T) {
	inputs := []string{
		"A long English sentence, with clauses, and spaces, that keeps going and going until it finally stops.",
		"无标点" + strings.Repeat("字", 100),
		"mixed 中文 and English, 标点在这里。还有更多的文字需要处理!",
	}
	for _, text := range inputs {
		for _, limit := range []int{12, 20, 40} {
			for _, frag := range subtitles.SplitText(text, limit) {
				if utf8.RuneCountInString(frag) > limit {
					t.Fatalf("limit %d violated by %q (input %q)", limit, frag, text)
				}
			}
		}
	}
}

func TestSplitCuesRedistributesTime(t *testing.T) {
	cues := []subtitles.Cue{
		{
			Index: 1,
			Start: 0,
			End:   10 * time.Second,
			Text:  "First sentence here. Second sentence follows after it.",
		},
	}
	out := subtitles.SplitCues(cues, 25)
	if len(out) < 2 {
		t.Fatalf("expected cue to split, got %v", out)
	}
	if out[0].Start != 0 {
		t.Fatalf("first fragment should keep original start, got %v", out[0].Start)
	}
	if out[len(out)-1].End != 10*time.Second {
		t.Fatalf("last fragment should keep original end, got %v", out[len(out)-1].End)
	}
	for i := 1; i < len(out); i++ {
		if out[i].Start != out[i-1].End {
			t.Fatalf("fragments not contiguous at %d: %v vs %v", i, out[i].Start, out[i-1].End)
		}
		if out[i].Index != i+1 {
			t.Fatalf("expected sequential index %d, got %d", i+1, out[i].Index)
		}
	}
	// Longer fragments get a proportionally longer share.
	if len(out) == 2 {
		first := out[0].End - out[0].Start
		second := out[1].End - out[1].Start
		firstLen := utf8.RuneCountInString(out[0].Text)
		secondLen := utf8.RuneCountInString(out[1].Text)
		if (firstLen > secondLen) != (first > second) {
			t.Fatalf("durations not proportional: %v/%v for lengths %d/%d", first, second, firstLen, secondLen)
		}
	}
}

func TestSplitCuesKeepsShortCuesIntact(t *testing.T) {
	cues := []subtitles.Cue{
		{Index: 9, Start: 0, End: time.Second, Text: "fine"},
		{Index: 10, Start: time.Second, End: 2 * time.Second, Text: "also fine"},
	}
	out := subtitles.SplitCues(cues, 40)
	if len(out) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(out))
	}
	if out[0].Index != 1 || out[1].Index != 2 {
		t.Fatalf("expected renumbered indexes, got %d %d", out[0].Index, out[1].Index)
	}
}

func TestSplitCuesDropsEmptyCues(t *testing.T) {
	cues := []subtitles.Cue{
		{Index: 1, Start: 0, End: time.Second, Text: "   "},
		{Index: 2, Start: time.Second, End: 2 * time.Second, Text: "kept"},
	}
	out := subtitles.SplitCues(cues, 40)
	if len(out) != 1 || out[0].Text != "kept" {
		t.Fatalf("unexpected cues %+v", out)
	}
}
