package translator

import (
	"strings"
	"testing"
)

func TestBuildBatchesRespectsLineLimit(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "e"}
	batches := BuildBatches(lines, 1000, 2)
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %+v", batches)
	}
	if batches[0].Offset != 0 || batches[1].Offset != 2 || batches[2].Offset != 4 {
		t.Fatalf("unexpected offsets %+v", batches)
	}
	if len(batches[2].Lines) != 1 || batches[2].Lines[0] != "e" {
		t.Fatalf("unexpected last batch %+v", batches[2])
	}
}

func TestBuildBatchesRespectsCharLimit(t *testing.T) {
	lines := []string{
		strings.Repeat("x", 30),
		strings.Repeat("y", 30),
		strings.Repeat("z", 30),
	}
	batches := BuildBatches(lines, 60, 100)
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}
	if len(batches[0].Lines) != 2 || len(batches[1].Lines) != 1 {
		t.Fatalf("unexpected batch sizes %+v", batches)
	}
}

func TestBuildBatchesOversizedLineFormsOwnBatch(t *testing.T) {
	lines := []string{"short", strings.Repeat("長", 100), "after"}
	batches := BuildBatches(lines, 50, 10)
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %+v", batches)
	}
}

func TestBatchFormat(t *testing.T) {
	batch := Batch{Offset: 10, Lines: []string{"hello there", "second line"}}
	want := "1. hello there\n2. second line"
	if got := batch.Format(); got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
}

func TestParseNumbered(t *testing.T) {
	reply := "1. 你好\n2. 世界\n3. 再见"
	got := ParseNumbered(reply, 3)
	want := []string{"你好", "世界", "再见"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseNumberedBackfillsMissing(t *testing.T) {
	reply := "1. first\n3. third"
	got := ParseNumbered(reply, 3)
	if got[0] != "first" || got[1] != "" || got[2] != "third" {
		t.Fatalf("unexpected result %v", got)
	}
}

func TestParseNumberedIgnoresOutOfRangeNumbers(t *testing.T) {
	reply := "1. ok\n7. stray\n2. fine"
	got := ParseNumbered(reply, 2)
	if got[0] != "ok" || got[1] != "fine" {
		t.Fatalf("unexpected result %v", got)
	}
}

func TestParseNumberedHandlesCJKSeparators(t *testing.T) {
	reply := "1。这是错误格式\n1．第一行\n2：第二行"
	got := ParseNumbered(reply, 2)
	if got[0] != "第一行" || got[1] != "第二行" {
		t.Fatalf("unexpected result %v", got)
	}
}

func TestParseNumberedAppendsContinuationLines(t *testing.T) {
	reply := "1. first part\nwraps onto next line\n2. second"
	got := ParseNumbered(reply, 2)
	if got[0] != "first part wraps onto next line" {
		t.Fatalf("unexpected continuation handling %q", got[0])
	}
	if got[1] != "second" {
		t.Fatalf("unexpected second line %q", got[1])
	}
}

func TestParseNumberedRoundTripsFormat(t *testing.T) {
	batch := Batch{Lines: []string{"one", "two", "three"}}
	got := ParseNumbered(batch.Format(), len(batch.Lines))
	for i, line := range batch.Lines {
		if got[i] != line {
			t.Fatalf("line %d = %q, want %q", i, got[i], line)
		}
	}
}
