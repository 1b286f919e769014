package utils

import (
	"strings"
	"testing"
)

func TestSplitTextShortInputIsOneChunk(t *testing.T) {
	chunks := SplitText("short", 100, 10)
	if len(chunks) != 1 || chunks[0] != "short" {
		t.Fatalf("chunks = %v", chunks)
	}
}

func TestSplitTextOverlapRepeatsBoundary(t *testing.T) {
	text := strings.Repeat("abcdefghij", 3) // 30 chars
	chunks := SplitText(text, 12, 4)

	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		tail := chunks[i-1][len(chunks[i-1])-4:]
		if !strings.HasPrefix(chunks[i], tail) {
			t.Errorf("chunk %d does not overlap its predecessor: %q vs %q", i, chunks[i], tail)
		}
	}
	joined := chunks[0]
	for i := 1; i < len(chunks); i++ {
		joined += chunks[i][4:]
	}
	if joined != text {
		t.Errorf("reassembled text = %q, want %q", joined, text)
	}
}

func TestSplitTextDegenerateOverlap(t *testing.T) {
	chunks := SplitText(strings.Repeat("x", 25), 10, 10)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 non-overlapping chunks, got %d: %v", len(chunks), chunks)
	}
}
