package summariser

import (
	"strings"
	"testing"
)

func TestCleanReplyStripsThinkBlock(t *testing.T) {
	in := "<think>internal reasoning here</think>The final summary paragraph."
	got := cleanReply(in)
	if got != "The final summary paragraph." {
		t.Errorf("cleanReply() = %q", got)
	}
}

func TestCleanReplyNormalisesWhitespace(t *testing.T) {
	in := "This   has\n\nirregular   \twhitespace."
	got := cleanReply(in)
	want := "This has irregular whitespace."
	if got != want {
		t.Errorf("cleanReply() = %q, want %q", got, want)
	}
}

func TestCleanReplyEmptyAfterStrip(t *testing.T) {
	in := "<think>only reasoning, nothing else</think>"
	if got := cleanReply(in); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestTruncateWordsWithinLimit(t *testing.T) {
	in := "one two three"
	if got := truncateWords(in, 200); got != in {
		t.Errorf("truncateWords should not alter short text, got %q", got)
	}
}

func TestTruncateWordsOverLimit(t *testing.T) {
	words := make([]string, 250)
	for i := range words {
		words[i] = "word"
	}
	in := strings.Join(words, " ")
	got := truncateWords(in, 200)
	if n := len(strings.Fields(got)); n != 200 {
		t.Errorf("expected 200 words after truncation, got %d", n)
	}
}
