package ocr

import "testing"

func TestResolveLanguageAlias(t *testing.T) {
	cases := map[string]string{
		"mandarin":   "chinese_simplified",
		"Burmese":    "myanmar",
		"persian":    "farsi",
		"french":     "french",
		"klingon":    "english",
		"  English ": "english",
	}
	for in, want := range cases {
		if got := ResolveLanguage(in); got != want {
			t.Errorf("ResolveLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsEnglish(t *testing.T) {
	if !IsEnglish("english") {
		t.Error("expected english to resolve as english")
	}
	if !IsEnglish("unknown-language-xyz") {
		t.Error("expected unknown language to fall back to english")
	}
	if IsEnglish("french") {
		t.Error("french should not resolve as english")
	}
}

func TestIsKnownLanguage(t *testing.T) {
	if !IsKnownLanguage("mandarin") {
		t.Error("mandarin alias should be known")
	}
	if IsKnownLanguage("klingon") {
		t.Error("klingon should not be known")
	}
}

func TestChunkParagraphsRespectsMaxChars(t *testing.T) {
	text := "para one.\n\npara two.\n\npara three."
	chunks := chunkParagraphs(text, 12)
	for _, c := range chunks {
		if len(c) > 12 {
			t.Errorf("chunk exceeds max length: %q (%d chars)", c, len(c))
		}
	}
}

func TestChunkParagraphsSplitsOversizedParagraph(t *testing.T) {
	text := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	chunks := chunkParagraphs(text, 10)
	var total int
	for _, c := range chunks {
		if len(c) > 10 {
			t.Errorf("chunk exceeds max length: %d", len(c))
		}
		total += len(c)
	}
	if total != len(text) {
		t.Errorf("chunking lost content: total %d, want %d", total, len(text))
	}
}

func TestLatinRatioAllLatin(t *testing.T) {
	if r := latinRatio("Hello world, this is English."); r != 1.0 {
		t.Errorf("latinRatio() = %f, want 1.0", r)
	}
}

func TestLatinRatioNonLatin(t *testing.T) {
	if r := latinRatio("日本語のテキストです"); r != 0.0 {
		t.Errorf("latinRatio() = %f, want 0.0", r)
	}
}

func TestLatinRatioMixed(t *testing.T) {
	r := latinRatio("abcd日本語")
	if r <= 0 || r >= 1 {
		t.Errorf("latinRatio() = %f, want value strictly between 0 and 1", r)
	}
}

func TestLatinRatioNoLetters(t *testing.T) {
	if r := latinRatio("12345 !!! ???"); r != 1.0 {
		t.Errorf("latinRatio() with no letters = %f, want 1.0 (vacuously true)", r)
	}
}
