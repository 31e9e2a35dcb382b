package queue

import "testing"

func TestBuildSearchTextJoinsNonEmptyParts(t *testing.T) {
	got := buildSearchText("Budget 2024", "", "full ocr text")
	want := "Budget 2024\n\nfull ocr text"
	if got != want {
		t.Errorf("buildSearchText() = %q, want %q", got, want)
	}
}

func TestBuildSearchTextAllEmpty(t *testing.T) {
	if got := buildSearchText("", "  ", ""); got != "" {
		t.Errorf("buildSearchText() = %q, want empty", got)
	}
}
