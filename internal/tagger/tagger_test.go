package tagger

import (
	"reflect"
	"testing"
)

func TestExtractFiltersStopWordsAndShortWords(t *testing.T) {
	text := "the quick brown fox and the lazy dog a an of"
	got := Extract(text, nil, 10)
	for _, tag := range got {
		if stopWords[tag] {
			t.Errorf("stop word %q leaked into tags: %v", tag, got)
		}
	}
}

func TestExtractFiltersBannedWords(t *testing.T) {
	text := "budget budget finance finance confidential confidential"
	banned := map[string]bool{"confidential": true}
	got := Extract(text, banned, 10)
	for _, tag := range got {
		if tag == "confidential" {
			t.Error("banned word should have been filtered")
		}
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	text := "alpha beta gamma alpha beta alpha"
	first := Extract(text, nil, 10)
	second := Extract(text, nil, 10)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("extraction is not deterministic: %v vs %v", first, second)
	}
	if first[0] != "alpha" {
		t.Errorf("expected most frequent word first, got %v", first)
	}
}

func TestExtractTieBreakIsAlphabetical(t *testing.T) {
	text := "zebra zebra apple apple mango mango"
	got := Extract(text, nil, 10)
	want := []string{"apple", "mango", "zebra"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tie-break ordering = %v, want %v", got, want)
	}
}

func TestExtractRespectsLimit(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	got := Extract(text, nil, 3)
	if len(got) != 3 {
		t.Errorf("expected 3 tags, got %d: %v", len(got), got)
	}
}

func TestFilterBannedTags(t *testing.T) {
	tags := []string{"finance", "Secret", "budget"}
	banned := map[string]bool{"secret": true}
	got := FilterBanned(tags, banned)
	want := []string{"finance", "budget"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FilterBanned() = %v, want %v", got, want)
	}
}

func TestFilterBannedTagsNoBanList(t *testing.T) {
	tags := []string{"a", "b"}
	got := FilterBanned(tags, nil)
	if !reflect.DeepEqual(got, tags) {
		t.Errorf("FilterBanned with nil ban list should pass through, got %v", got)
	}
}
