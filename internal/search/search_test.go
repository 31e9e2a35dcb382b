package search

import (
	"testing"
	"time"

	"github.com/haqnow/archive/internal/catalog"
)

func TestRedactReplacesWholeWordOnly(t *testing.T) {
	got := Redact("this spamword is not spamwordly", []string{"spamword"})
	want := "this ******** is not spamwordly"
	if got != want {
		t.Errorf("Redact() = %q, want %q", got, want)
	}
}

func TestRedactCaseInsensitive(t *testing.T) {
	got := Redact("SPAMWORD here", []string{"spamword"})
	if got != "******** here" {
		t.Errorf("Redact() = %q", got)
	}
}

func TestRedactNoBannedWords(t *testing.T) {
	if got := Redact("clean text", nil); got != "clean text" {
		t.Errorf("Redact() = %q, want unchanged", got)
	}
}

func TestClampParamsDefaults(t *testing.T) {
	p := clampParams(Params{})
	if p.Page != 1 {
		t.Errorf("Page = %d, want 1", p.Page)
	}
	if p.PerPage != defaultPerPage {
		t.Errorf("PerPage = %d, want %d", p.PerPage, defaultPerPage)
	}
	if p.Mode != ModeHybrid {
		t.Errorf("Mode = %q, want %q", p.Mode, ModeHybrid)
	}
}

func TestClampParamsBounds(t *testing.T) {
	p := clampParams(Params{Page: -5, PerPage: 500})
	if p.Page != 1 {
		t.Errorf("Page = %d, want clamped to 1", p.Page)
	}
	if p.PerPage != maxPerPage {
		t.Errorf("PerPage = %d, want clamped to %d", p.PerPage, maxPerPage)
	}
}

func TestMergeHybridPrefersSemanticOnDuplicate(t *testing.T) {
	semantic := []*catalog.Document{{ID: 1, Title: "semantic-version"}}
	keyword := []*catalog.Document{{ID: 1, Title: "keyword-version"}, {ID: 2, Title: "keyword-only"}}

	merged := mergeHybrid(semantic, keyword)
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged docs, got %d", len(merged))
	}
	if merged[0].Title != "semantic-version" {
		t.Errorf("expected semantic entry to win on duplicate id, got %q", merged[0].Title)
	}
}

func TestPaginateWithinBounds(t *testing.T) {
	docs := make([]*catalog.Document, 25)
	for i := range docs {
		docs[i] = &catalog.Document{ID: int64(i)}
	}
	page2 := paginate(docs, 2, 10)
	if len(page2) != 10 || page2[0].ID != 10 {
		t.Errorf("paginate page 2: got %d docs starting at %v", len(page2), page2[0].ID)
	}
}

func TestPaginateBeyondEnd(t *testing.T) {
	docs := []*catalog.Document{{ID: 1}, {ID: 2}}
	if got := paginate(docs, 10, 10); got != nil {
		t.Errorf("expected nil for out-of-range page, got %v", got)
	}
}

func TestPostProcessPromotesEnglishTranslation(t *testing.T) {
	d := &catalog.Document{
		ID:               1,
		DocumentLanguage: "french",
		OCRText:          "texte original",
		OCRTextEnglish:   "english text",
		CreatedAt:        time.Now(),
	}
	result := postProcess(d, 0, nil, nil)
	if result.OCRText != "english text" {
		t.Errorf("OCRText = %q, want promoted english text", result.OCRText)
	}
	if !result.HasEnglishTranslation {
		t.Error("expected HasEnglishTranslation true")
	}
}

func TestPostProcessFlagsArabic(t *testing.T) {
	d := &catalog.Document{ID: 1, DocumentLanguage: "arabic"}
	result := postProcess(d, 0, nil, nil)
	if !result.HasArabicText {
		t.Error("expected HasArabicText true for arabic document")
	}
}

func TestPostProcessFiltersBannedTags(t *testing.T) {
	d := &catalog.Document{ID: 1, GeneratedTags: []string{"finance", "classified"}}
	banned := map[string]bool{"classified": true}
	result := postProcess(d, 0, nil, banned)
	if len(result.GeneratedTags) != 1 || result.GeneratedTags[0] != "finance" {
		t.Errorf("GeneratedTags = %v, want [finance]", result.GeneratedTags)
	}
}
