package vectorstore

import (
	"strings"
	"testing"
)

func TestChunkTextEmpty(t *testing.T) {
	if got := ChunkText(""); got != nil {
		t.Errorf("expected nil for empty text, got %v", got)
	}
}

func TestChunkTextSingleShortParagraph(t *testing.T) {
	chunks := ChunkText("A short paragraph.")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Index != 0 {
		t.Errorf("expected index 0, got %d", chunks[0].Index)
	}
}

func TestChunkTextIndicesAreContiguous(t *testing.T) {
	var paragraphs []string
	for i := 0; i < 20; i++ {
		paragraphs = append(paragraphs, strings.Repeat("word ", 30))
	}
	text := strings.Join(paragraphs, "\n\n")

	chunks := ChunkText(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks from long text, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d, want contiguous index", i, c.Index)
		}
	}
}

func TestChunkTextOverlapCarriesTail(t *testing.T) {
	paragraphs := make([]string, 10)
	for i := range paragraphs {
		paragraphs[i] = strings.Repeat("x", 100)
	}
	text := strings.Join(paragraphs, "\n\n")

	chunks := ChunkText(text)
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if !strings.HasPrefix(chunks[1].Text, "x") {
		t.Error("expected second chunk to begin with overlap tail from the first")
	}
}

func TestBuildDocumentIncludesAllFields(t *testing.T) {
	got := BuildDocument("Budget 2024", "Annual report", "full text here")
	for _, want := range []string{"Title: Budget 2024", "Description: Annual report", "Content: full text here"} {
		if !strings.Contains(got, want) {
			t.Errorf("BuildDocument() missing %q in %q", want, got)
		}
	}
}

func TestOverlapTailShortText(t *testing.T) {
	if got := overlapTail("short", 50); got != "short" {
		t.Errorf("overlapTail() = %q, want unchanged short text", got)
	}
}
