// Package vectorstore persists chunk embeddings keyed (document_id,
// chunk_index) with cosine search, backed by pgvector-go over pgx.
// Chunking is paragraph-based greedy accumulation with a sentence-aware
// overlap tail.
package vectorstore

import "strings"

const (
	targetChunkSize = 500
	overlapSize     = 50
)

// Chunk is a pre-embedding slice of a document's combined text.
type Chunk struct {
	Index int
	Text  string
}

// BuildDocument assembles the "Title:/Description:/Content:" blob
// from a document's fields, used as chunking input.
func BuildDocument(title, description, content string) string {
	var b strings.Builder
	if title != "" {
		b.WriteString("Title: ")
		b.WriteString(title)
		b.WriteString("\n\n")
	}
	if description != "" {
		b.WriteString("Description: ")
		b.WriteString(description)
		b.WriteString("\n\n")
	}
	b.WriteString("Content: ")
	b.WriteString(content)
	return b.String()
}

// ChunkText splits text into ~500-char chunks on paragraph boundaries,
// each new chunk seeded with a 50-char tail of the previous one for
// overlap.
func ChunkText(text string) []Chunk {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []Chunk
	var current strings.Builder

	emit := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Text: current.String()})
		tail := overlapTail(current.String(), overlapSize)
		current.Reset()
		if tail != "" {
			current.WriteString(tail)
		}
	}

	for _, p := range paragraphs {
		if current.Len() > 0 && current.Len()+len(p) > targetChunkSize {
			emit()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}
	emit()

	return chunks
}

func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// overlapTail returns the last overlapSize characters of text, trimmed
// back to a sentence boundary where one exists within the window.
func overlapTail(text string, size int) string {
	if len(text) <= size {
		return text
	}
	tail := text[len(text)-size:]
	if i := strings.IndexAny(tail, ".!?"); i >= 0 && i+1 < len(tail) {
		return strings.TrimSpace(tail[i+1:])
	}
	return tail
}
