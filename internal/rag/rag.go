// Package rag implements the retrieval-augmented question answering
// surface: embed the question, retrieve nearest chunks from
// the vector store, re-filter by current catalog approval state, assemble
// a grounded prompt, call the shared LLM client, and log the exchange.
package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/haqnow/archive/internal/catalog"
	"github.com/haqnow/archive/internal/embedding"
	"github.com/haqnow/archive/internal/llm"
	"github.com/haqnow/archive/internal/vectorstore"
)

const (
	topK              = 5
	chunkPreviewChars = 240
)

const systemInstruction = "You are an archive research assistant. Answer only using the provided " +
	"document excerpts. Cite the documents you draw from by title. If the excerpts do not contain " +
	"the answer, say so plainly instead of guessing."

const (
	noRelevantAnswer = "I could not find any relevant documents in the archive to answer this question."
	failureAnswer    = "Sorry, I was unable to generate an answer right now. Please try again later."
)

// Source is one retrieved chunk surfaced alongside the answer.
type Source struct {
	DocumentID    int64  `json:"document_id"`
	DocumentTitle string `json:"document_title"`
	Country       string `json:"country"`
	ChunkPreview  string `json:"chunk_preview"`
}

// Answer is the response shape for both /rag/question and
// /rag/document-question.
type Answer struct {
	QueryID        int64    `json:"query_id"`
	Answer         string   `json:"answer"`
	Sources        []Source `json:"sources"`
	Confidence     float64  `json:"confidence"`
	ResponseTimeMs int      `json:"response_time_ms"`
}

// Answerer ties together the vector store, catalog, embedder, and LLM
// client behind the answer(q, scope) operation.
type Answerer struct {
	catalogStore *catalog.Store
	vectorStore  *vectorstore.Store
	embedder     *embedding.Client
	llmClient    *llm.Client
}

func New(catalogStore *catalog.Store, vectorStore *vectorstore.Store, embedder *embedding.Client, llmClient *llm.Client) *Answerer {
	return &Answerer{catalogStore: catalogStore, vectorStore: vectorStore, embedder: embedder, llmClient: llmClient}
}

// Answer runs the full retrieval-augmented pipeline and logs the result.
// scope is nil for an archive-wide question, or a document id to restrict
// retrieval to.
func (a *Answerer) Answer(ctx context.Context, question string, scope *int64) *Answer {
	start := time.Now()
	result := a.answer(ctx, question, scope)
	result.ResponseTimeMs = int(time.Since(start).Milliseconds())

	id, err := a.catalogStore.RecordRAGQuery(ctx, &catalog.RAGQuery{
		QueryText:       question,
		AnswerText:      result.Answer,
		ConfidenceScore: result.Confidence,
		SourcesCount:    len(result.Sources),
		ResponseTimeMs:  result.ResponseTimeMs,
		DocumentID:      scope,
	})
	if err == nil {
		result.QueryID = id
	}
	return result
}

func (a *Answerer) answer(ctx context.Context, question string, scope *int64) *Answer {
	if a.embedder == nil || a.llmClient == nil {
		return &Answer{Answer: failureAnswer}
	}

	qv := a.embedder.EmbedQuery(ctx, question)
	if qv == nil {
		return &Answer{Answer: failureAnswer}
	}

	hits, err := a.vectorStore.SearchNearest(ctx, qv, topK, scope)
	if err != nil {
		return &Answer{Answer: failureAnswer}
	}

	retained := make([]vectorstore.SearchResult, 0, len(hits))
	for _, h := range hits {
		if _, err := a.catalogStore.GetApprovedDocument(ctx, h.DocumentID); err == nil {
			retained = append(retained, h)
		}
	}
	if len(retained) == 0 {
		return &Answer{Answer: noRelevantAnswer}
	}

	prompt := buildPrompt(question, retained)
	reply, err := a.llmClient.Generate(ctx, systemInstruction, prompt)
	if err != nil || strings.TrimSpace(reply) == "" {
		return &Answer{Answer: failureAnswer}
	}

	sources := make([]Source, len(retained))
	for i, r := range retained {
		sources[i] = Source{
			DocumentID:    r.DocumentID,
			DocumentTitle: r.DocumentTitle,
			Country:       r.DocumentCountry,
			ChunkPreview:  preview(r.Content, chunkPreviewChars),
		}
	}

	return &Answer{
		Answer:     strings.TrimSpace(reply),
		Sources:    sources,
		Confidence: confidence(len(retained)),
	}
}

func buildPrompt(question string, chunks []vectorstore.SearchResult) string {
	var b strings.Builder
	for _, c := range chunks {
		fmt.Fprintf(&b, "Document: %s (Country: %s)\nExcerpt: %s\n\n", c.DocumentTitle, c.DocumentCountry, c.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

// confidence is an opaque telemetry heuristic, never a user-facing
// guarantee of correctness: min(0.9, 0.3 +
// 0.1*retained).
func confidence(retained int) float64 {
	c := 0.3 + 0.1*float64(retained)
	if c > 0.9 {
		c = 0.9
	}
	return c
}

func preview(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
