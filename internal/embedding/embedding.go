// Package embedding produces fixed-dimension L2-normalised dense vectors
// for documents and queries via genai's EmbeddingModel.
package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Dimension is fixed at 1024 and must match the vector(1024) columns in
// the catalog schema; changing it requires a column migration.
const Dimension = 1024

const maxInputChars = 5000

type Client struct {
	genaiClient *genai.Client
	model       string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	gc, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("embedding: create genai client: %w", err)
	}
	return &Client{genaiClient: gc, model: model}, nil
}

func (c *Client) Close() error {
	return c.genaiClient.Close()
}

// EmbedPassage embeds a document-side text with the `passage:` prefix.
// Returns nil on failure; callers skip rather than abort the pipeline.
func (c *Client) EmbedPassage(ctx context.Context, text string) []float32 {
	return c.embed(ctx, "passage: "+truncate(text))
}

// EmbedQuery embeds a search/RAG query with the `query:` prefix.
func (c *Client) EmbedQuery(ctx context.Context, text string) []float32 {
	return c.embed(ctx, "query: "+truncate(text))
}

func (c *Client) embed(ctx context.Context, prefixed string) []float32 {
	model := c.genaiClient.EmbeddingModel(c.model)
	resp, err := model.EmbedContent(ctx, genai.Text(prefixed))
	if err != nil || resp == nil || resp.Embedding == nil {
		return nil
	}
	return normalise(resp.Embedding.Values)
}

func truncate(text string) string {
	if len(text) <= maxInputChars {
		return text
	}
	return text[:maxInputChars]
}

// normalise L2-normalises a vector; embedding providers occasionally
// return vectors that are not already unit length.
func normalise(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := math.Sqrt(sumSq)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// CosineSimilarity is used by the in-process semantic search fallback and
// by tests; pgvector computes the same distance server-side for the
// persisted chunk search path.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
