// Package llm is the shared Gemini client used by the summariser, the
// RAG answerer, and the OCR engine's multimodal extraction path. It
// pairs a circuit breaker with a token-bucket rate limiter and exposes a
// single GenerateContent-style entry point, since every caller here is a
// one-shot completion.
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/haqnow/archive/internal/logger"
)

type Config struct {
	APIKey            string
	Model             string
	RequestsPerMinute int
}

// Client wraps a genai.Client with a circuit-breaker and rate-limiter
// pairing so every external LLM call degrades the same way.
type Client struct {
	genaiClient *genai.Client
	model       string
	breaker     *gobreaker.CircuitBreaker
	limiter     *rate.Limiter
}

var ErrCircuitOpen = errors.New("llm: circuit breaker open")

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	gc, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("llm: create genai client: %w", err)
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	breakerSettings := gobreaker.Settings{
		Name:        "llm-" + cfg.Model,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 3 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("llm circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &Client{
		genaiClient: gc,
		model:       cfg.Model,
		breaker:     gobreaker.NewCircuitBreaker(breakerSettings),
		limiter:     rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm),
	}, nil
}

func (c *Client) Close() error {
	return c.genaiClient.Close()
}

// Generate runs a single text-only completion with a fixed system
// instruction, used by the summariser, translator, and RAG answerer.
func (c *Client) Generate(ctx context.Context, systemInstruction, prompt string) (string, error) {
	return c.generate(ctx, systemInstruction, []genai.Part{genai.Text(prompt)})
}

// GenerateFromFile uploads raw bytes (a PDF page render or an image) and
// runs a multimodal completion, the pattern OCR extraction uses (grounded
// in services/pdf_extractor.go's extractWithGemini).
func (c *Client) GenerateFromFile(ctx context.Context, systemInstruction, prompt string, data []byte, mimeType string) (string, error) {
	file, err := c.genaiClient.UploadFile(ctx, "", bytes.NewReader(data), &genai.UploadFileOptions{MIMEType: mimeType})
	if err != nil {
		return "", fmt.Errorf("llm: upload file: %w", err)
	}
	defer c.genaiClient.DeleteFile(ctx, file.Name)

	return c.generate(ctx, systemInstruction, []genai.Part{
		genai.FileData{URI: file.URI},
		genai.Text(prompt),
	})
}

func (c *Client) generate(ctx context.Context, systemInstruction string, parts []genai.Part) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm: rate limiter: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		model := c.genaiClient.GenerativeModel(c.model)
		model.SetTemperature(0.2)
		if systemInstruction != "" {
			model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemInstruction)}}
		}

		resp, err := model.GenerateContent(ctx, parts...)
		if err != nil {
			return "", err
		}
		return extractText(resp), nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrCircuitOpen
		}
		return "", err
	}
	return result.(string), nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out += string(text)
		}
	}
	return out
}
