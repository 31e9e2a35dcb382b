package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/haqnow/archive/internal/llm"
)

const maxChunkChars = 4000

// Translator is the contract both the primary LLM-backed translator and
// the stateless HTTP fallback satisfy.
type Translator interface {
	Translate(ctx context.Context, text, sourceLanguage string) (string, error)
	// Healthy reports whether the translator is expected to be
	// reachable; checked once at startup.
	Healthy(ctx context.Context) bool
}

// LLMTranslator routes translation through the shared Gemini client.
type LLMTranslator struct {
	client *llm.Client
}

func NewLLMTranslator(client *llm.Client) *LLMTranslator {
	return &LLMTranslator{client: client}
}

func (t *LLMTranslator) Healthy(ctx context.Context) bool {
	return t.client != nil
}

func (t *LLMTranslator) Translate(ctx context.Context, text, sourceLanguage string) (string, error) {
	instruction := fmt.Sprintf("You are a precise translator. Translate the given %s text to English. Preserve paragraph breaks. Output only the translation, with no commentary.", sourceLanguage)
	return t.client.Generate(ctx, instruction, text)
}

// HTTPTranslator calls a configurable external translation microservice,
// a health-checked HTTP client wrapping an external service.
type HTTPTranslator struct {
	baseURL string
	http    *http.Client
}

func NewHTTPTranslator(baseURL string) *HTTPTranslator {
	return &HTTPTranslator{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *HTTPTranslator) Healthy(ctx context.Context) bool {
	if t.baseURL == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := t.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type translateRequest struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
}

type translateResponse struct {
	TranslatedText string `json:"translated_text"`
}

func (t *HTTPTranslator) Translate(ctx context.Context, text, sourceLanguage string) (string, error) {
	body, err := json.Marshal(translateRequest{Text: text, SourceLanguage: sourceLanguage, TargetLanguage: "english"})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("translator http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translator returned status %d", resp.StatusCode)
	}

	var out translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode translator response: %w", err)
	}
	return out.TranslatedText, nil
}

// chunkParagraphs splits text into chunks of at most maxChars characters,
// preserving paragraph boundaries where possible.
func chunkParagraphs(text string, maxChars int) []string {
	paragraphs := strings.Split(text, "\n\n")
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, p := range paragraphs {
		if current.Len() > 0 && current.Len()+len(p)+2 > maxChars {
			flush()
		}
		if len(p) > maxChars {
			flush()
			for len(p) > maxChars {
				chunks = append(chunks, p[:maxChars])
				p = p[maxChars:]
			}
			if len(p) > 0 {
				current.WriteString(p)
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}
	flush()
	return chunks
}

// latinRatio returns the fraction of letters that are basic Latin
// letters, used to detect a translation that silently failed and
// returned untranslated source text.
func latinRatio(text string) float64 {
	var letters, latin int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			latin++
		}
	}
	if letters == 0 {
		return 1.0
	}
	return float64(latin) / float64(letters)
}
