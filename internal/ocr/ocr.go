// Package ocr implements the per-language OCR + English translation
// engine: multimodal extraction for scans, direct text extraction for
// machine-generated PDFs, chunked translation with an HTTP fallback.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/haqnow/archive/internal/llm"
)

const extractionSystemInstruction = `You are a precise document text extractor. Extract ALL text content from this file exactly as it appears, maintaining original formatting, line breaks, and structure. Do not summarise, interpret, or modify the content.`

// Origin classifies how a document's sanitised PDF was produced, which
// decides whether OCR runs at all: docx/xlsx/csv/plain-text/rtf inputs
// bypass OCR and yield text directly.
type Origin int

const (
	OriginScan Origin = iota // image or native PDF; needs OCR
	OriginText               // csv/xlsx/docx/txt/rtf rendered straight to PDF by the sanitiser
)

type Engine struct {
	llmClient    *llm.Client
	httpFallback Translator
	preferHTTP   bool // true once startup health check found the primary unhealthy
}

func NewEngine(llmClient *llm.Client, httpTranslatorBaseURL string) *Engine {
	return &Engine{
		llmClient:    llmClient,
		httpFallback: NewHTTPTranslator(httpTranslatorBaseURL),
	}
}

// CheckTranslatorHealth runs the startup availability probe that decides
// whether translation goes straight to the HTTP fallback.
func (e *Engine) CheckTranslatorHealth(ctx context.Context) {
	primary := NewLLMTranslator(e.llmClient)
	e.preferHTTP = !primary.Healthy(ctx)
}

// Result is the OCR/translate engine's output.
type Result struct {
	OriginalText string
	EnglishText  string
}

// Process runs OCR (if needed) then translation (if needed) on a
// sanitised PDF's bytes.
func (e *Engine) Process(ctx context.Context, pdfBytes []byte, origin Origin, declaredLanguage string) (*Result, error) {
	var original string
	var err error

	if origin == OriginText {
		// These formats are "always treated as English".
		original, err = extractPlainPDFText(pdfBytes)
		if err != nil {
			return nil, fmt.Errorf("ocr: extract text-origin pdf: %w", err)
		}
		return &Result{OriginalText: original, EnglishText: original}, nil
	}

	original = e.ocrExtract(ctx, pdfBytes)

	language := ResolveLanguage(declaredLanguage)
	if language == defaultLanguage || original == "" {
		return &Result{OriginalText: original, EnglishText: original}, nil
	}

	english := e.translate(ctx, original, language)
	return &Result{OriginalText: original, EnglishText: english}, nil
}

// ocrExtract delegates page rasterisation and OCR to the multimodal LLM
// in one call: Gemini accepts whole PDFs directly, which covers page
// rasterisation internally rather than requiring a local renderer.
func (e *Engine) ocrExtract(ctx context.Context, pdfBytes []byte) string {
	if e.llmClient == nil {
		return ""
	}
	text, err := e.llmClient.GenerateFromFile(ctx, extractionSystemInstruction,
		"Extract all text content from this document.", pdfBytes, "application/pdf")
	if err != nil {
		return ""
	}
	return text
}

func (e *Engine) translate(ctx context.Context, original, language string) string {
	chunks := chunkParagraphs(original, maxChunkChars)

	primary := NewLLMTranslator(e.llmClient)
	translator := Translator(primary)
	if e.preferHTTP {
		translator = e.httpFallback
	}

	translated, ok := e.translateChunks(ctx, translator, chunks, language)
	if ok && latinRatio(translated) >= 0.6 {
		return translated
	}

	// Either the primary translator failed or its result looks
	// untranslated; try the HTTP fallback before giving up.
	if translator != e.httpFallback {
		translated, ok = e.translateChunks(ctx, e.httpFallback, chunks, language)
		if ok && latinRatio(translated) >= 0.6 {
			return translated
		}
	}

	return original
}

func (e *Engine) translateChunks(ctx context.Context, t Translator, chunks []string, language string) (string, bool) {
	var out strings.Builder
	for i, chunk := range chunks {
		result, err := t.Translate(ctx, chunk, language)
		if err != nil || strings.TrimSpace(result) == "" {
			return "", false
		}
		if i > 0 {
			out.WriteString("\n\n")
		}
		out.WriteString(result)
	}
	return out.String(), true
}

// extractPlainPDFText reads text back out of a PDF the sanitiser
// rendered directly from already-textual input (csv/xlsx/txt/rtf), via
// the ledongthuc/pdf reader rather than the OCR path since the content
// is machine-generated text, not a scan.
func extractPlainPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var out strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		out.WriteString(text)
		out.WriteString("\n")
	}
	return out.String(), nil
}
