// Package summariser produces one-paragraph English summaries of
// document text via the shared LLM client.
package summariser

import (
	"context"
	"regexp"
	"strings"

	"github.com/haqnow/archive/internal/llm"
)

const (
	maxInputChars = 5000
	maxWords      = 200
)

const systemInstruction = `You are a precise document summariser. Read the provided title and text and produce exactly one objective paragraph of no more than 200 words summarising the content. Do not editorialise, speculate, or add information not present in the text.`

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

type Summariser struct {
	client *llm.Client
}

func New(client *llm.Client) *Summariser {
	return &Summariser{client: client}
}

// Summarise sends up to the first 5,000 characters of text plus the title
// to the LLM and returns a paragraph of at most 200 words, or nil on
// any failure; callers must tolerate absence.
func (s *Summariser) Summarise(ctx context.Context, title, text string) *string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	input := text
	if len(input) > maxInputChars {
		input = input[:maxInputChars]
	}

	prompt := "Title: " + title + "\n\nText:\n" + input

	reply, err := s.client.Generate(ctx, systemInstruction, prompt)
	if err != nil || strings.TrimSpace(reply) == "" {
		return nil
	}

	cleaned := cleanReply(reply)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func cleanReply(reply string) string {
	reply = thinkBlock.ReplaceAllString(reply, "")
	reply = strings.Join(strings.Fields(reply), " ")
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return ""
	}
	return truncateWords(reply, maxWords)
}

func truncateWords(text string, limit int) string {
	words := strings.Fields(text)
	if len(words) <= limit {
		return text
	}
	return strings.Join(words[:limit], " ")
}
