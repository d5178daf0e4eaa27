// Package assist asks a language model to rephrase free-text descriptions
// into capture utterances and to write budget tips. Every feature degrades
// to a local fallback when no model is configured.
package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.0-flash"

var ErrEmptyResponse = errors.New("empty response from model")

// TextProducer turns a prompt into text.
type TextProducer interface {
	Produce(ctx context.Context, prompt string) (string, error)
}

// GeminiProducer calls the Gemini API through the genai SDK.
type GeminiProducer struct {
	client *genai.Client
	model  string
}

func NewGeminiProducer(ctx context.Context, apiKey, model string) (*GeminiProducer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing Gemini API key")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiProducer{client: client, model: model}, nil
}

func (g *GeminiProducer) Produce(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// cleanModelOutput strips markdown code fences the model adds despite instructions.
func cleanModelOutput(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return strings.Trim(s, "`")
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// cleanModelJSON keeps the outermost JSON array of the model output.
func cleanModelJSON(raw string) string {
	s := cleanModelOutput(raw)
	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
