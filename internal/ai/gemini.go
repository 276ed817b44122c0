// Package ai adapts the Gemini API to the TextGenerator capability consumed
// by the services layer.
package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-1.5-flash"

// GeminiGenerator generates text through the Gemini API. A nil generator is
// valid and reports itself unavailable, which pushes every caller onto its
// deterministic fallback path.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator builds a generator for the given API key. An empty key
// returns (nil, nil): the app runs with fallbacks instead of failing startup.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	log.Printf("ai: gemini generator ready (model %s)", model)
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Available() bool {
	return g != nil && g.client != nil
}

// Generate runs one prompt through the model. Callers own the context
// deadline; a cancelled or expired context fails the call.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if !g.Available() {
		return "", fmt.Errorf("generator unavailable")
	}
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}
