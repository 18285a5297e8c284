package advisory

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// defaultModel is used when no model is configured.
const defaultModel = "gemini-2.0-flash"

// Gemini implements Generator using Google's Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini generator.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("advisory: gemini api key is required")
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("advisory: create gemini client: %w", err)
	}

	return &Gemini{client: client, model: model}, nil
}

// Generate runs one prompt through the model and returns the text response.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("advisory: gemini generate: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("advisory: gemini returned no text")
	}
	return text, nil
}

// Name identifies the generator in logs.
func (g *Gemini) Name() string {
	return fmt.Sprintf("gemini:%s", g.model)
}
