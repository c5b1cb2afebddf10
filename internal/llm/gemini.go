package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini is a generation client backed by the Google GenAI API.
type Gemini struct {
	model *genai.GenerativeModel
}

// NewGemini creates a Gemini client with the generation settings applied to
// every request.
func NewGemini(ctx context.Context, modelName, apiKey string, temperature float32, maxOutputTokens int32) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetMaxOutputTokens(maxOutputTokens)

	return &Gemini{model: model}, nil
}

// Generate produces a completion for the given prompt.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini failed to generate content: %w", err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		break // first candidate with content
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini response was empty or in an unexpected format")
	}
	return sb.String(), nil
}

var _ Client = (*Gemini)(nil)
