package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// Ollama is a generation client backed by a local Ollama server.
type Ollama struct {
	client          *ollama.Client
	model           string
	temperature     float32
	maxOutputTokens int32
}

// NewOllama creates an Ollama generation client. An empty baseURL selects
// the default local server.
func NewOllama(model, baseURL string, temperature float32, maxOutputTokens int32) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	hc := &http.Client{
		Timeout: 120 * time.Second,
	}

	return &Ollama{
		client:          ollama.NewClient(parsedURL, hc),
		model:           model,
		temperature:     temperature,
		maxOutputTokens: maxOutputTokens,
	}, nil
}

// Generate produces a completion for the given prompt.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	var result string

	stream := false
	err := o.client.Generate(ctx, &ollama.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]interface{}{
			"temperature": o.temperature,
			"num_predict": o.maxOutputTokens,
		},
	}, func(resp ollama.GenerateResponse) error {
		result = resp.Response
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content with ollama: %w", err)
	}

	if result == "" {
		return "", fmt.Errorf("ollama returned an empty response")
	}
	return result, nil
}

var _ Client = (*Ollama)(nil)
