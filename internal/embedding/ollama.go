package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// OllamaModel is an embedding client backed by a local Ollama server.
type OllamaModel struct {
	client *ollama.Client
	model  string
}

// NewOllamaModel creates an Ollama embedding client. An empty baseURL
// selects the default local server.
func NewOllamaModel(model, baseURL string) (*OllamaModel, error) {
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

	return &OllamaModel{client: ollama.NewClient(parsedURL, hc), model: model}, nil
}

// Embed generates the embedding vector for a single text.
func (m *OllamaModel) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := m.client.Embed(ctx, &ollama.EmbedRequest{
		Model: m.model,
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get embeddings from ollama: %w", err)
	}

	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return resp.Embeddings[0], nil
}

// EmbedBatch generates embedding vectors for a batch of texts.
func (m *OllamaModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := m.client.Embed(ctx, &ollama.EmbedRequest{
		Model: m.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get batch embeddings from ollama: %w", err)
	}

	return resp.Embeddings, nil
}

var _ Model = (*OllamaModel)(nil)
