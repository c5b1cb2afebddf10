package embedding

import (
	"context"
	"fmt"

	"github.com/hameedlatif/hospital-assistant/internal/config"
)

// Model is the interface every embedding provider implements.
type Model interface {
	// Embed generates the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch generates embedding vectors for a batch of texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// NewModel creates an embedding client for the configured provider.
func NewModel(cfg config.ModelConfig) (Model, error) {
	switch cfg.Provider {
	case "huggingface":
		return NewHuggingFaceModel(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case "gemini":
		return NewGoogleModel(cfg.APIKey, cfg.Model)
	case "openai":
		return NewOpenAIModel(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case "ollama":
		return NewOllamaModel(cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
