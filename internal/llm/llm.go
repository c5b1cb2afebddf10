package llm

import (
	"context"
	"fmt"

	"github.com/hameedlatif/hospital-assistant/internal/config"
)

// Client is the interface every generation provider implements. Temperature
// and the output token cap are fixed at construction so every call behaves
// the same way.
type Client interface {
	// Generate produces a completion for the given prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewClient creates a generation client for the configured provider.
func NewClient(cfg config.ModelConfig, temperature float32, maxOutputTokens int32) (Client, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGemini(context.Background(), cfg.Model, cfg.APIKey, temperature, maxOutputTokens)
	case "ollama":
		return NewOllama(cfg.Model, cfg.BaseURL, temperature, maxOutputTokens)
	case "openai":
		return NewOpenAI(cfg.Model, cfg.APIKey, cfg.BaseURL, temperature, maxOutputTokens)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
