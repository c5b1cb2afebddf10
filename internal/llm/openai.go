package llm

import (
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAI is a generation client backed by the OpenAI API or any compatible
// endpoint.
type OpenAI struct {
	client          *openai.Client
	model           string
	temperature     float32
	maxOutputTokens int32
}

// NewOpenAI creates an OpenAI generation client. A non-empty baseURL points
// the client at a compatible self-hosted endpoint.
func NewOpenAI(model, apiKey, baseURL string, temperature float32, maxOutputTokens int32) (*OpenAI, error) {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{
		client:          openai.NewClientWithConfig(cfg),
		model:           model,
		temperature:     temperature,
		maxOutputTokens: maxOutputTokens,
	}, nil
}

// Generate produces a completion for the given prompt.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: &o.temperature,
		MaxTokens:   int(o.maxOutputTokens),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

var _ Client = (*OpenAI)(nil)
