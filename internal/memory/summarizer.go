package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/hameedlatif/hospital-assistant/internal/llm"
)

// summaryPrompt asks the model to extend the running summary with the newly
// evicted conversation lines.
const summaryPrompt = `Progressively summarize the lines of conversation provided, adding onto the previous summary and returning a new summary. Keep the summary short and factual; it will be used as context for answering further questions about the hospital.

Current summary:
%s

New lines of conversation:
%s

New summary:`

// LLMSummarizer compacts conversation history with a generation model
// configured for short, low-temperature output.
type LLMSummarizer struct {
	client llm.Client
}

// NewLLMSummarizer creates a Summarizer on top of a generation client.
func NewLLMSummarizer(client llm.Client) *LLMSummarizer {
	return &LLMSummarizer{client: client}
}

// Summarize folds the evicted turns into the previous summary.
func (s *LLMSummarizer) Summarize(ctx context.Context, previous string, turns []Turn) (string, error) {
	if previous == "" {
		previous = "(none)"
	}

	var lines strings.Builder
	for _, turn := range turns {
		lines.WriteString(string(turn.Role))
		lines.WriteString(": ")
		lines.WriteString(turn.Text)
		lines.WriteString("\n")
	}

	summary, err := s.client.Generate(ctx, fmt.Sprintf(summaryPrompt, previous, strings.TrimRight(lines.String(), "\n")))
	if err != nil {
		return "", fmt.Errorf("summary generation failed: %w", err)
	}
	return strings.TrimSpace(summary), nil
}

var _ Summarizer = (*LLMSummarizer)(nil)
