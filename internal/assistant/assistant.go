// Package assistant wires embedding, retrieval, conversation memory, and
// answer generation into the single Answer operation the API serves.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/hameedlatif/hospital-assistant/internal/embedding"
	"github.com/hameedlatif/hospital-assistant/internal/knowledge"
	"github.com/hameedlatif/hospital-assistant/internal/llm"
	"github.com/hameedlatif/hospital-assistant/internal/memory"
	"github.com/hameedlatif/hospital-assistant/internal/retrieval"
	"github.com/hameedlatif/hospital-assistant/pkg/logger"
)

// Defaults applied when the configuration leaves a knob unset.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRetries   = 1
	DefaultRetryBackoff = 500 * time.Millisecond
)

// Options bound the generation step. Zero values select the defaults; a
// negative MaxRetries disables retrying entirely.
type Options struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// Answer is the result of one completed turn.
type Answer struct {
	Text      string
	SessionID string
	Sources   []Source
}

// Source identifies a knowledge entry the answer drew on.
type Source struct {
	ID    string         `json:"id"`
	Kind  knowledge.Kind `json:"kind"`
	Name  string         `json:"name"`
	Score float64        `json:"score"`
}

// Assistant answers patient questions: it embeds the question, retrieves
// matching hospital entries, folds in the session's conversation memory, and
// asks the language model for a grounded reply.
type Assistant struct {
	embedder     embedding.Model
	retriever    *retrieval.Retriever
	assembler    *retrieval.ContextAssembler
	arena        *memory.Arena
	client       llm.Client
	timeout      time.Duration
	maxRetries   int
	retryBackoff time.Duration
	log          *logger.Logger
}

// New creates an Assistant.
func New(embedder embedding.Model, retriever *retrieval.Retriever, assembler *retrieval.ContextAssembler, arena *memory.Arena, client llm.Client, opts Options, log *logger.Logger) *Assistant {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}
	return &Assistant{
		embedder:     embedder,
		retriever:    retriever,
		assembler:    assembler,
		arena:        arena,
		client:       client,
		timeout:      opts.Timeout,
		maxRetries:   opts.MaxRetries,
		retryBackoff: opts.RetryBackoff,
		log:          log,
	}
}

// Answer runs one full turn for the session. The session's memory is updated
// only when the whole turn succeeds; every error path leaves it exactly as it
// was.
func (a *Assistant) Answer(ctx context.Context, sessionID, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	log := a.log.WithSession(sessionID)

	// One turn at a time per session. Other sessions are unaffected.
	sess := a.arena.Get(sessionID)
	sess.Lock()
	defer sess.Unlock()

	vector, err := a.embedder.Embed(ctx, question)
	if err != nil {
		log.WithError(err).Error("Failed to embed the question")
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	results, err := a.retriever.Retrieve(ctx, vector)
	if err != nil {
		log.WithError(err).Error("Failed to search hospital information")
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	prompt := buildPrompt(a.assembler.Assemble(results), sess.Memory.Snapshot(), question)

	text, err := a.generate(ctx, prompt)
	if err != nil {
		log.WithError(err).Error("Failed to generate an answer")
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	sess.Memory.Commit(ctx, question, text)
	log.WithPayload(map[string]interface{}{
		"sources":     len(results),
		"answerChars": len(text),
	}).Info("Answered question")

	return &Answer{
		Text:      text,
		SessionID: sessionID,
		Sources:   sources(results),
	}, nil
}

// Sessions reports how many conversations the arena currently holds.
func (a *Assistant) Sessions() int {
	return a.arena.Len()
}

// ClearSession drops the session's conversation memory. It reports whether
// the session existed.
func (a *Assistant) ClearSession(sessionID string) bool {
	return a.arena.Clear(sessionID)
}

// generate calls the language model with a fresh per-attempt timeout,
// retrying transient failures with exponential backoff. The caller's context
// cancels the whole sequence.
func (a *Assistant) generate(ctx context.Context, prompt string) (string, error) {
	var text string
	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		out, err := a.client.Generate(callCtx, prompt)
		if err != nil {
			return err
		}
		text = out
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.retryBackoff

	err := backoff.Retry(operation, backoff.WithMaxRetries(backoff.WithContext(b, ctx), uint64(a.maxRetries)))
	if err != nil {
		return "", err
	}
	return text, nil
}

func sources(results []retrieval.Result) []Source {
	out := make([]Source, 0, len(results))
	for _, r := range results {
		out = append(out, Source{
			ID:    r.Entry.ID,
			Kind:  r.Entry.Kind,
			Name:  r.Entry.Name,
			Score: r.Score,
		})
	}
	return out
}
