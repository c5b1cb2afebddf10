package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hameedlatif/hospital-assistant/internal/knowledge"
	"github.com/hameedlatif/hospital-assistant/internal/memory"
	"github.com/hameedlatif/hospital-assistant/internal/retrieval"
	"github.com/hameedlatif/hospital-assistant/pkg/logger"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

type fakeIndex struct {
	matches []knowledge.Match
	err     error
}

func (f *fakeIndex) Search(ctx context.Context, vector []float32, topK int) ([]knowledge.Match, error) {
	if f.err != nil {
		return nil, f.err
	}
	if topK > len(f.matches) {
		topK = len(f.matches)
	}
	return f.matches[:topK], nil
}

func (f *fakeIndex) Dimension() int { return 2 }

// fakeLLM fails the first `failures` calls, then replies. When block is set
// it waits out the call context instead.
type fakeLLM struct {
	reply    string
	failures int
	block    bool
	calls    int
	prompts  []string
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.calls <= f.failures {
		return "", errors.New("model overloaded")
	}
	return f.reply, nil
}

type stubSummarizer struct{}

func (stubSummarizer) Summarize(ctx context.Context, previous string, turns []memory.Turn) (string, error) {
	return "summary", nil
}

func testLogger() *logger.Logger {
	logger.Init(logrus.ErrorLevel)
	return logger.New("assistant-test", "")
}

func testStore(t *testing.T) *knowledge.Store {
	t.Helper()
	store, err := knowledge.NewStore([]knowledge.Entry{
		{ID: "dept_1", Kind: knowledge.KindDepartment, Name: "Cardiology", Text: "Cardiology department. Dr. A, consultant cardiologist."},
		{ID: "dept_2", Kind: knowledge.KindDepartment, Name: "Orthopedics", Text: "Orthopedics department. Dr. B, consultant orthopedic surgeon."},
	})
	require.NoError(t, err)
	return store
}

func newTestAssistant(t *testing.T, idx knowledge.Index, emb *fakeEmbedder, client *fakeLLM, opts Options) *Assistant {
	t.Helper()
	log := testLogger()
	store := testStore(t)
	retriever := retrieval.NewRetriever(idx, store, 5, 0.5, log)
	assembler := retrieval.NewContextAssembler(0)
	arena := memory.NewArena(func() *memory.Memory {
		return memory.NewMemory(stubSummarizer{}, 12, 6, log)
	})
	if opts.RetryBackoff == 0 {
		opts.RetryBackoff = time.Millisecond
	}
	return New(emb, retriever, assembler, arena, client, opts, log)
}

func TestAnswerHappyPath(t *testing.T) {
	idx := &fakeIndex{matches: []knowledge.Match{
		{ID: "dept_1", Score: 0.91},
		{ID: "dept_2", Score: 0.40},
	}}
	emb := &fakeEmbedder{vector: []float32{1, 0}}
	client := &fakeLLM{reply: "Dr. A in our cardiology department can help with that."}
	a := newTestAssistant(t, idx, emb, client, Options{})

	ans, err := a.Answer(context.Background(), "s1", "Who treats heart conditions?")
	require.NoError(t, err)
	assert.Equal(t, client.reply, ans.Text)
	assert.Equal(t, "s1", ans.SessionID)

	// Orthopedics scored below the threshold and is not a source.
	require.Len(t, ans.Sources, 1)
	assert.Equal(t, "dept_1", ans.Sources[0].ID)
	assert.Equal(t, knowledge.KindDepartment, ans.Sources[0].Kind)
	assert.Equal(t, "Cardiology", ans.Sources[0].Name)
	assert.Equal(t, 0.91, ans.Sources[0].Score)

	// The completed turn was committed.
	assert.Equal(t, 1, a.Sessions())

	require.Len(t, client.prompts, 1)
	prompt := client.prompts[0]
	assert.Contains(t, prompt, "Hameed Latif Hospital")
	assert.Contains(t, prompt, "RELEVANT HOSPITAL INFORMATION:")
	assert.Contains(t, prompt, "[DEPARTMENT] | Cardiology")
	assert.NotContains(t, prompt, "Orthopedics")
	assert.Contains(t, prompt, "PATIENT QUESTION:\nWho treats heart conditions?")
}

func TestAnswerTrimsAndRejectsEmptyQuestion(t *testing.T) {
	emb := &fakeEmbedder{vector: []float32{1, 0}}
	a := newTestAssistant(t, &fakeIndex{}, emb, &fakeLLM{reply: "ok"}, Options{})

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := a.Answer(context.Background(), "s1", q)
		assert.ErrorIs(t, err, ErrEmptyQuestion)
	}
	assert.Zero(t, emb.calls, "nothing is embedded for an empty question")
	assert.Zero(t, a.Sessions(), "no session is created for an empty question")
}

func TestAnswerEmbeddingFailure(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("provider down")}
	client := &fakeLLM{reply: "ok"}
	a := newTestAssistant(t, &fakeIndex{}, emb, client, Options{})

	_, err := a.Answer(context.Background(), "s1", "Who treats heart conditions?")
	assert.ErrorIs(t, err, ErrEmbedding)
	assert.Zero(t, client.calls)
	assert.Zero(t, a.arena.Get("s1").Memory.Len(), "memory is untouched on failure")
}

func TestAnswerRetrievalFailure(t *testing.T) {
	idx := &fakeIndex{err: errors.New("index corrupt")}
	client := &fakeLLM{reply: "ok"}
	a := newTestAssistant(t, idx, &fakeEmbedder{vector: []float32{1, 0}}, client, Options{})

	_, err := a.Answer(context.Background(), "s1", "Who treats heart conditions?")
	assert.ErrorIs(t, err, ErrRetrieval)
	assert.Zero(t, client.calls, "retrieval failures are never retried")
	assert.Zero(t, a.arena.Get("s1").Memory.Len())
}

func TestAnswerRetriesGenerationOnce(t *testing.T) {
	client := &fakeLLM{reply: "recovered", failures: 1}
	a := newTestAssistant(t, &fakeIndex{}, &fakeEmbedder{vector: []float32{1, 0}}, client, Options{})

	ans, err := a.Answer(context.Background(), "s1", "What are your visiting hours?")
	require.NoError(t, err)
	assert.Equal(t, "recovered", ans.Text)
	assert.Equal(t, 2, client.calls)
}

func TestAnswerGenerationFailureLeavesMemoryUnchanged(t *testing.T) {
	idx := &fakeIndex{matches: []knowledge.Match{{ID: "dept_1", Score: 0.91}}}
	client := &fakeLLM{reply: "never", failures: 100}
	a := newTestAssistant(t, idx, &fakeEmbedder{vector: []float32{1, 0}}, client, Options{})

	_, err := a.Answer(context.Background(), "s1", "Who treats heart conditions?")
	assert.ErrorIs(t, err, ErrGeneration)
	assert.Equal(t, 2, client.calls, "one automatic retry, then the error surfaces")
	assert.Zero(t, a.arena.Get("s1").Memory.Len(), "failed generation never commits the turn")
}

func TestAnswerGenerationTimeout(t *testing.T) {
	client := &fakeLLM{block: true}
	a := newTestAssistant(t, &fakeIndex{}, &fakeEmbedder{vector: []float32{1, 0}}, client, Options{
		Timeout:    20 * time.Millisecond,
		MaxRetries: -1,
	})

	_, err := a.Answer(context.Background(), "s1", "Who treats heart conditions?")
	assert.ErrorIs(t, err, ErrGeneration)
	assert.Equal(t, 1, client.calls)
}

func TestAnswerNoMatchesUsesMarker(t *testing.T) {
	// Everything retrieved scores below the threshold.
	idx := &fakeIndex{matches: []knowledge.Match{{ID: "dept_2", Score: 0.10}}}
	client := &fakeLLM{reply: "I don't have that information, the main desk can help."}
	a := newTestAssistant(t, idx, &fakeEmbedder{vector: []float32{1, 0}}, client, Options{})

	ans, err := a.Answer(context.Background(), "s1", "Do you have a burn unit?")
	require.NoError(t, err)
	assert.Empty(t, ans.Sources)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], retrieval.NoInfoMarker)
	assert.NotContains(t, client.prompts[0], "RELEVANT HOSPITAL INFORMATION:")
}

func TestAnswerCarriesConversationContext(t *testing.T) {
	idx := &fakeIndex{matches: []knowledge.Match{{ID: "dept_1", Score: 0.91}}}
	client := &fakeLLM{reply: "Dr. A sees patients on weekdays."}
	a := newTestAssistant(t, idx, &fakeEmbedder{vector: []float32{1, 0}}, client, Options{})

	_, err := a.Answer(context.Background(), "s1", "Who is your cardiologist?")
	require.NoError(t, err)
	_, err = a.Answer(context.Background(), "s1", "When can I see them?")
	require.NoError(t, err)

	require.Len(t, client.prompts, 2)
	first, second := client.prompts[0], client.prompts[1]
	assert.Contains(t, first, "(new conversation)")
	assert.Contains(t, second, "user: Who is your cardiologist?")
	assert.Contains(t, second, "assistant: Dr. A sees patients on weekdays.")
	assert.NotContains(t, second, "(new conversation)")
}

func TestAnswerSessionsAreIsolated(t *testing.T) {
	idx := &fakeIndex{matches: []knowledge.Match{{ID: "dept_1", Score: 0.91}}}
	client := &fakeLLM{reply: "answer"}
	a := newTestAssistant(t, idx, &fakeEmbedder{vector: []float32{1, 0}}, client, Options{})

	_, err := a.Answer(context.Background(), "alice", "Who is your cardiologist?")
	require.NoError(t, err)
	_, err = a.Answer(context.Background(), "bob", "Do you treat fractures?")
	require.NoError(t, err)

	require.Len(t, client.prompts, 2)
	assert.NotContains(t, client.prompts[1], "user: Who is your cardiologist?", "bob's prompt never sees alice's turns")
	assert.Contains(t, client.prompts[1], "(new conversation)")
	assert.Equal(t, 2, a.Sessions())

	assert.True(t, a.ClearSession("alice"))
	assert.Equal(t, 1, a.Sessions())
	assert.False(t, a.ClearSession("alice"))
}

func TestBuildPromptLayout(t *testing.T) {
	snap := memory.Snapshot{
		Summary: "The patient asked about cardiology.",
		Turns: []memory.Turn{
			{Role: memory.RoleUser, Text: "Who is your cardiologist?"},
			{Role: memory.RoleAssistant, Text: "Dr. A."},
		},
	}
	prompt := buildPrompt("CONTEXT BLOCK", snap, "When can I see Dr. A?")

	persona := strings.Index(prompt, "Hameed Latif Hospital")
	summary := strings.Index(prompt, "Summary so far: The patient asked about cardiology.")
	turns := strings.Index(prompt, "user: Who is your cardiologist?")
	block := strings.Index(prompt, "CONTEXT BLOCK")
	question := strings.Index(prompt, "PATIENT QUESTION:\nWhen can I see Dr. A?")
	rules := strings.Index(prompt, "Never invent departments")

	for _, pos := range []int{persona, summary, turns, block, question, rules} {
		require.GreaterOrEqual(t, pos, 0)
	}
	assert.True(t, persona < summary && summary < turns && turns < block && block < question && question < rules,
		"prompt sections keep their order")
}
