package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hameedlatif/hospital-assistant/pkg/logger"
)

// fakeSummarizer records what it was asked to fold and returns a canned or
// derived summary.
type fakeSummarizer struct {
	calls     int
	lastPrev  string
	lastTurns []Turn
	err       error
}

func (f *fakeSummarizer) Summarize(_ context.Context, previous string, turns []Turn) (string, error) {
	f.calls++
	f.lastPrev = previous
	f.lastTurns = append([]Turn(nil), turns...)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("summary after %d calls covering %d turns", f.calls, len(turns)), nil
}

func testLogger() *logger.Logger {
	return logger.New("test", "")
}

func TestCommitAppendsExchange(t *testing.T) {
	s := &fakeSummarizer{}
	m := NewMemory(s, 12, 6, testLogger())

	m.Commit(context.Background(), "Where is the hospital?", "On Ferozepur Road, Lahore.")

	assert.Equal(t, 2, m.Len())
	assert.Empty(t, m.Summary())
	assert.Zero(t, s.calls, "no compaction below the threshold")

	snap := m.Snapshot()
	require.Len(t, snap.Turns, 2)
	assert.Equal(t, RoleUser, snap.Turns[0].Role)
	assert.Equal(t, "Where is the hospital?", snap.Turns[0].Text)
	assert.Equal(t, RoleAssistant, snap.Turns[1].Role)
}

func TestCompactionKeepsRecentWindow(t *testing.T) {
	s := &fakeSummarizer{}
	m := NewMemory(s, 12, 6, testLogger())

	// Seven exchanges push the window to 14 raw turns, one past the
	// threshold, triggering a single compaction down to the keep window.
	for i := 1; i <= 7; i++ {
		m.Commit(context.Background(), fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	assert.Equal(t, 1, s.calls)
	assert.Equal(t, 6, m.Len())
	assert.NotEmpty(t, m.Summary())

	// The evicted turns are the oldest eight; the window keeps q5..a7.
	require.Len(t, s.lastTurns, 8)
	assert.Equal(t, "q1", s.lastTurns[0].Text)
	assert.Equal(t, "a4", s.lastTurns[7].Text)

	snap := m.Snapshot()
	assert.Equal(t, "q5", snap.Turns[0].Text)
	assert.Equal(t, "a7", snap.Turns[5].Text)
}

func TestLongConversationStaysBounded(t *testing.T) {
	s := &fakeSummarizer{}
	m := NewMemory(s, 12, 6, testLogger())

	var sent []Turn
	for i := 1; i <= 10; i++ {
		user, answer := fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)
		m.Commit(context.Background(), user, answer)
		sent = append(sent, Turn{RoleUser, user}, Turn{RoleAssistant, answer})

		assert.LessOrEqual(t, m.Len(), 12, "window must stay within the threshold after every turn")
	}

	assert.NotEmpty(t, m.Summary())

	// Whatever remains is exactly the most recent suffix of the transcript.
	snap := m.Snapshot()
	assert.Equal(t, sent[len(sent)-len(snap.Turns):], snap.Turns)
}

func TestCompactionEvictsEvenWhenSummarizerFails(t *testing.T) {
	s := &fakeSummarizer{err: errors.New("model unavailable")}
	m := NewMemory(s, 4, 2, testLogger())

	for i := 1; i <= 3; i++ {
		m.Commit(context.Background(), fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	assert.Equal(t, 1, s.calls)
	assert.Equal(t, 2, m.Len(), "eviction happens even without a new summary")
	assert.Empty(t, m.Summary(), "previous summary is kept, here the empty one")
}

func TestSummarizerFailureKeepsPreviousSummary(t *testing.T) {
	s := &fakeSummarizer{}
	m := NewMemory(s, 4, 2, testLogger())

	for i := 1; i <= 3; i++ {
		m.Commit(context.Background(), fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}
	first := m.Summary()
	require.NotEmpty(t, first)

	s.err = errors.New("model unavailable")
	for i := 4; i <= 5; i++ {
		m.Commit(context.Background(), fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	assert.Equal(t, first, m.Summary())
	assert.Equal(t, 2, m.Len())
}

func TestClearResetsToEmpty(t *testing.T) {
	s := &fakeSummarizer{}
	m := NewMemory(s, 4, 2, testLogger())

	for i := 1; i <= 4; i++ {
		m.Commit(context.Background(), fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}
	require.NotZero(t, m.Len())

	m.Clear()
	assert.Zero(t, m.Len())
	assert.Empty(t, m.Summary())
	assert.Empty(t, m.Snapshot().Turns)
}

func TestSnapshotIsIsolated(t *testing.T) {
	m := NewMemory(&fakeSummarizer{}, 12, 6, testLogger())
	m.Commit(context.Background(), "q1", "a1")

	snap := m.Snapshot()
	snap.Turns[0].Text = "mutated"

	assert.Equal(t, "q1", m.Snapshot().Turns[0].Text)
}

func TestNewMemoryClampsKeepRecent(t *testing.T) {
	m := NewMemory(&fakeSummarizer{}, 4, 10, testLogger())

	for i := 1; i <= 3; i++ {
		m.Commit(context.Background(), fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	// keepRecent was clamped below the threshold, so compaction shrank the window.
	assert.Equal(t, 2, m.Len())
}
