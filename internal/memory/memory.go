package memory

import (
	"context"
	"fmt"

	"github.com/hameedlatif/hospital-assistant/pkg/logger"
)

// Defaults applied when the configuration leaves a knob unset.
const (
	DefaultMaxTurns   = 12
	DefaultKeepRecent = 6
)

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single utterance in a conversation.
type Turn struct {
	Role Role
	Text string
}

// Snapshot is a read-only view of a memory: the running summary plus a copy
// of the recent turns. Mutating a snapshot never affects the memory.
type Snapshot struct {
	Summary string
	Turns   []Turn
}

// Summarizer folds evicted turns into a running conversation summary.
type Summarizer interface {
	Summarize(ctx context.Context, previous string, turns []Turn) (string, error)
}

// Memory is the conversation state of one session: a bounded window of raw
// turns plus a running summary of everything older. It is not internally
// synchronized; the owning session serializes access.
type Memory struct {
	summarizer Summarizer
	maxTurns   int
	keepRecent int
	log        *logger.Logger

	turns   []Turn
	summary string
}

// NewMemory creates an empty conversation memory. Zero values select the
// defaults; keepRecent is clamped below maxTurns so compaction always
// evicts something.
func NewMemory(summarizer Summarizer, maxTurns, keepRecent int, log *logger.Logger) *Memory {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	if keepRecent <= 0 {
		keepRecent = DefaultKeepRecent
	}
	if keepRecent >= maxTurns {
		keepRecent = maxTurns / 2
	}
	return &Memory{
		summarizer: summarizer,
		maxTurns:   maxTurns,
		keepRecent: keepRecent,
		log:        log,
	}
}

// Commit appends a completed exchange as one unit, then compacts the window
// if the raw turn count exceeded the threshold. Callers only commit after a
// successful generation, so a failed answer never changes the memory.
func (m *Memory) Commit(ctx context.Context, userText, assistantText string) {
	m.turns = append(m.turns,
		Turn{Role: RoleUser, Text: userText},
		Turn{Role: RoleAssistant, Text: assistantText},
	)
	if len(m.turns) > m.maxTurns {
		m.compact(ctx)
	}
}

// compact folds the oldest turns into the summary and keeps the most recent
// window. Eviction happens even when the summarize call fails: the window
// invariant wins, and the previous summary stays in place.
func (m *Memory) compact(ctx context.Context) {
	cut := len(m.turns) - m.keepRecent
	evicted := m.turns[:cut]

	summary, err := m.summarizer.Summarize(ctx, m.summary, evicted)
	if err != nil {
		m.log.WithError(err).Warn(fmt.Sprintf("Failed to summarize %d evicted turns; keeping previous summary", len(evicted)))
	} else {
		m.summary = summary
	}

	recent := make([]Turn, m.keepRecent)
	copy(recent, m.turns[cut:])
	m.turns = recent
}

// Snapshot returns the summary and a copy of the raw turns.
func (m *Memory) Snapshot() Snapshot {
	turns := make([]Turn, len(m.turns))
	copy(turns, m.turns)
	return Snapshot{Summary: m.summary, Turns: turns}
}

// Clear irreversibly resets the memory to empty.
func (m *Memory) Clear() {
	m.turns = nil
	m.summary = ""
}

// Len returns the raw turn count.
func (m *Memory) Len() int {
	return len(m.turns)
}

// Summary returns the running summary, empty until the first compaction.
func (m *Memory) Summary() string {
	return m.summary
}
