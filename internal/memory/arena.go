package memory

import (
	"sync"
	"time"
)

// Session is one conversation: an id, its memory, and a mutex serializing
// turns so concurrent messages to the same session cannot interleave.
type Session struct {
	ID        string
	Memory    *Memory
	CreatedAt time.Time

	mu sync.Mutex
}

// Lock acquires the session for one full turn.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// Arena owns all live sessions. Sessions are created on first use and live
// until explicitly cleared or the process exits; nothing is persisted.
type Arena struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	newMemory func() *Memory
}

// NewArena creates an empty session arena. newMemory builds the memory for
// each fresh session.
func NewArena(newMemory func() *Memory) *Arena {
	return &Arena{
		sessions:  make(map[string]*Session),
		newMemory: newMemory,
	}
}

// Get returns the session with the given id, creating it on first use.
func (a *Arena) Get(id string) *Session {
	a.mu.Lock()
	defer a.mu.Unlock()

	if s, ok := a.sessions[id]; ok {
		return s
	}
	s := &Session{
		ID:        id,
		Memory:    a.newMemory(),
		CreatedAt: time.Now(),
	}
	a.sessions[id] = s
	return s
}

// Clear removes the session and resets its memory, reporting whether it
// existed. It waits for any in-flight turn to finish, so a concurrent answer
// cannot resurrect cleared history.
func (a *Arena) Clear(id string) bool {
	a.mu.Lock()
	s, ok := a.sessions[id]
	if ok {
		delete(a.sessions, id)
	}
	a.mu.Unlock()

	if !ok {
		return false
	}
	s.Lock()
	s.Memory.Clear()
	s.Unlock()
	return true
}

// Len returns the number of live sessions.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sessions)
}
