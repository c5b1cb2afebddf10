package knowledge

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// maxRecordSize bounds a single JSONL record. Entry texts are short hospital
// descriptions, so 1 MiB leaves plenty of headroom.
const maxRecordSize = 1 << 20

// Store holds the full set of knowledge entries in memory. It is built once
// at startup and read concurrently by every request afterwards.
type Store struct {
	entries []Entry
	byID    map[string]int
}

// NewStore builds a Store from a slice of entries, rejecting invalid or
// duplicate records.
func NewStore(entries []Entry) (*Store, error) {
	s := &Store{
		entries: entries,
		byID:    make(map[string]int, len(entries)),
	}
	for i := range entries {
		e := &entries[i]
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, exists := s.byID[e.ID]; exists {
			return nil, fmt.Errorf("duplicate entry id '%s'", e.ID)
		}
		s.byID[e.ID] = i
	}
	return s, nil
}

// LoadStore reads the entries artifact, one JSON record per line.
func LoadStore(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open entries file '%s': %w", path, err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("failed to parse entry at line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries file '%s': %w", path, err)
	}

	return NewStore(entries)
}

// Save writes the entries artifact, one JSON record per line.
func (s *Store) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create entries file '%s': %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := range s.entries {
		if err := enc.Encode(&s.entries[i]); err != nil {
			return fmt.Errorf("failed to encode entry '%s': %w", s.entries[i].ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write entries file '%s': %w", path, err)
	}
	return nil
}

// Get returns the entry with the given id.
func (s *Store) Get(id string) (*Entry, bool) {
	i, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return &s.entries[i], true
}

// All returns the entries in insertion order. Callers must not modify them.
func (s *Store) All() []Entry {
	return s.entries
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// CountByKind returns the number of entries per kind.
func (s *Store) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for i := range s.entries {
		counts[s.entries[i].Kind]++
	}
	return counts
}
