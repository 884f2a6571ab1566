// Package thread keeps per-conversation message history for the lifetime
// of the process.
package thread

import (
	"sync"

	"webmemory/internal/domain"
)

// Store is an in-memory, append-only message log keyed by thread id.
// Threads are created on first use and never evicted.
type Store struct {
	mu      sync.RWMutex
	threads map[string][]domain.Message
}

// NewStore creates an empty thread store.
func NewStore() *Store {
	return &Store{threads: make(map[string][]domain.Message)}
}

// Append adds messages to the end of the thread's log.
func (s *Store) Append(threadID string, msgs ...domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[threadID] = append(s.threads[threadID], msgs...)
}

// Messages returns a copy of the thread's ordered history. A thread that
// was never written to yields an empty slice.
func (s *Store) Messages(threadID string) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.threads[threadID]
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out
}

// Len reports the number of messages in a thread.
func (s *Store) Len(threadID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.threads[threadID])
}
