package textstore

import (
	"strings"
	"sync"
)

// Store is the naive in-memory text store backing the ingest/search
// endpoints. Matching is case-insensitive substring search; nothing is
// persisted.
type Store struct {
	mu    sync.RWMutex
	texts []string
}

func New() *Store {
	return &Store{}
}

// Ingest appends text and returns its index.
func (s *Store) Ingest(text string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	return len(s.texts) - 1
}

// Search returns up to k stored texts containing query, in insertion order.
func (s *Store) Search(query string, k int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := []string{}
	if k <= 0 {
		return matches
	}
	needle := strings.ToLower(query)
	for _, t := range s.texts {
		if strings.Contains(strings.ToLower(t), needle) {
			matches = append(matches, t)
			if len(matches) == k {
				break
			}
		}
	}
	return matches
}
