package curriculum

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/tutorstack/content-backend/internal/platform/apperr"
	"github.com/tutorstack/content-backend/internal/platform/gcs"
	"github.com/tutorstack/content-backend/internal/platform/logger"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// memStore is an in-memory ObjectStore that emulates delimited listing over
// a flat key space the way GCS does.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %q: %w", key, apperr.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (m *memStore) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	m.puts = append(m.puts, key)
	return nil
}

func (m *memStore) List(_ context.Context, prefix, delimiter string) ([]gcs.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var entries []gcs.Entry
	seen := map[string]bool{}
	for _, k := range keys {
		if delimiter == "" {
			entries = append(entries, gcs.Entry{Key: k})
			continue
		}
		rest := k[len(prefix):]
		if idx := strings.Index(rest, delimiter); idx >= 0 {
			dir := prefix + rest[:idx+1]
			if !seen[dir] {
				seen[dir] = true
				entries = append(entries, gcs.Entry{Prefix: dir})
			}
			continue
		}
		entries = append(entries, gcs.Entry{Key: k})
	}
	return entries, nil
}
