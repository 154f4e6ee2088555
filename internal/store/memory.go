package store

import (
	"context"
	"sync"
)

// MemoryStore is a map-only Store. Nothing survives a restart; it exists
// for tests and as the fallback when a remote backend fails to come up.
type MemoryStore struct {
	mu    sync.RWMutex
	links map[string]string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{links: make(map[string]string)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	target, ok := s.links[key]
	if !ok {
		return "", ErrNotFound
	}

	return target, nil
}

func (s *MemoryStore) Put(ctx context.Context, key string, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.links[key] = target

	return nil
}

func (s *MemoryStore) List(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	links := make(map[string]string, len(s.links))
	for key, target := range s.links {
		links[key] = target
	}

	return links, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
