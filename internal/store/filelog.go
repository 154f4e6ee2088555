package store

import (
	"context"
	"sync"
)

// FileStore keeps the full mapping in memory and journals every write so
// the mapping survives restarts. The journal is replayed once at
// construction as a left-fold over its records: later lines overwrite
// earlier ones for the same key. Loading never appends, so restarts don't
// grow the journal.
type FileStore struct {
	mu      sync.RWMutex
	links   map[string]string
	journal *Journal
}

// compile-time assertion that we implement Store
var _ Store = (*FileStore)(nil)

// NewFileStore opens (or creates) the journal at path and replays it into
// memory. An unreadable journal is a hard error; serving lookups from a
// mapping that doesn't match the file would be worse than not starting.
func NewFileStore(path string, fsync bool) (*FileStore, error) {
	journal, err := OpenJournal(path, fsync)
	if err != nil {
		return nil, err
	}

	entries, err := journal.ReplayAll()
	if err != nil {
		journal.Close()
		return nil, err
	}

	links := make(map[string]string, len(entries))
	for _, e := range entries {
		links[e.Key] = e.Target
	}

	return &FileStore{links: links, journal: journal}, nil
}

func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	target, ok := s.links[key]
	if !ok {
		return "", ErrNotFound
	}

	return target, nil
}

// Put records the mapping. The journal append happens before the
// in-memory write: when the append fails the mapping is left unchanged
// and the error is returned, so a successful Put always means the record
// is in the file.
func (s *FileStore) Put(ctx context.Context, key string, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.journal.Append(key, target); err != nil {
		return err
	}
	s.links[key] = target

	return nil
}

// List returns a snapshot copy of the current mapping.
func (s *FileStore) List(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	links := make(map[string]string, len(s.links))
	for key, target := range s.links {
		links[key] = target
	}

	return links, nil
}

func (s *FileStore) Close() error {
	return s.journal.Close()
}
