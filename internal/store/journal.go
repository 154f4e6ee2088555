package store

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Entry is one key/target record parsed from the journal.
type Entry struct {
	Key    string
	Target string
}

// Journal is the append-only record file behind FileStore. One record per
// line, `key:target\n`. Old lines are never rewritten or compacted, so a
// key written twice appears twice; whoever replays the file decides which
// occurrence wins.
type Journal struct {
	path  string
	fsync bool

	mu sync.Mutex // serializes appends so concurrent records never interleave
	f  *os.File
}

// OpenJournal opens the record file at path for appending, creating it
// when absent.
func OpenJournal(path string, fsync bool) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat journal %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, fmt.Errorf("journal %s is not a regular file", path)
	}

	return &Journal{path: path, fsync: fsync, f: f}, nil
}

// ReplayAll re-reads the journal from the beginning and returns every
// well-formed record in file order. A line is split on its first ':', so
// targets may themselves contain colons. Lines without a separator are
// skipped, not reported.
func (j *Journal) ReplayAll() ([]Entry, error) {
	f, err := os.Open(j.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal %s: %w", j.path, err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, target, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			// malformed line, drop it and keep going
			continue
		}
		entries = append(entries, Entry{Key: key, Target: target})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal %s: %w", j.path, err)
	}

	return entries, nil
}

// Append writes one record to the end of the journal. Appends from
// concurrent goroutines are serialized so each record lands as one
// complete line.
func (j *Journal) Append(key string, target string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := fmt.Fprintf(j.f, "%s:%s\n", key, target); err != nil {
		return fmt.Errorf("failed to append to journal %s: %w", j.path, err)
	}

	if j.fsync {
		if err := j.f.Sync(); err != nil {
			return fmt.Errorf("failed to sync journal %s: %w", j.path, err)
		}
	}

	return nil
}

// Close releases the append handle. Replay still works afterwards since
// it opens its own read handle.
func (j *Journal) Close() error {
	return j.f.Close()
}
