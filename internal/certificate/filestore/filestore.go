// Package filestore stores rendered certificate documents keyed by
// certificate id.
package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	platformsync "avalia/pkg/platform/sync"

	"avalia/internal/sentinel"
)

// Store is the document storage interface. Keys are certificate ids; the
// store decides layout and extension.
type Store interface {
	Write(ctx context.Context, key string, data []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// OSStore keeps documents on the local filesystem, one PDF per certificate.
// Writes go through a temp file and an atomic rename so a crash mid-write
// never leaves a truncated document behind; a sharded mutex serializes
// concurrent writes to the same key.
type OSStore struct {
	dir   string
	locks *platformsync.ShardedMutex
}

// NewOSStore creates the backing directory if needed.
func NewOSStore(dir string) (*OSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create certificates dir: %w", err)
	}
	return &OSStore{dir: dir, locks: platformsync.NewShardedMutex()}, nil
}

func (s *OSStore) path(key string) (string, error) {
	// Keys are certificate UUIDs; anything that walks out of the directory
	// is rejected outright.
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", fmt.Errorf("file key %q: %w", key, sentinel.ErrInvalidInput)
	}
	return filepath.Join(s.dir, key+".pdf"), nil
}

func (s *OSStore) Write(_ context.Context, key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp document: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("publish document: %w", err)
	}
	return nil
}

func (s *OSStore) Read(_ context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("document %s: %w", key, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

func (s *OSStore) Exists(_ context.Context, key string) (bool, error) {
	path, err := s.path(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat document: %w", err)
	}
	return true, nil
}

// InMemoryStore holds documents in a map. For tests.
type InMemoryStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{files: make(map[string][]byte)}
}

func (s *InMemoryStore) Write(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[key] = append([]byte(nil), data...)
	return nil
}

func (s *InMemoryStore) Read(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if data, ok := s.files[key]; ok {
		return append([]byte(nil), data...), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[key]
	return ok, nil
}

// Len reports how many documents are stored. For tests.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
