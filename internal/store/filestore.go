package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// File persists session records as a single JSON document with atomic
// writes. It is the default store for development and single-host
// deployments where neither Postgres nor Redis is configured.
type File struct {
	path string
	mu   sync.RWMutex
}

// NewFile creates a file-backed session store. The path should be the full
// path to the JSON file; it is created on first Save.
func NewFile(path string) *File {
	return &File{path: path}
}

func (s *File) load() (map[string]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]Record{}, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return map[string]Record{}, nil
	}

	var records map[string]Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// save writes to a temporary file first, then renames, so a crash mid-write
// never corrupts the stored sessions.
func (s *File) save(records map[string]Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}

// Load implements SessionStore.
func (s *File) Load(_ context.Context, shard int) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, err := s.load()
	if err != nil {
		return Record{}, false, err
	}
	rec, ok := records[strconv.Itoa(shard)]
	return rec, ok, nil
}

// Save implements SessionStore.
func (s *File) Save(_ context.Context, shard int, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	records[strconv.Itoa(shard)] = rec
	return s.save(records)
}

// Delete implements SessionStore.
func (s *File) Delete(_ context.Context, shard int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := records[strconv.Itoa(shard)]; !ok {
		return nil
	}
	delete(records, strconv.Itoa(shard))
	return s.save(records)
}

// Path returns the backing file path.
func (s *File) Path() string {
	return s.path
}
