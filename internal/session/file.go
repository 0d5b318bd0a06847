package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Compile-time interface check.
var _ Storage = (*FileStorage)(nil)

// FileStorage holds values in memory and writes them through to a JSON file
// on every change.
type FileStorage struct {
	mu       sync.RWMutex
	values   map[string]string
	filePath string
}

// NewFileStorage creates a FileStorage, loading persisted state from
// filePath. A missing file starts empty.
func NewFileStorage(filePath string) (*FileStorage, error) {
	if filePath == "" {
		return nil, errors.New("file session backend requires a path")
	}
	s := &FileStorage{
		values:   make(map[string]string),
		filePath: filePath,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStorage) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *FileStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.flush()
}

func (s *FileStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.flush()
}

// load reads the JSON file into memory.
func (s *FileStorage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading session file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	var loaded map[string]string
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("decoding session file: %w", err)
	}
	if loaded != nil {
		s.values = loaded
	}
	return nil
}

// flush writes the in-memory state to disk. Must be called with mu held.
func (s *FileStorage) flush() error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o700); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session file: %w", err)
	}
	if err := os.WriteFile(s.filePath, data, 0o600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}
