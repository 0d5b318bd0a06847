// Package session persists the client-side authentication state: an opaque
// bearer token and the email of the user it was issued to.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"cloudstocks/internal/config"
)

// Storage is a persistent string key-value store.
type Storage interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown session backend")

// Open returns the Storage backend selected by cfg. The returned close
// function releases any underlying resources and is never nil.
func Open(cfg config.Session) (Storage, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return NewMemoryStorage(), noop, nil
	case "file":
		fs, err := NewFileStorage(cfg.StoragePath())
		if err != nil {
			return nil, noop, err
		}
		return fs, noop, nil
	case "sqlite":
		ss, err := NewSQLiteStorage(cfg.StoragePath())
		if err != nil {
			return nil, noop, err
		}
		return ss, ss.Close, nil
	default:
		return nil, noop, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// Compile-time interface check.
var _ Storage = (*MemoryStorage)(nil)

// MemoryStorage keeps values in process memory only.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}
