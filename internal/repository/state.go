package repository

import (
	"context"
	"sync"
)

// Well-known storage keys for persisted session state.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// StateStore is a small key/value store for persisted client state.
// Implementations must be safe for concurrent use.
type StateStore interface {
	// Get returns the stored value or ErrStateNotFound.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes the keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// MemoryStateStore keeps state in process memory.  It does not survive a
// restart and is meant for tests and throwaway sessions.
type MemoryStateStore struct {
	mu   sync.RWMutex
	vals map[string]string
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{vals: make(map[string]string)}
}

func (m *MemoryStateStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vals[key]
	if !ok {
		return "", ErrStateNotFound
	}
	return v, nil
}

func (m *MemoryStateStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.vals[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryStateStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.vals, k)
	}
	m.mu.Unlock()
	return nil
}
