// file: internal/database/memory_store.go
// version: 1.0.0
// guid: 31527da2-62b2-43e1-be13-0f5a0860a4b8

package database

import (
	"context"
	"sync"
)

// MemoryStore keeps values in a map. Used by tests and `--db-type memory`.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Kind() string { return "memory" }
