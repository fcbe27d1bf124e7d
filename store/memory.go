package store

import (
	"context"
	"sync"
)

// MemoryStore provides thread-safe in-memory storage for limiter state
type MemoryStore struct {
	entries sync.Map // map[string][]byte
}

// Ensure MemoryStore implements Store interface
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get retrieves the value for a given key
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	val, ok := s.entries.Load(key)
	if !ok {
		return nil, nil
	}
	stored := val.([]byte)
	out := make([]byte, len(stored))
	copy(out, stored)
	return out, nil
}

// Put stores the value for a given key
func (s *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	s.entries.Store(key, stored)
	return nil
}

// Delete removes the value for a given key
func (s *MemoryStore) Delete(key string) {
	s.entries.Delete(key)
}

// Clear removes all stored values
func (s *MemoryStore) Clear() {
	s.entries.Range(func(key, value interface{}) bool {
		s.entries.Delete(key)
		return true
	})
}
