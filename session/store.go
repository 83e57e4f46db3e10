package session

import (
	"context"
	"errors"
	"sync"
)

// ErrStoreUnavailable is returned when a backend cannot be read or written.
var ErrStoreUnavailable = errors.New("session store unavailable")

// ErrEmptyKey is returned for operations on an empty key.
var ErrEmptyKey = errors.New("empty session key")

// Store is a string key-value store. Implementations must treat a missing key as
// (value "", ok false, err nil) and removing a missing key as a no-op.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

// MemoryStore keeps values in process memory. The zero value is ready to use.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	return v, ok, nil
}

// Set stores value under key.
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}

// Remove deletes all given keys under one lock.
func (m *MemoryStore) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// BatchSetter is implemented by stores that can write several keys at once.
// [Context.Login] uses it so token and username land together.
type BatchSetter interface {
	SetMany(ctx context.Context, values map[string]string) error
}

// SetMany stores all pairs under one lock.
func (m *MemoryStore) SetMany(_ context.Context, values map[string]string) error {
	for k := range values {
		if k == "" {
			return ErrEmptyKey
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.values == nil {
		m.values = make(map[string]string, len(values))
	}
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}
