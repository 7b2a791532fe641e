// Package store provides blob store adapters for persisting sync state.
package store

import (
	"context"
	"sync"

	domainErrors "github.com/sentryview/sentryview/internal/domain/errors"

	"github.com/sentryview/sentryview/internal/application/ports"
)

// MemoryStore implements BlobStorePort with an in-memory map. Used in
// tests and for ephemeral sessions that opt out of durable state.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

var _ ports.BlobStorePort = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
	}
}

// Save stores a copy of the payload under the key.
func (m *MemoryStore) Save(ctx context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := make([]byte, len(payload))
	copy(buf, payload)
	m.blobs[key] = buf
	return nil
}

// Load returns a copy of the payload stored under the key.
func (m *MemoryStore) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	payload, ok := m.blobs[key]
	if !ok {
		return nil, domainErrors.ErrStateNotFound
	}

	buf := make([]byte, len(payload))
	copy(buf, payload)
	return buf, nil
}

// Delete removes the payload stored under the key.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, key)
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

// Len returns the number of stored blobs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}
