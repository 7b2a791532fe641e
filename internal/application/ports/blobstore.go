// Package ports defines the application layer port interfaces following hexagonal architecture.
// Ports are abstractions that allow the application core to interact with external systems
// (adapters) without knowing their implementation details.
package ports

import "context"

// SyncStateKey is the fixed, versionless identifier under which the
// encoded channel state blob is stored.
const SyncStateKey = "sync_state"

// BlobStorePort is a durable key-value target for encoded state blobs.
// The sync engine owns the encoding and the write schedule; the store
// owns nothing but the bytes.
//
// Implementations might use SQLite, a plain file, or an in-memory map.
// All methods accept a context.Context for cancellation and timeout support.
type BlobStorePort interface {
	// Save writes the payload under the given key, replacing any
	// previous payload.
	Save(ctx context.Context, key string, payload []byte) error

	// Load returns the payload stored under the given key.
	// Returns errors.ErrStateNotFound if nothing is stored.
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete removes the payload stored under the given key.
	// Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}
