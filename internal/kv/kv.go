// Package kv provides the key-value persistence substrate and its SQLite
// implementation. The engine only ever assumes this contract, never a
// specific storage technology.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for an absent key.
var ErrNotFound = errors.New("key not found")

// Store is a reliable local store with read/write/delete by key. Values are
// opaque bytes; callers own serialization.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes the value for key, creating or replacing it.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns all key/value pairs whose key starts with prefix.
	List(ctx context.Context, prefix string) (map[string][]byte, error)

	// Close closes the store.
	Close() error
}
