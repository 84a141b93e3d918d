package confession

import (
	"context"
)

// AudioStorage defines the contract for audio blob persistence backends.
// Implementations must be safe for concurrent use.
type AudioStorage interface {
	// Write stores data under the given key.
	// Returns ErrKeyExists if the key is already taken (upsert disabled).
	Write(ctx context.Context, key string, data []byte) error

	// Read retrieves the audio bytes for the given key.
	// Returns os.ErrNotExist if the key does not exist.
	Read(ctx context.Context, key string) ([]byte, error)

	// Exists reports whether a blob is stored under the given key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the blob for the given key.
	// Returns nil if the key does not exist (idempotent).
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the storage backend.
	Close() error
}
