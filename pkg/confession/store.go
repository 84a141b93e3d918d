package confession

import (
	"context"
)

// Store defines the contract for the metadata store holding one record per
// confession. Implementations must be safe for concurrent use.
type Store interface {
	// Insert persists a new record. The store assigns rec.ID and
	// rec.CreatedAt. The deletion code carries a unique constraint; a
	// collision is an integrity failure, never retried.
	Insert(ctx context.Context, rec *Record) error

	// ByDeletionCode returns the single record matching code, or
	// ErrNotFound. This is the only lookup ever keyed by code; the cascade
	// delete itself runs against the id.
	ByDeletionCode(ctx context.Context, code string) (*Record, error)

	// DeleteByID removes the record with the given id.
	// Returns ErrNotFound if no such record exists.
	DeleteByID(ctx context.Context, id int64) error

	// List returns confessions ordered by creation time descending,
	// windowed by offset and limit.
	List(ctx context.Context, offset, limit int) ([]Confession, error)

	// Search returns all confessions whose name contains fragment,
	// case-insensitively. The fragment is matched literally.
	Search(ctx context.Context, fragment string) ([]Confession, error)

	// IncrementPlays advances the play counters for id by one in a single
	// store-side statement, so concurrent plays never lose updates.
	// Returns ErrNotFound if no such record exists.
	IncrementPlays(ctx context.Context, id int64) error

	// Popular returns up to limit confessions ordered by daily plays
	// descending.
	Popular(ctx context.Context, limit int) ([]Confession, error)

	// Close releases any resources held by the store.
	Close() error
}
