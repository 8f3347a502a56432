package storage

import (
	"context"

	"github.com/poiesic/bubbl/core"
)

// Predicate filters bubbles on metadata during scans.
// A nil Predicate matches every bubble.
type Predicate func(*core.Bubble) bool

// BubbleRepository provides operations for managing bubbles.
// Implementations must be thread-safe and support concurrent access.
type BubbleRepository interface {
	// AddBubbles adds one or more bubbles to storage in a single transaction.
	// Generates new IDs from sequence and sets CreatedAt.
	// Returns ErrDuplicateKey without inserting anything if any bubble
	// collides with an existing (author, content) pair, including another
	// bubble in the same batch.
	AddBubbles(ctx context.Context, bubbles ...*core.Bubble) ([]*core.Bubble, error)

	// UpdateBubbles replaces existing bubbles by ID. Used to rewrite
	// embedding vectors; bubble content is immutable by convention.
	// Returns ErrNotFound if any bubble doesn't exist.
	UpdateBubbles(ctx context.Context, bubbles ...*core.Bubble) ([]*core.Bubble, error)

	// DeleteBubbles removes bubbles by their IDs.
	// Also removes associated indices.
	// Returns ErrNotFound if any bubble doesn't exist.
	DeleteBubbles(ctx context.Context, ids ...core.ID) error

	// GetBubble retrieves a single bubble by ID.
	// Returns ErrNotFound if the bubble doesn't exist.
	GetBubble(ctx context.Context, id core.ID) (*core.Bubble, error)

	// FetchRecent retrieves bubbles matching the predicate, ordered by
	// CreatedAt descending. Skips offset matching bubbles, returns up to
	// limit. Returns fewer than limit only at end of stream.
	FetchRecent(ctx context.Context, match Predicate, limit, offset int) ([]*core.Bubble, error)

	// FetchNearest retrieves bubbles matching the predicate, ordered by
	// cosine similarity to the given vector (highest first). Bubbles
	// without a stored vector never match. Same limit/offset semantics
	// as FetchRecent.
	FetchNearest(ctx context.Context, vector []float32, match Predicate, limit, offset int) ([]*core.Bubble, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Purge removes every bubble and all indices, leaving an empty store.
	Purge(ctx context.Context) error

	// Close closes the repository and releases resources.
	Close() error
}
