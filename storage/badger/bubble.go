package badger

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/bubbl/core"
	"github.com/poiesic/bubbl/storage"
)

// BubbleRepository implements storage.BubbleRepository for BadgerDB.
type BubbleRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.BubbleRepository = (*BubbleRepository)(nil)

// NewBubbleRepository creates a new BubbleRepository.
func NewBubbleRepository(backend *Backend) (*BubbleRepository, error) {
	idSeq, err := backend.GetSequence(bubbleIDSeq)
	if err != nil {
		return nil, err
	}

	return &BubbleRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *BubbleRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *BubbleRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// FetchNearest delegates to the backend.
func (r *BubbleRepository) FetchNearest(ctx context.Context, vector []float32, match storage.Predicate, limit, offset int) ([]*core.Bubble, error) {
	return r.backend.FindNearest(ctx, vector, match, limit, offset)
}

// AddBubbles adds one or more bubbles to storage in a single transaction.
// The (author, content) uniqueness index is checked and written inside the
// same transaction, so a duplicate anywhere in the batch rolls back the
// whole insert and no partial state is visible to concurrent readers.
func (r *BubbleRepository) AddBubbles(ctx context.Context, bubbles ...*core.Bubble) ([]*core.Bubble, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, bubble := range bubbles {
			// Uniqueness check. Txn.Get sees pending writes, so
			// in-batch duplicates are caught too.
			dupKey := makeDupKey(core.DuplicateID(bubble.Author, bubble.Content))
			_, err := tx.Get(dupKey)
			if err == nil {
				return storage.ErrDuplicateKey
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			// Always generate new ID from sequence
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			bubble.Id = core.ID(nextID)

			if bubble.CreatedAt.IsZero() {
				bubble.CreatedAt = time.Now().UTC()
			}

			// Store primary record
			key := makeBubbleKey(bubble.Id)
			value := storage.MarshalBubble(bubble)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update created-at index
			dateKey := makeBubbleDateKey(bubble.CreatedAt, bubble.Id)
			if err := tx.Set(dateKey, storage.MarshalID(bubble.Id)); err != nil {
				return err
			}

			// Update uniqueness index
			if err := tx.Set(dupKey, storage.MarshalID(bubble.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return bubbles, nil
}

// UpdateBubbles replaces existing bubbles by ID.
func (r *BubbleRepository) UpdateBubbles(ctx context.Context, bubbles ...*core.Bubble) ([]*core.Bubble, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, bubble := range bubbles {
			key := makeBubbleKey(bubble.Id)

			// Read old record to detect changes
			old, err := r.readBubble(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			// Store updated record
			value := storage.MarshalBubble(bubble)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update created-at index if the timestamp changed
			if !old.CreatedAt.Equal(bubble.CreatedAt) {
				oldDateKey := makeBubbleDateKey(old.CreatedAt, old.Id)
				if err := tx.Delete(oldDateKey); err != nil {
					return err
				}
				newDateKey := makeBubbleDateKey(bubble.CreatedAt, bubble.Id)
				if err := tx.Set(newDateKey, storage.MarshalID(bubble.Id)); err != nil {
					return err
				}
			}

			// Move the uniqueness index if (author, content) changed
			oldDup := core.DuplicateID(old.Author, old.Content)
			newDup := core.DuplicateID(bubble.Author, bubble.Content)
			if oldDup != newDup {
				if err := tx.Delete(makeDupKey(oldDup)); err != nil {
					return err
				}
				if err := tx.Set(makeDupKey(newDup), storage.MarshalID(bubble.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return bubbles, nil
}

// DeleteBubbles removes bubbles by their IDs.
func (r *BubbleRepository) DeleteBubbles(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeBubbleKey(id)

			// Read record to get metadata for index cleanup
			bubble, err := r.readBubble(tx, key)
			if err != nil {
				return err
			}
			if bubble == nil {
				return storage.ErrNotFound
			}

			// Delete from created-at index
			dateKey := makeBubbleDateKey(bubble.CreatedAt, bubble.Id)
			if err := tx.Delete(dateKey); err != nil {
				return err
			}

			// Delete from uniqueness index
			dupKey := makeDupKey(core.DuplicateID(bubble.Author, bubble.Content))
			if err := tx.Delete(dupKey); err != nil {
				return err
			}

			// Delete primary record
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetBubble retrieves a single bubble by ID.
func (r *BubbleRepository) GetBubble(ctx context.Context, id core.ID) (*core.Bubble, error) {
	var result *core.Bubble
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeBubbleKey(id)
		var err error
		result, err = r.readBubble(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// FetchRecent retrieves bubbles matching the predicate, newest first.
// Offset counts matching bubbles, so paging with a fixed predicate over
// static data is prefix-consistent.
func (r *BubbleRepository) FetchRecent(ctx context.Context, match storage.Predicate, limit, offset int) ([]*core.Bubble, error) {
	var results []*core.Bubble
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Use reverse iterator to get most recent bubbles first
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek to the last possible key in the created-at index
		startKey := makePartialBubbleDateKey(time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC))

		// Prefix for created-at index keys
		prefix := []byte(bubbleDatePrefix + ":")

		skipped := 0
		for iter.Seek(startKey); iter.Valid() && len(results) < limit; iter.Next() {
			key := iter.Item().Key()

			// Check if we're still in the created-at index
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}

			// Read the ID from the index
			var bubbleID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				bubbleID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			// Look up the full record
			bubbleKey := makeBubbleKey(bubbleID)
			bubble, err := r.readBubble(tx, bubbleKey)
			if err != nil {
				return err
			}
			if bubble == nil {
				continue
			}

			if match != nil && !match(bubble) {
				continue
			}
			if skipped < offset {
				skipped++
				continue
			}

			results = append(results, bubble)
		}
		return nil
	}, false)

	return results, err
}

// Purge removes every bubble, the created-at index and the uniqueness
// index. The ID sequence is left in place so later inserts keep
// monotonically increasing IDs.
func (r *BubbleRepository) Purge(ctx context.Context) error {
	return r.backend.DropPrefix(
		[]byte(bubbleRecordPrefix+":"),
		[]byte(bubbleDatePrefix+":"),
		[]byte(bubbleDupPrefix+":"),
	)
}

// readBubble reads and unmarshals a bubble from a transaction.
// Returns nil (no error) if the key does not exist.
func (r *BubbleRepository) readBubble(tx *badger.Txn, key []byte) (*core.Bubble, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var bubble *core.Bubble
	err = item.Value(func(val []byte) error {
		var err error
		bubble, err = storage.UnmarshalBubble(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bubble, nil
}
