// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"

	"github.com/poiesic/bubbl/core"
	"github.com/poiesic/bubbl/storage"
)

const (
	// DefaultBatchSize is the default number of bubbles to fetch in each batch
	DefaultBatchSize = 100
)

// BubbleIterator iterates over all bubbles in batches, paging through the
// store newest-first with a fixed batch size.
type BubbleIterator struct {
	repo      storage.BubbleRepository
	batchSize int
}

// NewBubbleIterator creates a new bubble iterator.
// batchSize: number of bubbles to fetch in each batch (must be > 0)
func NewBubbleIterator(repo storage.BubbleRepository, batchSize int) *BubbleIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &BubbleIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach iterates over all bubbles, calling fn for each batch.
// Iteration stops on first error from fn or when all bubbles are processed.
// Context cancellation is checked between batches.
func (it *BubbleIterator) ForEach(ctx context.Context, fn func([]*core.Bubble) error) error {
	offset := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := it.repo.FetchRecent(ctx, nil, it.batchSize, offset)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		if err := fn(batch); err != nil {
			return err
		}

		// A short batch is only possible at end of stream
		if len(batch) < it.batchSize {
			return nil
		}
		offset += len(batch)
	}
}

// Count returns the total number of bubbles in the store, paging through
// the whole stream.
func (it *BubbleIterator) Count(ctx context.Context) (int, error) {
	total := 0
	err := it.ForEach(ctx, func(batch []*core.Bubble) error {
		total += len(batch)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
