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


package bubbl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/bubbl/ai"
	"github.com/poiesic/bubbl/ai/openai"
	"github.com/poiesic/bubbl/core"
	"github.com/poiesic/bubbl/query"
	"github.com/poiesic/bubbl/rank"
	"github.com/poiesic/bubbl/reembed"
	"github.com/poiesic/bubbl/storage"
	"github.com/poiesic/bubbl/storage/badger"
)

// Engine is the top-level entry point: an embedded bubble store with
// semantic search, user profiles and affinity ranking layered on top.
type Engine struct {
	backend  *badger.Backend
	bubbles  storage.BubbleRepository
	provider ai.AIProvider
	queries  *query.Service
	ranker   *rank.Ranker
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	poolSize int
	inMemory bool
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithAIProvider supplies a pre-built AI provider instead of constructing
// one from config. Intended for tests with mock providers.
func WithAIProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithPoolSize sets the ranking worker pool size.
func WithPoolSize(size int) EngineOption {
	return func(o *engineOptions) {
		o.poolSize = size
	}
}

// WithInMemory opens the store in memory, discarding everything on Close.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// NewEngine opens (or creates) the store at filePath and wires up the
// query and ranking services.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	bubbles, err := badger.NewBubbleRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			bubbles.Close()
			backend.Close()
			return nil, err
		}
	}

	queries, err := query.NewService(bubbles, provider)
	if err != nil {
		provider.Close()
		bubbles.Close()
		backend.Close()
		return nil, err
	}

	var rankOpts []rank.Option
	if options.poolSize > 0 {
		rankOpts = append(rankOpts, rank.WithPoolSize(options.poolSize))
	}
	ranker, err := rank.NewRanker(queries, provider, rankOpts...)
	if err != nil {
		provider.Close()
		bubbles.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:  backend,
		bubbles:  bubbles,
		provider: provider,
		queries:  queries,
		ranker:   ranker,
		logger:   slog.Default(),
	}, nil
}

// Close releases the ranker, AI provider and storage.
func (e *Engine) Close() error {
	e.ranker.Release()

	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	if err := e.bubbles.Close(); err != nil {
		e.logger.Error("error closing bubble repository", "err", err)
		return err
	}

	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// BubbleRepository exposes the underlying bubble store.
func (e *Engine) BubbleRepository() storage.BubbleRepository {
	return e.bubbles
}

// QueryService exposes the filtered query layer.
func (e *Engine) QueryService() *query.Service {
	return e.queries
}

// Search returns one page of bubbles matching the filter, plus whether
// another page exists past it.
func (e *Engine) Search(ctx context.Context, f query.Filter, limit, offset int) ([]*core.Bubble, bool, error) {
	return e.queries.Search(ctx, f, limit, offset)
}

// Profile returns one page of a single author's bubbles.
func (e *Engine) Profile(ctx context.Context, author string, f query.Filter, limit, offset int) (*core.UserProfile, error) {
	return e.queries.Profile(ctx, author, f, limit, offset)
}

// RankAuthors ranks every other author by affinity to the given actor.
func (e *Engine) RankAuthors(ctx context.Context, actor string, f query.Filter, candidateCap, referenceCap int) ([]core.RankedAuthor, error) {
	return e.ranker.RankAuthors(ctx, actor, f, candidateCap, referenceCap)
}

// Create validates, embeds and stores the given bubbles in one atomic
// batch. Either every bubble is inserted or none are: a duplicate
// (author, content) pair anywhere in the batch returns ErrDuplicateBubble
// and leaves the store untouched.
func (e *Engine) Create(ctx context.Context, bubbles ...*core.Bubble) ([]*core.Bubble, error) {
	if len(bubbles) == 0 {
		return nil, nil
	}

	for _, bubble := range bubbles {
		if err := core.ValidateBubble(bubble); err != nil {
			return nil, err
		}
	}

	texts := make([]string, len(bubbles))
	for i, bubble := range bubbles {
		texts[i] = bubble.Content
	}
	vectors, err := e.provider.Embedder().EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(bubbles) {
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(bubbles), len(vectors))
	}
	for i := range bubbles {
		bubbles[i].Vector = vectors[i]
	}

	inserted, err := e.bubbles.AddBubbles(ctx, bubbles...)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %w", core.ErrDuplicateBubble, err)
		}
		return nil, fmt.Errorf("%w: %w", core.ErrDatabase, err)
	}
	return inserted, nil
}

// Remove deletes one bubble on behalf of actor. Only the bubble's author
// may remove it.
func (e *Engine) Remove(ctx context.Context, actor string, id core.ID) error {
	if actor == "" {
		return fmt.Errorf("%w: empty actor on remove request", core.ErrInvalidQuery)
	}

	bubble, err := e.bubbles.GetBubble(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: id %d", core.ErrBubbleNotFound, id)
		}
		return fmt.Errorf("%w: %w", core.ErrDatabase, err)
	}

	if bubble.Author != actor {
		return fmt.Errorf("%w: bubble %d belongs to %q", core.ErrNotBubbleAuthor, id, bubble.Author)
	}

	if err := e.bubbles.DeleteBubbles(ctx, id); err != nil {
		return fmt.Errorf("%w: %w", core.ErrDatabase, err)
	}
	return nil
}

// Import bulk-loads bubbles, embedding and inserting them in batches of
// batchSize. Unlike Create, a duplicate batch aborts the import at that
// batch; earlier batches stay inserted. Returns the number of bubbles
// imported.
func (e *Engine) Import(ctx context.Context, bubbles []*core.Bubble, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	imported := 0
	for start := 0; start < len(bubbles); start += batchSize {
		end := min(start+batchSize, len(bubbles))
		inserted, err := e.Create(ctx, bubbles[start:end]...)
		if err != nil {
			return imported, err
		}
		imported += len(inserted)
	}
	return imported, nil
}

// Purge removes every bubble from the store.
func (e *Engine) Purge(ctx context.Context) error {
	if err := e.bubbles.Purge(ctx); err != nil {
		return fmt.Errorf("%w: %w", core.ErrDatabase, err)
	}
	return nil
}

// NewReembedder builds a reembedder over this engine's store and embedder.
func (e *Engine) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(e.bubbles, e.provider.Embedder(), config, progress)
}
