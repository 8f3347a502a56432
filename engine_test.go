package bubbl

import (
	"context"
	"testing"

	"github.com/poiesic/bubbl/ai/mock"
	"github.com/poiesic/bubbl/core"
	"github.com/poiesic/bubbl/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	engine, err := NewEngine("", WithInMemory(), WithAIProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	return engine
}

func TestEngineCreateAndSearch(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	inserted, err := engine.Create(ctx,
		&core.Bubble{Content: "I love hiking", Author: "alice"},
		&core.Bubble{Content: "Stock market report", Author: "bob"},
	)
	require.NoError(t, err)
	require.Len(t, inserted, 2)

	// Embeddings are generated at insert
	for _, b := range inserted {
		assert.NotZero(t, b.Id)
		assert.NotEmpty(t, b.Vector)
		assert.False(t, b.CreatedAt.IsZero())
	}

	page, hasMore, err := engine.Search(ctx, query.Filter{}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.False(t, hasMore)

	// Semantic search finds the identical text first: the mock embedder
	// is deterministic, so the stored and query vectors coincide.
	page, _, err = engine.Search(ctx, query.Filter{Text: "I love hiking"}, 1, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "I love hiking", page[0].Content)
}

func TestEngineCreateValidation(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Create(ctx, &core.Bubble{Author: "alice"})
	assert.ErrorIs(t, err, core.ErrInvalidBubble)

	_, err = engine.Create(ctx, &core.Bubble{Content: "no author"})
	assert.ErrorIs(t, err, core.ErrInvalidBubble)

	inserted, err := engine.Create(ctx)
	require.NoError(t, err)
	assert.Empty(t, inserted)
}

func TestEngineCreateDuplicate(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Create(ctx, &core.Bubble{Content: "I love hiking", Author: "alice"})
	require.NoError(t, err)

	_, err = engine.Create(ctx, &core.Bubble{Content: "I love hiking", Author: "alice"})
	assert.ErrorIs(t, err, core.ErrDuplicateBubble)

	// The failed create leaves exactly one record behind
	page, _, err := engine.Search(ctx, query.Filter{}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	// Same content under a different author is a different bubble
	_, err = engine.Create(ctx, &core.Bubble{Content: "I love hiking", Author: "bob"})
	require.NoError(t, err)
}

func TestEngineRemove(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	inserted, err := engine.Create(ctx, &core.Bubble{Content: "mine", Author: "bob"})
	require.NoError(t, err)
	id := inserted[0].Id

	t.Run("non-author cannot remove", func(t *testing.T) {
		err := engine.Remove(ctx, "alice", id)
		assert.ErrorIs(t, err, core.ErrNotBubbleAuthor)

		// The bubble survives the rejected removal
		page, _, err := engine.Search(ctx, query.Filter{}, 10, 0)
		require.NoError(t, err)
		assert.Len(t, page, 1)
	})

	t.Run("author removes own bubble", func(t *testing.T) {
		require.NoError(t, engine.Remove(ctx, "bob", id))

		page, _, err := engine.Search(ctx, query.Filter{}, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, page)
	})

	t.Run("missing bubble", func(t *testing.T) {
		err := engine.Remove(ctx, "bob", id)
		assert.ErrorIs(t, err, core.ErrBubbleNotFound)
	})

	t.Run("empty actor", func(t *testing.T) {
		err := engine.Remove(ctx, "", id)
		assert.ErrorIs(t, err, core.ErrInvalidQuery)
	})
}

func TestEngineProfile(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Create(ctx,
		&core.Bubble{Content: "one", Author: "alice"},
		&core.Bubble{Content: "two", Author: "bob"},
	)
	require.NoError(t, err)

	profile, err := engine.Profile(ctx, "alice", query.Filter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, profile.Bubbles, 1)
	assert.Equal(t, "one", profile.Bubbles[0].Content)
}

func TestEngineRankAuthors(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Create(ctx,
		&core.Bubble{Content: "I love hiking", Author: "alice"},
		&core.Bubble{Content: "I love hiking", Author: "bob"},
		&core.Bubble{Content: "Stock market report", Author: "carol"},
	)
	require.NoError(t, err)

	ranked, err := engine.RankAuthors(ctx, "alice", query.Filter{}, 100, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	// bob posted the exact same text as alice; with the deterministic
	// mock embedder his summary embeds to the identical vector.
	assert.Equal(t, "bob", ranked[0].Author)
	assert.InDelta(t, 1.0, ranked[0].Score, 1e-5)
	assert.Equal(t, "carol", ranked[1].Author)
	assert.Less(t, ranked[1].Score, ranked[0].Score)
}

func TestEngineImport(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	bubbles := []*core.Bubble{
		{Content: "one", Author: "alice"},
		{Content: "two", Author: "alice"},
		{Content: "three", Author: "bob"},
	}

	imported, err := engine.Import(ctx, bubbles, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, imported)

	page, _, err := engine.Search(ctx, query.Filter{}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, page, 3)
}

func TestEnginePurge(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Create(ctx, &core.Bubble{Content: "doomed", Author: "alice"})
	require.NoError(t, err)

	require.NoError(t, engine.Purge(ctx))

	page, _, err := engine.Search(ctx, query.Filter{}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, page)
}
