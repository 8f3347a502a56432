package query

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/bubbl/ai/mock"
	"github.com/poiesic/bubbl/core"
	"github.com/poiesic/bubbl/storage"
	"github.com/poiesic/bubbl/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, storage.BubbleRepository, *mock.MockProvider) {
	t.Helper()

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	provider := mock.NewMockProvider().(*mock.MockProvider)
	service, err := NewService(repo, provider)
	require.NoError(t, err)

	return service, repo, provider
}

func seedBubbles(t *testing.T, repo storage.BubbleRepository, bubbles ...*core.Bubble) {
	t.Helper()
	_, err := repo.AddBubbles(context.Background(), bubbles...)
	require.NoError(t, err)
}

func TestNewServiceValidation(t *testing.T) {
	provider := mock.NewMockProvider()

	_, err := NewService(nil, provider)
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer func() { repo.Close(); backend.Close() }()

	_, err = NewService(repo, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
}

func TestFetchValidation(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	t.Run("contradictory filter", func(t *testing.T) {
		_, err := service.Fetch(ctx, Filter{Author: "a", ExcludeAuthor: "b"}, 10, 0)
		assert.ErrorIs(t, err, core.ErrInvalidQuery)
	})

	t.Run("negative limit", func(t *testing.T) {
		_, err := service.Fetch(ctx, Filter{}, -1, 0)
		assert.ErrorIs(t, err, core.ErrInvalidQuery)
	})

	t.Run("negative offset", func(t *testing.T) {
		_, err := service.Fetch(ctx, Filter{}, 10, -1)
		assert.ErrorIs(t, err, core.ErrInvalidQuery)
	})

	t.Run("zero limit yields empty result", func(t *testing.T) {
		page, err := service.Fetch(ctx, Filter{}, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, page)
	})
}

func TestFetchChronological(t *testing.T) {
	service, repo, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	seedBubbles(t, repo,
		&core.Bubble{Content: "oldest", Author: "alice", CreatedAt: now.Add(-2 * time.Hour)},
		&core.Bubble{Content: "middle", Author: "bob", CreatedAt: now.Add(-1 * time.Hour)},
		&core.Bubble{Content: "newest", Author: "alice", CreatedAt: now},
	)

	page, err := service.Fetch(ctx, Filter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, "newest", page[0].Content)
	assert.Equal(t, "oldest", page[2].Content)

	// Author filter applies before pagination
	page, err = service.Fetch(ctx, Filter{Author: "alice"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "newest", page[0].Content)
	assert.Equal(t, "oldest", page[1].Content)
}

func TestFetchSemantic(t *testing.T) {
	service, repo, provider := newTestService(t)
	ctx := context.Background()

	seedBubbles(t, repo,
		&core.Bubble{Content: "hiking", Author: "alice", Vector: []float32{1, 0}},
		&core.Bubble{Content: "stocks", Author: "bob", Vector: []float32{0, 1}},
	)

	// Query vector points at the hiking bubble
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}

	page, err := service.Fetch(ctx, Filter{Text: "trails"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "hiking", page[0].Content)
	assert.Equal(t, "stocks", page[1].Content)
}

func TestSearchHasMore(t *testing.T) {
	service, repo, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	for i := 0; i < 5; i++ {
		seedBubbles(t, repo, &core.Bubble{
			Content:   "bubble " + string(rune('a'+i)),
			Author:    "alice",
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
		})
	}

	t.Run("full page with more behind it", func(t *testing.T) {
		page, hasMore, err := service.Search(ctx, Filter{}, 2, 0)
		require.NoError(t, err)
		assert.Len(t, page, 2)
		assert.True(t, hasMore)
	})

	t.Run("exact final page", func(t *testing.T) {
		page, hasMore, err := service.Search(ctx, Filter{}, 5, 0)
		require.NoError(t, err)
		assert.Len(t, page, 5)
		assert.False(t, hasMore)
	})

	t.Run("short page means no more", func(t *testing.T) {
		page, hasMore, err := service.Search(ctx, Filter{}, 3, 3)
		require.NoError(t, err)
		assert.Len(t, page, 2)
		assert.False(t, hasMore)
	})

	t.Run("offset past the end", func(t *testing.T) {
		page, hasMore, err := service.Search(ctx, Filter{}, 3, 10)
		require.NoError(t, err)
		assert.Empty(t, page)
		assert.False(t, hasMore)
	})
}

func TestSearchEmptyStore(t *testing.T) {
	service, _, _ := newTestService(t)

	page, hasMore, err := service.Search(context.Background(), Filter{}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.False(t, hasMore)
}

func TestProfile(t *testing.T) {
	service, repo, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	seedBubbles(t, repo,
		&core.Bubble{Content: "mine", Author: "alice", CreatedAt: now},
		&core.Bubble{Content: "theirs", Author: "bob", CreatedAt: now.Add(time.Minute)},
	)

	t.Run("only the author's bubbles", func(t *testing.T) {
		profile, err := service.Profile(ctx, "alice", Filter{}, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, "alice", profile.Author)
		require.Len(t, profile.Bubbles, 1)
		assert.Equal(t, "mine", profile.Bubbles[0].Content)
		assert.Equal(t, 1, profile.TotalCount)
	})

	t.Run("filter author fields are overridden", func(t *testing.T) {
		// A stale ExcludeAuthor must not contradict the profile author
		profile, err := service.Profile(ctx, "alice", Filter{ExcludeAuthor: "alice"}, 10, 0)
		require.NoError(t, err)
		require.Len(t, profile.Bubbles, 1)
	})

	t.Run("unknown author yields an empty profile", func(t *testing.T) {
		profile, err := service.Profile(ctx, "nobody", Filter{}, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, "nobody", profile.Author)
		assert.Empty(t, profile.Bubbles)
		assert.Zero(t, profile.TotalCount)
	})

	t.Run("empty author is rejected", func(t *testing.T) {
		_, err := service.Profile(ctx, "", Filter{}, 10, 0)
		assert.ErrorIs(t, err, core.ErrInvalidQuery)
	})
}
