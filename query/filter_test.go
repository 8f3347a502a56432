package query

import (
	"testing"

	"github.com/poiesic/bubbl/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterValidate(t *testing.T) {
	t.Run("empty filter is valid", func(t *testing.T) {
		assert.NoError(t, Filter{}.Validate())
	})

	t.Run("author alone is valid", func(t *testing.T) {
		assert.NoError(t, Filter{Author: "alice"}.Validate())
	})

	t.Run("exclude-author alone is valid", func(t *testing.T) {
		assert.NoError(t, Filter{ExcludeAuthor: "alice"}.Validate())
	})

	t.Run("author and exclude-author together are rejected", func(t *testing.T) {
		err := Filter{Author: "alice", ExcludeAuthor: "bob"}.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrInvalidQuery)
	})
}

func TestFilterSemantic(t *testing.T) {
	assert.False(t, Filter{}.Semantic())
	assert.False(t, Filter{Author: "alice"}.Semantic())
	assert.True(t, Filter{Text: "hiking"}.Semantic())
}

func TestFilterPredicate(t *testing.T) {
	bubble := func(author, category string) *core.Bubble {
		return &core.Bubble{Content: "x", Author: author, Category: category}
	}

	t.Run("empty filter matches everything", func(t *testing.T) {
		match := Filter{}.Predicate()
		assert.True(t, match(bubble("alice", "")))
		assert.True(t, match(bubble("bob", "news")))
	})

	t.Run("author filter", func(t *testing.T) {
		match := Filter{Author: "alice"}.Predicate()
		assert.True(t, match(bubble("alice", "")))
		assert.False(t, match(bubble("bob", "")))
	})

	t.Run("exclude-author filter", func(t *testing.T) {
		match := Filter{ExcludeAuthor: "alice"}.Predicate()
		assert.False(t, match(bubble("alice", "")))
		assert.True(t, match(bubble("bob", "")))
	})

	t.Run("category filter", func(t *testing.T) {
		match := Filter{Category: "news"}.Predicate()
		assert.True(t, match(bubble("alice", "news")))
		assert.False(t, match(bubble("alice", "hobbies")))
		assert.False(t, match(bubble("alice", "")))
	})

	t.Run("text is not part of the predicate", func(t *testing.T) {
		match := Filter{Text: "hiking"}.Predicate()
		assert.True(t, match(bubble("alice", "")))
	})
}
