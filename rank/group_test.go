package rank

import (
	"testing"

	"github.com/poiesic/bubbl/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByAuthor(t *testing.T) {
	bubbles := []*core.Bubble{
		{Content: "I love hiking", Author: "alice"},
		{Content: "I love hiking too", Author: "bob"},
		{Content: "Mountains are great", Author: "alice"},
		{Content: "Stock market report", Author: "carol"},
	}

	groups := GroupByAuthor(bubbles)

	require.Equal(t, 3, groups.Len())

	// Authors keep first-seen order
	assert.Equal(t, []string{"alice", "bob", "carol"}, groups.Authors())

	// Contents concatenate in retrieval order with the CRLF separator
	assert.Equal(t, "I love hiking\r\nMountains are great", groups.Text("alice"))
	assert.Equal(t, "I love hiking too", groups.Text("bob"))
	assert.Equal(t, "Stock market report", groups.Text("carol"))
}

func TestGroupByAuthorEmpty(t *testing.T) {
	groups := GroupByAuthor(nil)
	assert.Zero(t, groups.Len())
	assert.Empty(t, groups.Authors())
}

func TestGroupByAuthorUnknownAuthor(t *testing.T) {
	groups := GroupByAuthor([]*core.Bubble{{Content: "x", Author: "alice"}})
	assert.Empty(t, groups.Text("nobody"))
}
