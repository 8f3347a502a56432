package reembed

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/poiesic/bubbl/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, 100, config.BatchSize)
	assert.Equal(t, 100, config.ReportInterval)
	assert.Equal(t, 3, config.MaxRetries)
	assert.Equal(t, 1*time.Second, config.RetryDelay)
}

func TestReembedder_Run(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	addTestBubbles(t, repo, 7)

	embedder := mock.NewMockEmbedder()
	var buf bytes.Buffer

	config := &Config{
		BatchSize:      3,
		ReportInterval: 1,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
	}

	reembedder := NewReembedder(repo, embedder, config, &buf)
	require.NoError(t, reembedder.Run(ctx))

	output := buf.String()
	assert.Contains(t, output, "Starting reembedding of 7 bubbles")
	assert.Contains(t, output, "Reembedding complete")

	// Every bubble got a fresh normalized vector
	bubbles, err := repo.FetchRecent(ctx, nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, bubbles, 7)
	for _, b := range bubbles {
		assert.NotEmpty(t, b.Vector)
	}
}

func TestReembedder_EmptyStore(t *testing.T) {
	repo := setupTestRepo(t)

	embedder := mock.NewMockEmbedder()
	var buf bytes.Buffer

	reembedder := NewReembedder(repo, embedder, nil, &buf)
	require.NoError(t, reembedder.Run(context.Background()))

	assert.Contains(t, buf.String(), "No bubbles found")
	assert.Zero(t, embedder.CallCount(), "empty store should not call the embedder")
}

func TestReembedder_NilConfigUsesDefaults(t *testing.T) {
	repo := setupTestRepo(t)

	reembedder := NewReembedder(repo, mock.NewMockEmbedder(), nil, &bytes.Buffer{})
	assert.Equal(t, 100, reembedder.config.BatchSize)
}
