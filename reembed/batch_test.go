package reembed

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/poiesic/bubbl/ai/mock"
	"github.com/poiesic/bubbl/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchProcessor_Process(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	added, err := repo.AddBubbles(ctx,
		&core.Bubble{Content: "one", Author: "alice", Vector: []float32{1, 0}},
		&core.Bubble{Content: "two", Author: "bob", Vector: []float32{1, 0}},
	)
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{3, 4} // will normalize to [0.6, 0.8]
		}
		return vectors, nil
	}

	processor := NewBatchProcessor(repo, embedder, 3, time.Millisecond)
	require.NoError(t, processor.Process(ctx, added))

	// Vectors are rewritten and normalized
	for _, b := range added {
		stored, err := repo.GetBubble(ctx, b.Id)
		require.NoError(t, err)
		require.Len(t, stored.Vector, 2)
		assert.InDelta(t, 0.6, stored.Vector[0], 1e-6)
		assert.InDelta(t, 0.8, stored.Vector[1], 1e-6)

		var magnitude float32
		for _, v := range stored.Vector {
			magnitude += v * v
		}
		assert.InDelta(t, 1.0, math.Sqrt(float64(magnitude)), 1e-6)
	}
}

func TestBatchProcessor_EmptyBatch(t *testing.T) {
	repo := setupTestRepo(t)

	embedder := mock.NewMockEmbedder()
	processor := NewBatchProcessor(repo, embedder, 3, time.Millisecond)

	require.NoError(t, processor.Process(context.Background(), nil))
	assert.Zero(t, embedder.CallCount(), "empty batch should not call the embedder")
}

func TestBatchProcessor_RetriesThenSucceeds(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	added, err := repo.AddBubbles(ctx, &core.Bubble{Content: "flaky", Author: "alice"})
	require.NoError(t, err)

	attempts := 0
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("transient failure")
		}
		return [][]float32{{1, 0}}, nil
	}

	processor := NewBatchProcessor(repo, embedder, 5, time.Millisecond)
	require.NoError(t, processor.Process(ctx, added))
	assert.Equal(t, 3, attempts)
}

func TestBatchProcessor_ExhaustsRetries(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	added, err := repo.AddBubbles(ctx, &core.Bubble{Content: "doomed", Author: "alice"})
	require.NoError(t, err)

	boom := errors.New("embedder down")
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, boom
	}

	processor := NewBatchProcessor(repo, embedder, 2, time.Millisecond)
	err = processor.Process(ctx, added)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestBatchProcessor_CountMismatch(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	added, err := repo.AddBubbles(ctx, &core.Bubble{Content: "one", Author: "alice"})
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0}, {0, 1}}, nil // too many
	}

	processor := NewBatchProcessor(repo, embedder, 1, time.Millisecond)
	err = processor.Process(ctx, added)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}
