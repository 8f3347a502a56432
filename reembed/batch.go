package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/bubbl/ai"
	"github.com/poiesic/bubbl/core"
	"github.com/poiesic/bubbl/storage"
)

// BatchProcessor handles embedding generation for batches of bubbles.
type BatchProcessor struct {
	repo           storage.BubbleRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.BubbleRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates embeddings for a batch of bubbles and updates them in
// the store. Vectors are normalized after embedding to keep cosine scores
// comparable across embedding models.
func (bp *BatchProcessor) Process(ctx context.Context, bubbles []*core.Bubble) error {
	if len(bubbles) == 0 {
		return nil
	}

	texts := make([]string, len(bubbles))
	for i, bubble := range bubbles {
		texts[i] = bubble.Content
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(bubbles) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(bubbles), len(embeddings))
	}

	for i := range bubbles {
		bubbles[i].Vector = NormalizeVector(embeddings[i])
	}

	_, err = bp.repo.UpdateBubbles(ctx, bubbles...)
	if err != nil {
		return fmt.Errorf("failed to update bubbles: %w", err)
	}

	return nil
}
