package query

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/bubbl/ai"
	"github.com/poiesic/bubbl/core"
	"github.com/poiesic/bubbl/storage"
)

// Service executes filtered, optionally semantic, paginated bubble lookups.
type Service struct {
	bubbles  storage.BubbleRepository
	embedder ai.Embedder
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewService creates a new query service.
func NewService(bubbles storage.BubbleRepository, provider ai.AIProvider, opts ...Option) (*Service, error) {
	if bubbles == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Service{
		bubbles:  bubbles,
		embedder: provider.Embedder(),
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Fetch returns up to limit bubbles matching the filter, skipping the first
// offset matches. Ordering is newest first, or relevance to the filter text
// when one is set. Fewer than limit results means end of stream.
func (s *Service) Fetch(ctx context.Context, f Filter, limit, offset int) ([]*core.Bubble, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("%w: negative limit or offset", core.ErrInvalidQuery)
	}
	if limit == 0 {
		return nil, nil
	}

	if f.Semantic() {
		s.logger.Debug("performing semantic fetch", "text", f.Text, "limit", limit, "offset", offset)

		vector, err := s.embedder.EmbedText(ctx, f.Text)
		if err != nil {
			s.logger.Error("error generating embedding for query", "err", err)
			return nil, err
		}

		bubbles, err := s.bubbles.FetchNearest(ctx, vector, f.Predicate(), limit, offset)
		if err != nil {
			s.logger.Error("error querying nearest bubbles", "err", err)
			return nil, fmt.Errorf("%w: %w", core.ErrDatabase, err)
		}
		return bubbles, nil
	}

	s.logger.Debug("performing chronological fetch", "limit", limit, "offset", offset)

	bubbles, err := s.bubbles.FetchRecent(ctx, f.Predicate(), limit, offset)
	if err != nil {
		s.logger.Error("error querying recent bubbles", "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrDatabase, err)
	}
	return bubbles, nil
}

// HasMore reports whether another page exists past (limit, offset).
// It probes with a one-item lookahead fetch instead of asking the store
// for a total count.
func (s *Service) HasMore(ctx context.Context, f Filter, limit, offset int) (bool, error) {
	probe, err := s.Fetch(ctx, f, 1, offset+limit)
	if err != nil {
		return false, err
	}
	return len(probe) > 0, nil
}

// Search returns one page of bubbles plus a has-more flag.
// The lookahead probe is skipped when the page itself is short,
// since a short page already proves the stream is exhausted.
func (s *Service) Search(ctx context.Context, f Filter, limit, offset int) ([]*core.Bubble, bool, error) {
	page, err := s.Fetch(ctx, f, limit, offset)
	if err != nil {
		return nil, false, err
	}

	if len(page) < limit {
		return page, false, nil
	}

	hasMore, err := s.HasMore(ctx, f, limit, offset)
	if err != nil {
		return nil, false, err
	}
	return page, hasMore, nil
}

// Profile returns one author's bubbles, newest first (or by relevance when
// the filter carries text). An author with zero bubbles yields an empty
// profile, not an error.
func (s *Service) Profile(ctx context.Context, author string, f Filter, limit, offset int) (*core.UserProfile, error) {
	if author == "" {
		return nil, fmt.Errorf("%w: empty author on profile lookup", core.ErrInvalidQuery)
	}

	f.Author = author
	f.ExcludeAuthor = ""

	bubbles, err := s.Fetch(ctx, f, limit, offset)
	if err != nil {
		return nil, err
	}

	return &core.UserProfile{
		Author:     author,
		TotalCount: len(bubbles),
		Bubbles:    bubbles,
	}, nil
}
