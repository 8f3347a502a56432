package rank

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/bubbl/ai"
	"github.com/poiesic/bubbl/core"
	"github.com/poiesic/bubbl/query"
)

// Ranker computes author-affinity rankings. For a reference actor it
// collects bubbles, aggregates them per author, summarizes and embeds every
// author's writing concurrently, and ranks candidates by cosine similarity
// to the actor's own profile.
type Ranker struct {
	queries     *query.Service
	summarizer  ai.Summarizer
	embedder    ai.Embedder
	summaryPool *ants.Pool
	embedPool   *ants.Pool
	logger      *slog.Logger
}

// Option configures a Ranker.
type Option func(*Ranker) error

// WithPoolSize sets the worker pool size for concurrent summarization and
// embedding. Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(r *Ranker) error {
		if size < 1 {
			size = 1
		}

		// Release old pools
		if r.summaryPool != nil {
			r.summaryPool.Release()
		}
		if r.embedPool != nil {
			r.embedPool.Release()
		}

		// Create new pools
		summaryPool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		embedPool, err := ants.NewPool(size)
		if err != nil {
			summaryPool.Release()
			return err
		}

		r.summaryPool = summaryPool
		r.embedPool = embedPool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRanker creates a new ranker.
func NewRanker(queries *query.Service, provider ai.AIProvider, opts ...Option) (*Ranker, error) {
	if queries == nil {
		return nil, ErrQueryServiceRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	summaryPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	embedPool, err := ants.NewPool(poolSize)
	if err != nil {
		summaryPool.Release()
		return nil, err
	}

	r := &Ranker{
		queries:     queries,
		summarizer:  provider.Summarizer(),
		embedder:    provider.Embedder(),
		summaryPool: summaryPool,
		embedPool:   embedPool,
		logger:      slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(r); optErr != nil {
			r.Release()
			return nil, optErr
		}
	}

	return r, nil
}

// Release releases the worker pools.
// The ranker should not be used after calling Release.
func (r *Ranker) Release() {
	if r.summaryPool != nil {
		r.summaryPool.Release()
	}
	if r.embedPool != nil {
		r.embedPool.Release()
	}
}

// RankAuthors ranks every other author matching the filter by the cosine
// similarity of their aggregated writing to the actor's own.
// candidateCap bounds the candidate bubble fetch, referenceCap bounds the
// actor's own bubble fetch.
func (r *Ranker) RankAuthors(ctx context.Context, actor string, f query.Filter, candidateCap, referenceCap int) ([]core.RankedAuthor, error) {
	return r.RankAuthorsWithMonitor(ctx, actor, f, candidateCap, referenceCap, nil)
}

// RankAuthorsWithMonitor ranks authors with monitoring.
// The monitor receives callbacks at each stage of the pipeline.
//
// The pipeline either returns a complete ranking or fails entirely: a
// failure at any stage discards all partial results, and a retry starts
// over from the reference collection.
func (r *Ranker) RankAuthorsWithMonitor(ctx context.Context, actor string, f query.Filter, candidateCap, referenceCap int, monitor Monitor) ([]core.RankedAuthor, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if actor == "" {
		return nil, fmt.Errorf("%w: empty actor on ranking request", core.ErrInvalidQuery)
	}

	monitor.Start(actor)

	// 1. Collect the reference actor's own bubbles
	refFilter := f
	refFilter.Author = actor
	refFilter.ExcludeAuthor = ""
	reference, err := r.queries.Fetch(ctx, refFilter, referenceCap, 0)
	if err != nil {
		r.logger.Error("error collecting reference bubbles", "actor", actor, "err", err)
		return nil, err
	}
	if len(reference) == 0 {
		return nil, fmt.Errorf("%w: no profile found for %q", core.ErrBubbleNotFound, actor)
	}
	monitor.AfterReferenceCollect(reference)

	// 2. Collect candidate bubbles from all other authors
	candFilter := f
	candFilter.Author = ""
	candFilter.ExcludeAuthor = actor
	candidates, err := r.queries.Fetch(ctx, candFilter, candidateCap, 0)
	if err != nil {
		r.logger.Error("error collecting candidate bubbles", "err", err)
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidate profiles matched the query", core.ErrBubbleNotFound)
	}
	monitor.AfterCandidateCollect(candidates)

	// 3. Group by author, folding the actor in as one more group
	groups := GroupByAuthor(append(slices.Clone(candidates), reference...))
	monitor.AfterGrouping(groups)

	// 4. Summarize every group concurrently
	summaries, err := r.summarizeGroups(ctx, groups)
	if err != nil {
		r.logger.Error("error summarizing author content", "err", err)
		return nil, err
	}
	monitor.AfterSummaries(summaries)

	// 5. Embed every summary concurrently, the actor's included
	vectors, err := r.embedSummaries(ctx, groups.Authors(), summaries)
	if err != nil {
		r.logger.Error("error embedding author summaries", "err", err)
		return nil, err
	}
	monitor.AfterEmbeddings(vectors)

	// 6. Pop the actor's vector and rank the remainder against it
	referenceVector := vectors[actor]
	delete(vectors, actor)

	ranked := Rank(vectors, referenceVector)
	monitor.Finish(ranked)

	return ranked, nil
}

// summarizeGroups fans out one summarization call per author and gathers
// all results. A single failure fails the whole batch; no partial results
// are returned.
func (r *Ranker) summarizeGroups(ctx context.Context, groups *AuthorGroups) (map[string]string, error) {
	r.logger.Debug("summarizing author groups", "authors", groups.Len())

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		firstErr  error
		summaries = make(map[string]string, groups.Len())
	)

	setErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, author := range groups.Authors() {
		author := author
		text := groups.Text(author)

		wg.Add(1)
		if err := r.summaryPool.Submit(func() {
			defer wg.Done()
			summary, err := r.summarizer.Summarize(ctx, text)
			if err != nil {
				setErr(err)
				return
			}
			mu.Lock()
			summaries[author] = summary
			mu.Unlock()
		}); err != nil {
			wg.Done()
			setErr(err)
		}
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return summaries, nil
}

// embedSummaries fans out one embedding call per author and gathers all
// results, with the same all-or-nothing discipline as summarizeGroups.
// Submission order follows the aggregator's author order; completion order
// is unconstrained since each result is keyed by its author.
func (r *Ranker) embedSummaries(ctx context.Context, authors []string, summaries map[string]string) (map[string][]float32, error) {
	r.logger.Debug("embedding author summaries", "authors", len(authors))

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
		vectors  = make(map[string][]float32, len(authors))
	)

	setErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, author := range authors {
		author := author
		summary := summaries[author]

		wg.Add(1)
		if err := r.embedPool.Submit(func() {
			defer wg.Done()
			vector, err := r.embedder.EmbedText(ctx, summary)
			if err != nil {
				setErr(err)
				return
			}
			mu.Lock()
			vectors[author] = vector
			mu.Unlock()
		}); err != nil {
			wg.Done()
			setErr(err)
		}
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}

// Rank scores every candidate vector against the reference vector and
// returns authors in descending score order. Equal scores order by author
// ascending so that mocked-vector ties stay deterministic.
func Rank(candidates map[string][]float32, reference []float32) []core.RankedAuthor {
	ranked := make([]core.RankedAuthor, 0, len(candidates))
	for author, vector := range candidates {
		ranked = append(ranked, core.RankedAuthor{
			Author: author,
			Score:  core.CosineSimilarity(reference, vector),
		})
	}

	slices.SortFunc(ranked, func(a, b core.RankedAuthor) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return strings.Compare(a.Author, b.Author)
	})

	return ranked
}
