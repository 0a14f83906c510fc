package retrieve

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/capability"
)

// Config holds the collaborators and tunables a Retriever needs.
type Config struct {
	Embedder capability.Embedder
	Index    capability.VectorIndex
	Reranker capability.Reranker
	Logger   *zap.Logger

	// TopK bounds how many candidates are pulled from the vector index
	// before reranking. Optional: defaults to 20.
	TopK int
	// FinalN bounds how many documents survive reranking. Optional:
	// defaults to 6.
	FinalN int
}

func (c *Config) validate() error {
	if c == nil {
		return errors.New("retrieve: config cannot be nil")
	}
	if c.Embedder == nil {
		return errors.New("retrieve: embedder is required")
	}
	if c.Index == nil {
		return errors.New("retrieve: vector index is required")
	}
	if c.Reranker == nil {
		return errors.New("retrieve: reranker is required")
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.TopK <= 0 {
		c.TopK = 20
	}
	if c.FinalN <= 0 {
		c.FinalN = 6
	}
	return nil
}

// Retriever embeds a query, searches a vector index, reranks the
// candidates, and returns a preprocessed, bounded document list.
type Retriever struct {
	embedder capability.Embedder
	index    capability.VectorIndex
	reranker capability.Reranker
	logger   *zap.Logger
	topK     int
	finalN   int
}

func New(cfg *Config) (*Retriever, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Retriever{
		embedder: cfg.Embedder,
		index:    cfg.Index,
		reranker: cfg.Reranker,
		logger:   cfg.Logger,
		topK:     cfg.TopK,
		finalN:   cfg.FinalN,
	}, nil
}

// Retrieve returns the documents grounding query. On any upstream failure,
// including this stage's own timeout, it logs a warning and returns an
// empty slice with a nil error — per the specification, the generator must
// still be called even when retrieval comes back empty. A genuine
// request-level cancellation is the one failure that propagates as an
// error, since it means the caller has stopped waiting on the whole
// request, not just this stage.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]Document, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		r.logger.Warn("embedding failed, proceeding with no documents", zap.Error(err))
		return nil, nil
	}

	matches, err := r.index.Query(ctx, vector, r.topK)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		r.logger.Warn("vector index query failed, proceeding with no documents", zap.Error(err))
		return nil, nil
	}
	if len(matches) == 0 {
		return nil, nil
	}

	candidates := make([]capability.RerankCandidate, 0, len(matches))
	for _, m := range matches {
		candidates = append(candidates, capability.RerankCandidate{
			ID: m.ID, Title: m.Title, URL: m.URL, Content: m.Content, Score: m.Score,
		})
	}

	reranked, err := r.reranker.Rerank(ctx, query, candidates, r.finalN)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		r.logger.Warn("reranking failed, falling back to vector-index order", zap.Error(err))
		reranked = candidates
		if len(reranked) > r.finalN {
			reranked = reranked[:r.finalN]
		}
	}

	docs := make([]Document, 0, len(reranked))
	for _, c := range reranked {
		docs = append(docs, Document{Title: c.Title, URL: c.URL, Content: c.Content, Score: c.Score})
	}

	docs = Preprocess(docs)
	if len(docs) > r.finalN {
		docs = docs[:r.finalN]
	}
	return docs, nil
}
