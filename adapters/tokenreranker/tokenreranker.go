// Package tokenreranker implements capability.Reranker as a lexical,
// token-overlap scorer, standing in for a hosted cross-encoder reranker
// without a network call.
package tokenreranker

import (
	"context"
	"errors"
	"sort"

	"github.com/pkoukk/tiktoken-go"

	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/capability"
)

// Config holds the tunables an Adapter needs.
type Config struct {
	// Encoding names a tiktoken encoding. Optional: defaults to cl100k_base.
	Encoding string
}

func (c *Config) validate() error {
	if c == nil {
		return errors.New("tokenreranker: config cannot be nil")
	}
	if c.Encoding == "" {
		c.Encoding = tiktoken.MODEL_CL100K_BASE
	}
	return nil
}

// Adapter scores candidates by token overlap with the query and returns the
// topK best-scoring candidates, most relevant first.
type Adapter struct {
	encoding *tiktoken.Tiktoken
}

func New(cfg *Config) (*Adapter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	encoding, err := tiktoken.GetEncoding(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	return &Adapter{encoding: encoding}, nil
}

// Rerank scores every candidate against query by the fraction of query
// tokens it contains, then returns the topK highest-scoring candidates.
func (a *Adapter) Rerank(ctx context.Context, query string, candidates []capability.RerankCandidate, topK int) ([]capability.RerankCandidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	queryTokens := tokenSet(a.encoding, query)
	scored := make([]capability.RerankCandidate, len(candidates))
	copy(scored, candidates)

	for i, c := range scored {
		docTokens := tokenSet(a.encoding, c.Title+" "+c.Content)
		scored[i].Score = overlapScore(queryTokens, docTokens)
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

func tokenSet(enc *tiktoken.Tiktoken, text string) map[int]struct{} {
	ids := enc.Encode(text, nil, nil)
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func overlapScore(query, doc map[int]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	var hits int
	for id := range query {
		if _, ok := doc[id]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}
