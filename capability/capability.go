// Package capability defines the narrow interfaces every externally-owned
// system the pipeline talks to must satisfy: translation, classification,
// chat generation, embedding, vector search, reranking, and caching. The
// core pipeline never imports a concrete SDK directly — only these
// interfaces, injected at construction.
//
// Each interface's parameter and result types are deliberately minimal and
// self-contained rather than borrowed from a higher-level package, so this
// package has no dependency on the rest of the module and can be imported
// from anywhere without risk of an import cycle.
package capability

import (
	"context"
	"time"
)

// Translator translates text from one named language to another.
// Implementations must recover a backend failure into "return the input
// text unchanged" — callers rely on this to degrade gracefully rather than
// fail a request outright when a translation backend is unavailable.
type Translator interface {
	Translate(ctx context.Context, text, sourceLangName, targetLangName string) (string, error)
}

// StructuredLLM produces a single text completion from a prompt and an
// optional system instruction. It backs both the classifier/rewriter stage
// and, optionally, the faithfulness scorer.
type StructuredLLM interface {
	GenerateStructured(ctx context.Context, prompt, system string) (string, error)
}

// Doc is the minimal document shape a ChatModel needs to ground an answer.
type Doc struct {
	Title   string
	URL     string
	Content string
}

// Turn is one prior conversation turn, as a ChatModel needs to see it.
type Turn struct {
	Role    string
	Content string
}

// ChatModel generates a final answer from a query, supporting documents,
// a system prompt, and prior conversation turns.
type ChatModel interface {
	GenerateAnswer(ctx context.Context, query string, docs []Doc, system string, history []Turn) (string, error)
}

// Embedder turns text into a dense vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorMatch is one result from a VectorIndex query.
type VectorMatch struct {
	ID      string
	Score   float64
	Title   string
	URL     string
	Content string
}

// VectorIndex performs nearest-neighbor search over a vector store.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, topK int) ([]VectorMatch, error)
}

// RerankCandidate is one document being scored by a Reranker.
type RerankCandidate struct {
	ID      string
	Title   string
	URL     string
	Content string
	Score   float64
}

// Reranker reorders a candidate set against a query and returns the top K.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []RerankCandidate, topK int) ([]RerankCandidate, error)
}

// Cache is a deliberately dumb key/value-plus-recent-list store. It knows
// nothing about cache keys, query normalization, or fuzzy matching — that
// domain logic, and the structured-document encoding, live in querycache.
// This keeps the interface swappable for any real backend (Redis, an
// in-process store, anything else that can hold bytes and a bounded list)
// without that backend needing to know the shape of what it stores.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	PushRecent(ctx context.Context, listKey string, entry string, maxLen int) error
	ReadRecent(ctx context.Context, listKey string, n int) ([]string, error)
}
