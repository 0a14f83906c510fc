package pipeline_test

import (
	"context"
	"sync"
	"time"

	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/capability"
)

// fakeTranslator echoes back text prefixed with the target language, except
// when configured to fail, in which case it returns the input unchanged
// (matching the contract every Translator implementation must honor).
type fakeTranslator struct {
	err error
}

func (f *fakeTranslator) Translate(_ context.Context, text, _, targetLangName string) (string, error) {
	if f.err != nil {
		return text, f.err
	}
	return "[" + targetLangName + "] " + text, nil
}

// fakeClassifierLLM returns a pre-scripted four-line structured response.
type fakeClassifierLLM struct {
	response string
	err      error
}

func (f *fakeClassifierLLM) GenerateStructured(context.Context, string, string) (string, error) {
	return f.response, f.err
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeVectorIndex struct {
	matches []capability.VectorMatch
	err     error
}

func (f *fakeVectorIndex) Query(context.Context, []float32, int) ([]capability.VectorMatch, error) {
	return f.matches, f.err
}

type fakeReranker struct{}

func (fakeReranker) Rerank(_ context.Context, _ string, candidates []capability.RerankCandidate, topK int) ([]capability.RerankCandidate, error) {
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

type fakeChatModel struct {
	answer string
	err    error
}

func (f *fakeChatModel) GenerateAnswer(context.Context, string, []capability.Doc, string, []capability.Turn) (string, error) {
	return f.answer, f.err
}

type fakeScorer struct {
	score float64
	err   error
}

func (f *fakeScorer) Score(context.Context, string, string, []string) (float64, error) {
	return f.score, f.err
}

// fakeCacheBackend is an in-memory capability.Cache for orchestrator tests.
type fakeCacheBackend struct {
	mu     sync.Mutex
	values map[string][]byte
	lists  map[string][]string
}

func newFakeCacheBackend() *fakeCacheBackend {
	return &fakeCacheBackend{values: map[string][]byte{}, lists: map[string][]string{}}
}

func (c *fakeCacheBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *fakeCacheBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *fakeCacheBackend) PushRecent(_ context.Context, listKey, entry string, maxLen int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[listKey] = append([]string{entry}, c.lists[listKey]...)
	if len(c.lists[listKey]) > maxLen {
		c.lists[listKey] = c.lists[listKey][:maxLen]
	}
	return nil
}

func (c *fakeCacheBackend) ReadRecent(_ context.Context, listKey string, n int) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.lists[listKey]
	if len(list) > n {
		list = list[:n]
	}
	return list, nil
}
