package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/apperr"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/capability"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/classify"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/faithfulness"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/generate"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/langroute"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/pipeline"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/querycache"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/retrieve"
)

type harnessOpts struct {
	classifierResponse string
	primaryAnswer      string
	primaryErr         error
	secondaryAnswer    string
	scorerScore        float64
	scorerErr          error
	translatorErr      error
	vectorMatches      []capability.VectorMatch
	cacheBackend       *fakeCacheBackend
}

func defaultOpts() harnessOpts {
	return harnessOpts{
		classifierResponse: "Language: en\nClassification: on-topic\nLanguageMatch: yes\nRewritten: N/A",
		primaryAnswer:      "Climate change is a long-term shift in weather patterns.",
		secondaryAnswer:    "respuesta generada",
		scorerScore:        0.9,
		vectorMatches: []capability.VectorMatch{
			{ID: "1", Score: 0.9, Title: "IPCC Summary", URL: "https://ipcc.example", Content: "The climate is warming due to greenhouse gas emissions."},
		},
	}
}

func buildPipeline(t *testing.T, opts harnessOpts) *pipeline.Pipeline {
	t.Helper()

	registry := langroute.NewRegistry()
	router := langroute.NewRouter(registry, nil)

	classifier, err := classify.New(&fakeClassifierLLM{response: opts.classifierResponse})
	require.NoError(t, err)

	backend := opts.cacheBackend
	if backend == nil {
		backend = newFakeCacheBackend()
	}
	cache := querycache.New(&querycache.Config{Backend: backend})

	retriever, err := retrieve.New(&retrieve.Config{
		Embedder: &fakeEmbedder{},
		Index:    &fakeVectorIndex{matches: opts.vectorMatches},
		Reranker: fakeReranker{},
		TopK:     20,
		FinalN:   6,
	})
	require.NoError(t, err)

	generator, err := generate.New(&generate.Config{
		Primary:   &fakeChatModel{answer: opts.primaryAnswer, err: opts.primaryErr},
		Secondary: &fakeChatModel{answer: opts.secondaryAnswer},
	})
	require.NoError(t, err)

	guard, err := faithfulness.New(&faithfulness.Config{
		Scorer: &fakeScorer{score: opts.scorerScore, err: opts.scorerErr},
	})
	require.NoError(t, err)

	p, err := pipeline.New(&pipeline.Config{
		Registry:   registry,
		Router:     router,
		Classifier: classifier,
		Cache:      cache,
		Retriever:  retriever,
		Generator:  generator,
		Guard:      guard,
		Translator: &fakeTranslator{err: opts.translatorErr},
	})
	require.NoError(t, err)
	return p
}

func TestRunHappyPathEnglishReturnsGeneratedAnswer(t *testing.T) {
	p := buildPipeline(t, defaultOpts())

	result, err := p.Run(context.Background(), pipeline.Request{
		Query:    "What is climate change?",
		Language: "en",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Climate change is a long-term shift in weather patterns.", result.Response)
	require.Len(t, result.Citations, 1)
	assert.Equal(t, "IPCC Summary", result.Citations[0].Title)
	assert.Equal(t, 0.9, result.FaithfulnessScore)
	assert.Equal(t, langroute.FamilyPrimary, result.ModelFamily)
}

func TestRunTranslatesToDeclaredNonEnglishLanguage(t *testing.T) {
	opts := defaultOpts()
	p := buildPipeline(t, opts)

	result, err := p.Run(context.Background(), pipeline.Request{
		Query:    "qwerty uiop asdf zxcv",
		Language: "fr",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, langroute.FamilySecondary, result.ModelFamily)
	assert.Contains(t, result.Response, "[French]")
}

func TestRunStrictLanguageMismatchRefusesImmediately(t *testing.T) {
	p := buildPipeline(t, defaultOpts())

	result, err := p.Run(context.Background(), pipeline.Request{
		Query:    "le climat est tres important pour notre avenir sur cette terre",
		Language: "en",
	})
	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, apperr.KindLanguageMismatch, apperr.KindOf(err))
	assert.Contains(t, result.Response, "different language")
}

func TestRunOffTopicClassificationRefuses(t *testing.T) {
	opts := defaultOpts()
	opts.classifierResponse = "Language: en\nClassification: off-topic\nLanguageMatch: yes\nRewritten: N/A"
	p := buildPipeline(t, opts)

	result, err := p.Run(context.Background(), pipeline.Request{
		Query:    "who won the game last night",
		Language: "en",
	})
	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, apperr.KindRefusal, apperr.KindOf(err))
}

func TestRunCacheHitSkipsGeneration(t *testing.T) {
	opts := defaultOpts()
	opts.cacheBackend = newFakeCacheBackend()
	p := buildPipeline(t, opts)

	first, err := p.Run(context.Background(), pipeline.Request{Query: "What is climate change?", Language: "en"})
	require.NoError(t, err)
	require.True(t, first.Success)

	poisoned := defaultOpts()
	poisoned.cacheBackend = opts.cacheBackend
	poisoned.primaryAnswer = "THIS SHOULD NEVER BE RETURNED"
	p2 := buildPipeline(t, poisoned)

	second, err := p2.Run(context.Background(), pipeline.Request{Query: "What is climate change?", Language: "en"})
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.Equal(t, first.Response, second.Response)
	assert.NotEqual(t, "THIS SHOULD NEVER BE RETURNED", second.Response)
}

func TestRunFaithfulnessRejectedReplacesAnswerButKeepsCitations(t *testing.T) {
	opts := defaultOpts()
	opts.scorerScore = 0.05
	p := buildPipeline(t, opts)

	result, err := p.Run(context.Background(), pipeline.Request{Query: "What is climate change?", Language: "en"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEqual(t, opts.primaryAnswer, result.Response)
	assert.NotEmpty(t, result.Citations)
	assert.Equal(t, 0.05, result.FaithfulnessScore)
}

func TestRunReturnsInputInvalidForBlankQuery(t *testing.T) {
	p := buildPipeline(t, defaultOpts())
	result, err := p.Run(context.Background(), pipeline.Request{Query: "   ", Language: "en"})
	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, apperr.KindInputInvalid, apperr.KindOf(err))
}

func TestRunHonorsCancellationAndSkipsCacheWrite(t *testing.T) {
	opts := defaultOpts()
	backend := newFakeCacheBackend()
	opts.cacheBackend = backend
	p := buildPipeline(t, opts)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := p.Run(ctx, pipeline.Request{Query: "What is climate change?", Language: "en"})
	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "cancelled", result.Response)
	assert.Equal(t, apperr.KindCancelled, apperr.KindOf(err))
	assert.Empty(t, backend.values, "a cancelled run must not write to the cache")
}
