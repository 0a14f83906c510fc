package tokenreranker_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/adapters/tokenreranker"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/capability"
)

func TestRerankOrdersByTokenOverlap(t *testing.T) {
	a, err := tokenreranker.New(&tokenreranker.Config{})
	require.NoError(t, err)

	candidates := []capability.RerankCandidate{
		{ID: "1", Title: "unrelated", Content: "bananas and oranges"},
		{ID: "2", Title: "climate report", Content: "climate change is driven by greenhouse gas emissions"},
	}

	out, err := a.Rerank(context.Background(), "what causes climate change", candidates, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "2", out[0].ID)
}

func TestRerankTruncatesToTopK(t *testing.T) {
	a, err := tokenreranker.New(&tokenreranker.Config{})
	require.NoError(t, err)

	candidates := []capability.RerankCandidate{
		{ID: "1", Title: "a", Content: "climate"},
		{ID: "2", Title: "b", Content: "climate change"},
		{ID: "3", Title: "c", Content: "climate change emissions"},
	}
	out, err := a.Rerank(context.Background(), "climate change emissions", candidates, 1)
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestRerankEmptyCandidates(t *testing.T) {
	a, err := tokenreranker.New(&tokenreranker.Config{})
	require.NoError(t, err)

	out, err := a.Rerank(context.Background(), "climate", nil, 5)
	require.NoError(t, err)
	require.Nil(t, out)
}
