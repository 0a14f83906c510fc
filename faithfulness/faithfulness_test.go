package faithfulness_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/faithfulness"
)

type stubScorer struct {
	score float64
	err   error
}

func (s stubScorer) Score(context.Context, string, string, []string) (float64, error) {
	return s.score, s.err
}

func newGuard(t *testing.T, scorer faithfulness.Scorer) *faithfulness.Guard {
	t.Helper()
	g, err := faithfulness.New(&faithfulness.Config{Scorer: scorer})
	require.NoError(t, err)
	return g
}

func TestScoreClassifiesFaithful(t *testing.T) {
	g := newGuard(t, stubScorer{score: 0.85})
	score, verdict, err := g.Score(context.Background(), "q", "a", []string{"ctx"})
	require.NoError(t, err)
	assert.Equal(t, 0.85, score)
	assert.Equal(t, faithfulness.Faithful, verdict)
}

func TestScoreClassifiesDegradedAtLowerBoundInclusive(t *testing.T) {
	g := newGuard(t, stubScorer{score: 0.4})
	_, verdict, err := g.Score(context.Background(), "q", "a", nil)
	require.NoError(t, err)
	assert.Equal(t, faithfulness.Degraded, verdict)
}

func TestScoreClassifiesRejectedBelowDegradedFloor(t *testing.T) {
	g := newGuard(t, stubScorer{score: 0.1})
	_, verdict, err := g.Score(context.Background(), "q", "a", nil)
	require.NoError(t, err)
	assert.Equal(t, faithfulness.Rejected, verdict)
}

func TestScoreFaithfulBoundaryIsInclusive(t *testing.T) {
	g := newGuard(t, stubScorer{score: 0.7})
	_, verdict, err := g.Score(context.Background(), "q", "a", nil)
	require.NoError(t, err)
	assert.Equal(t, faithfulness.Faithful, verdict)
}

func TestScoreFailureDefaultsToDegradedFailureScore(t *testing.T) {
	g := newGuard(t, stubScorer{err: errors.New("scorer unavailable")})
	score, verdict, err := g.Score(context.Background(), "q", "a", nil)
	require.NoError(t, err)
	assert.Equal(t, 0.3, score)
	assert.Equal(t, faithfulness.Degraded, verdict)
}

func TestScoreFailureCanBeConfiguredToRejectInstead(t *testing.T) {
	guard, err := faithfulness.New(&faithfulness.Config{
		Scorer:               stubScorer{err: errors.New("down")},
		RejectOnScoreFailure: true,
	})
	require.NoError(t, err)
	_, verdict, err := guard.Score(context.Background(), "q", "a", nil)
	require.NoError(t, err)
	assert.Equal(t, faithfulness.Rejected, verdict)
}

func TestScorePropagatesCancellationRatherThanApplyingFailurePolicy(t *testing.T) {
	g := newGuard(t, stubScorer{err: errors.New("down")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := g.Score(ctx, "q", "a", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsNilScorer(t *testing.T) {
	_, err := faithfulness.New(&faithfulness.Config{})
	assert.Error(t, err)
}

func TestNewAppliesDefaultThresholds(t *testing.T) {
	g := newGuard(t, stubScorer{score: 0.65})
	_, verdict, err := g.Score(context.Background(), "q", "a", nil)
	require.NoError(t, err)
	assert.Equal(t, faithfulness.Degraded, verdict)
}
