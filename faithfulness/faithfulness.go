// Package faithfulness scores a generated answer against the documents it
// was grounded in and classifies the result into a faithful/degraded/
// rejected verdict.
package faithfulness

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Verdict is the classification band a faithfulness score falls into.
type Verdict string

const (
	Faithful Verdict = "faithful"
	Degraded Verdict = "degraded"
	Rejected Verdict = "rejected"
)

// Scorer rates how well an answer is supported by its contexts, returning a
// value in [0, 1]. It is deliberately narrower than capability.StructuredLLM
// since a bare float is all this stage needs.
type Scorer interface {
	Score(ctx context.Context, question, answer string, contexts []string) (float64, error)
}

// Config holds the thresholds and failure policy for a Guard.
type Config struct {
	Scorer Scorer
	Logger *zap.Logger

	// FaithfulThreshold is the score at or above which a verdict is Faithful.
	FaithfulThreshold float64
	// DegradedFloor is the score at or above which (and below
	// FaithfulThreshold) a verdict is Degraded rather than Rejected.
	DegradedFloor float64

	// FailureScore is reported as the score when the scorer itself fails;
	// the verdict is then Degraded.
	FailureScore float64
	// RejectOnScoreFailure, when true, ignores FailureScore and forces a
	// Rejected verdict on scorer failure instead of falling into the
	// degraded band.
	RejectOnScoreFailure bool
}

func (c *Config) validate() error {
	if c == nil {
		return errors.New("faithfulness: config cannot be nil")
	}
	if c.Scorer == nil {
		return errors.New("faithfulness: scorer is required")
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.FaithfulThreshold <= 0 {
		c.FaithfulThreshold = 0.7
	}
	if c.DegradedFloor <= 0 {
		c.DegradedFloor = 0.4
	}
	if c.FailureScore <= 0 {
		c.FailureScore = 0.3
	}
	return nil
}

// Guard scores answers and classifies them into a Verdict.
type Guard struct {
	scorer   Scorer
	logger   *zap.Logger
	faithful float64
	degraded float64

	failureScore    float64
	rejectOnFailure bool
}

func New(cfg *Config) (*Guard, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Guard{
		scorer:          cfg.Scorer,
		logger:          cfg.Logger,
		faithful:        cfg.FaithfulThreshold,
		degraded:        cfg.DegradedFloor,
		failureScore:    cfg.FailureScore,
		rejectOnFailure: cfg.RejectOnScoreFailure,
	}, nil
}

// Score rates answer against contexts and classifies the result. A scorer
// failure or this stage's own timeout never returns an error: both are
// absorbed into the configured failure policy so the pipeline always gets a
// usable verdict. Only a genuine request-level cancellation propagates,
// since that means the caller has stopped waiting on the whole request.
func (g *Guard) Score(ctx context.Context, question, answer string, contexts []string) (float64, Verdict, error) {
	if errors.Is(ctx.Err(), context.Canceled) {
		return 0, Rejected, ctx.Err()
	}

	score, err := g.scorer.Score(ctx, question, answer, contexts)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return 0, Rejected, ctx.Err()
		}
		g.logger.Warn("faithfulness scoring failed, applying failure policy", zap.Error(err))
		if g.rejectOnFailure {
			return 0, Rejected, nil
		}
		return g.failureScore, Degraded, nil
	}

	return score, g.classify(score), nil
}

func (g *Guard) classify(score float64) Verdict {
	switch {
	case score >= g.faithful:
		return Faithful
	case score >= g.degraded:
		return Degraded
	default:
		return Rejected
	}
}
