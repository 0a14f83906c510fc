// Package qdrant adapts a Qdrant collection to capability.VectorIndex.
package qdrant

import (
	"context"
	"errors"
	"fmt"

	qc "github.com/qdrant/go-client/qdrant"

	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/capability"
)

const payloadContentKey = "content"
const payloadTitleKey = "title"
const payloadURLKey = "url"

// Config holds the collaborators and tunables an Adapter needs.
type Config struct {
	Client         *qc.Client
	CollectionName string
}

func (c *Config) validate() error {
	if c == nil {
		return errors.New("qdrant: config cannot be nil")
	}
	if c.Client == nil {
		return errors.New("qdrant: client is required")
	}
	if c.CollectionName == "" {
		return errors.New("qdrant: collection name is required")
	}
	return nil
}

// Adapter wraps a Qdrant collection behind capability.VectorIndex.
type Adapter struct {
	client     *qc.Client
	collection string
}

func New(cfg *Config) (*Adapter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Adapter{client: cfg.Client, collection: cfg.CollectionName}, nil
}

// Query performs nearest-neighbor search over the configured collection.
func (a *Adapter) Query(ctx context.Context, vector []float32, topK int) ([]capability.VectorMatch, error) {
	limit := uint64(topK)
	points, err := a.client.Query(ctx, &qc.QueryPoints{
		CollectionName: a.collection,
		Query:          qc.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qc.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: query failed: %w", err)
	}

	matches := make([]capability.VectorMatch, 0, len(points))
	for _, p := range points {
		payload := p.GetPayload()
		matches = append(matches, capability.VectorMatch{
			ID:      p.GetId().GetUuid(),
			Score:   float64(p.GetScore()),
			Title:   stringField(payload, payloadTitleKey),
			URL:     stringField(payload, payloadURLKey),
			Content: stringField(payload, payloadContentKey),
		})
	}
	return matches, nil
}

func stringField(payload map[string]*qc.Value, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	return v.GetStringValue()
}
