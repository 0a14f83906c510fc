// Package openaiembed adapts an OpenAI embeddings client to
// capability.Embedder.
package openaiembed

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Config holds the collaborators and tunables an Adapter needs.
type Config struct {
	APIKey     string
	Model      string
	Dimensions int64
	Options    []option.RequestOption
}

func (c *Config) validate() error {
	if c == nil {
		return errors.New("openaiembed: config cannot be nil")
	}
	if c.APIKey == "" {
		return errors.New("openaiembed: api key is required")
	}
	if c.Model == "" {
		c.Model = openai.EmbeddingModelTextEmbedding3Small
	}
	return nil
}

// Adapter wraps an OpenAI embeddings client behind capability.Embedder.
type Adapter struct {
	client     openai.Client
	model      string
	dimensions int64
}

func New(cfg *Config) (*Adapter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	opts := append(append([]option.RequestOption{}, cfg.Options...), option.WithAPIKey(cfg.APIKey))
	return &Adapter{
		client:     openai.NewClient(opts...),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed turns text into a dense vector for similarity search.
func (a *Adapter) Embed(ctx context.Context, text string) ([]float32, error) {
	params := openai.EmbeddingNewParams{
		Model: a.model,
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{text}},
	}
	if a.dimensions > 0 {
		params.Dimensions = openai.Int(a.dimensions)
	}

	resp, err := a.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("openaiembed: no embedding returned")
	}

	vector := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vector[i] = float32(v)
	}
	return vector, nil
}
