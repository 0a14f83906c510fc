// Package anthropicllm adapts an Anthropic messages client to
// capability.ChatModel, for the secondary model family.
package anthropicllm

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/capability"
)

// Config holds the collaborators and tunables an Adapter needs.
type Config struct {
	APIKey    string
	Model     anthropic.Model
	MaxTokens int64
	Options   []option.RequestOption
}

func (c *Config) validate() error {
	if c == nil {
		return errors.New("anthropicllm: config cannot be nil")
	}
	if c.APIKey == "" {
		return errors.New("anthropicllm: api key is required")
	}
	if c.Model == "" {
		c.Model = anthropic.ModelClaudeSonnet4_5
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1024
	}
	return nil
}

// Adapter wraps an Anthropic messages client behind capability.ChatModel.
type Adapter struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

func New(cfg *Config) (*Adapter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	opts := append(append([]option.RequestOption{}, cfg.Options...), option.WithAPIKey(cfg.APIKey))
	return &Adapter{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// GenerateAnswer grounds query against docs and history and returns a
// single completion.
func (a *Adapter) GenerateAnswer(ctx context.Context, query string, docs []capability.Doc, system string, history []capability.Turn) (string, error) {
	messages := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, turn := range history {
		if turn.Role == "assistant" {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Content)))
		} else {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(query, docs))))

	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}
	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", errors.New("anthropicllm: no text block in response")
}

func buildPrompt(query string, docs []capability.Doc) string {
	if len(docs) == 0 {
		return query
	}
	prompt := "Context documents:\n"
	for _, d := range docs {
		prompt += "- " + d.Title + ": " + d.Content + "\n"
	}
	prompt += "\nQuestion: " + query
	return prompt
}
