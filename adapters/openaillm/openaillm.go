// Package openaillm adapts an OpenAI chat completion client to the
// capability.ChatModel and capability.StructuredLLM interfaces, for the
// primary model family.
package openaillm

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/capability"
)

// Config holds the collaborators and tunables an Adapter needs.
type Config struct {
	APIKey  string
	Model   string
	Options []option.RequestOption

	// Temperature is passed through to the completion request when set.
	Temperature *float64
}

func (c *Config) validate() error {
	if c == nil {
		return errors.New("openaillm: config cannot be nil")
	}
	if c.APIKey == "" {
		return errors.New("openaillm: api key is required")
	}
	if c.Model == "" {
		c.Model = openai.ChatModelGPT4o
	}
	return nil
}

// Adapter wraps an OpenAI chat completion client behind capability.ChatModel
// and capability.StructuredLLM.
type Adapter struct {
	client      openai.Client
	model       string
	temperature *float64
}

func New(cfg *Config) (*Adapter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	opts := append(append([]option.RequestOption{}, cfg.Options...), option.WithAPIKey(cfg.APIKey))
	return &Adapter{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

// GenerateAnswer grounds query against docs and history and returns a
// single completion.
func (a *Adapter) GenerateAnswer(ctx context.Context, query string, docs []capability.Doc, system string, history []capability.Turn) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	for _, turn := range history {
		if turn.Role == "assistant" {
			messages = append(messages, openai.AssistantMessage(turn.Content))
		} else {
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}
	messages = append(messages, openai.UserMessage(buildPrompt(query, docs)))

	params := openai.ChatCompletionNewParams{
		Model:    a.model,
		Messages: messages,
	}
	if a.temperature != nil {
		params.Temperature = openai.Float(*a.temperature)
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openaillm: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateStructured produces a single completion from a prompt and an
// optional system instruction, used by the classifier/rewriter stage.
func (a *Adapter) GenerateStructured(ctx context.Context, prompt, system string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    a.model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openaillm: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
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
