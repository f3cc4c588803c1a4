// Package llm adapts hosted language models to port.LLM.
package llm

import (
	"context"
	"fmt"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"ragqa/internal/domain"
	"ragqa/internal/port"
)

// Config holds the settings shared by every provider.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string // optional, useful for testing against a mock server
	MaxTokens   int
	Temperature *float64 // nil leaves the provider default
}

// OpenAIClient calls the OpenAI Chat Completions API.
type OpenAIClient struct {
	client openaisdk.Client
	config Config
}

// NewOpenAIClient returns an error if the API key is missing.
// Retries are disabled; callers own retry policy.
func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: missing api key")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{client: openaisdk.NewClient(opts...), config: cfg}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, prompt string) (port.Completion, error) {
	var msgs []openaisdk.ChatCompletionMessageParamUnion
	if systemPrompt != "" {
		msgs = append(msgs, openaisdk.SystemMessage(systemPrompt))
	}
	msgs = append(msgs, openaisdk.UserMessage(prompt))

	params := openaisdk.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.config.Model),
		Messages: msgs,
	}
	if c.config.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(c.config.MaxTokens))
	}
	if c.config.Temperature != nil {
		params.Temperature = param.NewOpt(*c.config.Temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return port.Completion{}, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return port.Completion{}, fmt.Errorf("openai: response has no choices")
	}

	completion := port.Completion{Text: resp.Choices[0].Message.Content}
	if resp.Usage.PromptTokens > 0 || resp.Usage.CompletionTokens > 0 {
		completion.Usage = &domain.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
		}
	}
	return completion, nil
}

func (c *OpenAIClient) ModelName() string {
	return c.config.Model
}
