package llm

import (
	"context"
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"ragqa/internal/domain"
	"ragqa/internal/port"
)

const defaultAnthropicMaxTokens = 1024

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	client anthropicsdk.Client
	config Config
}

func NewAnthropicClient(cfg Config) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: missing api key")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicClient{client: anthropicsdk.NewClient(opts...), config: cfg}, nil
}

func (c *AnthropicClient) Complete(ctx context.Context, systemPrompt, prompt string) (port.Completion, error) {
	maxTokens := c.config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(c.config.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(prompt)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: systemPrompt}}
	}
	if c.config.Temperature != nil {
		params.Temperature = anthropicsdk.Float(*c.config.Temperature)
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return port.Completion{}, fmt.Errorf("anthropic: messages: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	completion := port.Completion{Text: text.String()}
	if msg.Usage.InputTokens > 0 || msg.Usage.OutputTokens > 0 {
		completion.Usage = &domain.Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
		}
	}
	return completion, nil
}

func (c *AnthropicClient) ModelName() string {
	return c.config.Model
}
