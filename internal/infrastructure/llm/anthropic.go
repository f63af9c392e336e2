package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/prcodex/codexsage/internal/config"
	"github.com/prcodex/codexsage/internal/ports"
)

// AnthropicClient implements ports.ModelClient against the Anthropic API.
type AnthropicClient struct {
	client  *anthropic.Client
	model   string
	timeout time.Duration
}

var _ ports.ModelClient = (*AnthropicClient)(nil)

// NewAnthropicClient builds a client from configuration. Every Generate call
// gets the fixed per-call timeout; a timed-out call is a failure for that
// fragment or document, never fatal to the run.
func NewAnthropicClient(cfg config.AnthropicConfig, timeout time.Duration) *AnthropicClient {
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
	)
	return &AnthropicClient{
		client:  &client,
		model:   cfg.Model,
		timeout: timeout,
	}
}

// Generate runs one message exchange and returns the model's text.
func (c *AnthropicClient) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic call: %w", err)
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	if text == "" {
		return "", fmt.Errorf("anthropic returned empty response")
	}
	return text, nil
}
