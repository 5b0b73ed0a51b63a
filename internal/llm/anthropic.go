package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/domain"
)

const (
	defaultAnthropicModel = "claude-sonnet-4-20250514"
	anthropicMaxTokens    = 4096
	systemPrompt          = "You are a precise technical analyst for industrial refrigeration controllers. Follow the requested output format exactly."
)

// AnthropicMessager is the subset of the Messages service the client uses.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicClient completes prompts with the Anthropic Messages API.
type AnthropicClient struct {
	messages AnthropicMessager
	model    string
}

// NewAnthropicClient creates a client for apiKey. An empty model uses the default.
func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return NewAnthropicClientWithMessager(&c.Messages, model)
}

// NewAnthropicClientWithMessager creates a client over an existing Messages service.
func NewAnthropicClientWithMessager(m AnthropicMessager, model string) *AnthropicClient {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicClient{messages: m, model: model}
}

// Model returns the configured model name.
func (a *AnthropicClient) Model() string {
	return a.model
}

// Complete sends prompt as one user turn and joins the text blocks of the reply.
func (a *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   anthropicMaxTokens,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", domain.APIError("anthropic request failed", err)
	}

	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}
