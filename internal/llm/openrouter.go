package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/domain"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/observability"
)

const (
	openRouterURL = "https://openrouter.ai/api/v1/chat/completions"
	defaultModel  = "google/gemini-2.5-flash-preview-09-2025"
)

// OpenRouterClient handles communication with the OpenRouter chat completions API
type OpenRouterClient struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client
	retry      *RetryConfig
	logger     *observability.Logger
}

// Option configures an OpenRouterClient.
type Option func(*OpenRouterClient)

// WithURL overrides the endpoint.
func WithURL(url string) Option {
	return func(c *OpenRouterClient) { c.url = url }
}

// WithHTTPTimeout sets the per-request timeout.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *OpenRouterClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRetryConfig replaces the default retry policy.
func WithRetryConfig(rc *RetryConfig) Option {
	return func(c *OpenRouterClient) { c.retry = rc }
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(l *observability.Logger) Option {
	return func(c *OpenRouterClient) { c.logger = l }
}

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request represents the API request structure
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature float64   `json:"temperature"`
}

// Response represents the API response structure
type Response struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
}

// Choice represents a single completion choice
type Choice struct {
	Message      Delta  `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// Delta is the assistant message of a choice
type Delta struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

// NewOpenRouterClient creates a new OpenRouter client
func NewOpenRouterClient(apiKey, model string, opts ...Option) *OpenRouterClient {
	if model == "" {
		model = defaultModel
	}

	c := &OpenRouterClient{
		apiKey:     apiKey,
		model:      model,
		url:        openRouterURL,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		retry:      DefaultRetryConfig(),
		logger:     observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model name.
func (c *OpenRouterClient) Model() string {
	return c.model
}

// Complete sends prompt as a single user message and returns the first choice's text.
func (c *OpenRouterClient) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(Request{
		Model:    c.model,
		Messages: []Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", domain.APIError("Failed to marshal request", err)
	}

	resp, err := c.retryWithBackoff(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("HTTP-Referer", "https://github.com/spherical-ai/spherical/libs/feature-compare")
		req.Header.Set("X-Title", "Refrigeration Controller Feature Compare")

		return c.httpClient.Do(req)
	})
	if err != nil {
		return "", domain.APIError("Failed to send request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", domain.APIError(fmt.Sprintf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes))), nil)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", domain.APIError("Failed to decode response", err)
	}
	if len(out.Choices) == 0 {
		return "", domain.APIError("API returned no choices", nil)
	}
	return out.Choices[0].Message.Content, nil
}
