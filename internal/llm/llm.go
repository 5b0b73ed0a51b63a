// Package llm provides text-completion clients for feature extraction and narrative analysis.
package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/config"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/domain"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/observability"
)

// Completer turns a prompt into completion text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// New builds the completer selected by cfg, rate limited to cfg.RequestsPerMinute.
// Provider "none" returns a nil completer and no error; callers then fall back to
// keyword classification and skip narrative analysis.
func New(cfg config.LLMConfig, logger *observability.Logger) (Completer, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}

	var c Completer
	switch cfg.Provider {
	case "none", "":
		return nil, nil
	case "openrouter":
		if cfg.OpenRouterAPIKey == "" {
			return nil, domain.ConfigError("OPENROUTER_API_KEY is required for the openrouter provider", nil)
		}
		c = NewOpenRouterClient(cfg.OpenRouterAPIKey, cfg.Model,
			WithHTTPTimeout(cfg.Timeout),
			WithLogger(logger),
		)
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, domain.ConfigError("ANTHROPIC_API_KEY is required for the anthropic provider", nil)
		}
		c = NewAnthropicClient(cfg.AnthropicAPIKey, cfg.Model)
	default:
		return nil, domain.ConfigError(fmt.Sprintf("unknown llm provider %q", cfg.Provider), nil)
	}

	if cfg.RequestsPerMinute > 0 {
		c = NewRateLimited(c, rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return c, nil
}

// RateLimited spaces calls to the wrapped completer.
type RateLimited struct {
	next    Completer
	limiter *rate.Limiter
}

// NewRateLimited wraps next with a token-bucket limiter.
func NewRateLimited(next Completer, limit rate.Limit, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

// Complete waits for a token, then calls the wrapped completer.
func (r *RateLimited) Complete(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	return r.next.Complete(ctx, prompt)
}
