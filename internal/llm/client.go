// Package llm wraps a langchaingo model with the call bounds every external
// generation call must respect: a per-call timeout and a provider rate limit.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"golang.org/x/time/rate"
)

// ErrUnavailable indicates the external language model call failed.
var ErrUnavailable = errors.New("language model unavailable")

const (
	defaultTimeout   = 30 * time.Second
	defaultRateLimit = 2 // requests per second
	defaultBurst     = 4
)

// Client is a bounded completion client over a langchaingo model.
type Client struct {
	model   llms.Model
	limiter *rate.Limiter
	timeout time.Duration
}

// NewClient creates a client. Zero values for timeout, rps, and burst fall
// back to defaults.
func NewClient(model llms.Model, timeout time.Duration, rps float64, burst int) (*Client, error) {
	if model == nil {
		return nil, fmt.Errorf("model cannot be nil")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if rps <= 0 {
		rps = defaultRateLimit
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	return &Client{
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		timeout: timeout,
	}, nil
}

// Complete generates a completion for prompt. The call waits for the rate
// limiter, is bounded by the client timeout, and respects cancellation of
// ctx. Provider failures wrap ErrUnavailable; an empty completion is
// treated as a failure.
func (c *Client) Complete(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if out == "" {
		return "", fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	return out, nil
}
