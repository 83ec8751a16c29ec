package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryConfig bounds the retry loop around oracle calls. Backoff is
// linear: the delay before attempt n is BaseDelay × n.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// Sleep is injected so tests run with zero delay. Nil uses time.Sleep
	// (interruptible via ctx in the caller loop).
	Sleep func(time.Duration)
}

// DefaultRetryConfig matches the pipeline's bounded retry budget.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
	}
}

// Caller wraps a Client with bounded retry. All pipeline components go
// through a Caller so transient oracle failures surface as a single typed
// error after the budget is spent.
type Caller struct {
	client Client
	retry  RetryConfig
}

// NewCaller wraps client with the given retry budget. Zero-valued fields
// take defaults.
func NewCaller(client Client, retry RetryConfig) *Caller {
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = DefaultRetryConfig().MaxAttempts
	}
	if retry.BaseDelay < 0 {
		retry.BaseDelay = 0
	}
	return &Caller{client: client, retry: retry}
}

// Client returns the wrapped oracle client.
func (c *Caller) Client() Client { return c.client }

// GenerateText calls the oracle, retrying transient failures with linear
// backoff. Returns the last error once attempts are exhausted.
func (c *Caller) GenerateText(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		text, err := c.client.GenerateText(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", fmt.Errorf("oracle call canceled: %w", ctx.Err())
		}
		if attempt == c.retry.MaxAttempts {
			break
		}
		delay := c.retry.BaseDelay * time.Duration(attempt)
		slog.Warn("oracle call failed, retrying",
			"attempt", attempt,
			"max_attempts", c.retry.MaxAttempts,
			"delay", delay,
			"error", err)
		c.sleep(ctx, delay)
	}
	return "", fmt.Errorf("oracle call failed after %d attempts: %w", c.retry.MaxAttempts, lastErr)
}

func (c *Caller) sleep(ctx context.Context, d time.Duration) {
	if c.retry.Sleep != nil {
		c.retry.Sleep(d)
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
