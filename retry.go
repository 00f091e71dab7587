package modelswitch

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig holds retry configuration for RetryClient.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig returns sensible defaults
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

// RetryClient repeats a failed GenerateNext call against the same model when
// the error is retryable (IsRetryable). It never switches models and never
// retries protocol errors or a natural end of generation.
//
// The switching scheduler itself does not retry; wrapping a client in
// RetryClient is an explicit opt-in by the caller.
type RetryClient struct {
	next   ModelClient
	config RetryConfig
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetryClient wraps next with retry logic. MaxAttempts below 1 is treated as 1.
func NewRetryClient(next ModelClient, config RetryConfig) *RetryClient {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &RetryClient{next: next, config: config, sleep: sleepContext}
}

// GenerateNext implements ModelClient.
func (c *RetryClient) GenerateNext(ctx context.Context, req *NextTokenRequest) (*ModelResponse, error) {
	var lastErr error
	delay := c.config.BaseDelay

	for attempt := 0; attempt < c.config.MaxAttempts; attempt++ {
		resp, err := c.next.GenerateNext(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !IsRetryable(err) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err

		if attempt < c.config.MaxAttempts-1 {
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
			delay = min(delay*2, c.config.MaxDelay)
		}
	}

	if c.config.MaxAttempts == 1 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("after %d attempts: %w", c.config.MaxAttempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
