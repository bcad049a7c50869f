package provider

import (
	"context"
	"errors"
	"math/rand"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// RetryPolicy is a bounded exponential backoff policy for provider
// calls. The zero value performs a single attempt with no delay.
type RetryPolicy struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // delay before the second attempt
	MaxDelay    time.Duration // cap on the backoff delay
	Jitter      float64       // fraction of the delay added at random, 0..1
}

// DefaultRetryPolicy matches the configured provider defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
		Jitter:      0.5,
	}
}

// Do runs op, retrying on transient failures until the attempt cap is
// reached. Non-retryable errors and context cancellation return
// immediately.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(p.delay(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err = op(); err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
	}

	return err
}

// delay computes the backoff before the given attempt (1-based for the
// first retry).
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			d = p.MaxDelay
			break
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter > 0 && d > 0 {
		d += time.Duration(rand.Float64() * p.Jitter * float64(d))
	}
	return d
}

// retryable reports whether the error looks transient: rate limits,
// server-side failures and transport errors. Auth failures and invalid
// requests are not retried.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 429:
			return true
		case apiErr.HTTPStatusCode >= 500:
			return true
		default:
			return false
		}
	}

	// Anything that is not an API-level rejection is assumed to be a
	// transport failure (timeout, connection reset) and worth a retry.
	return true
}
