// Package suggest wraps the external completion API to turn check failures,
// snippets, and precedents into structured fix suggestions.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
)

// AuthError is a terminal authentication failure (401/403). Never retried.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (HTTP %d)", e.Status)
}

// RetryPolicy is a bounded exponential-backoff policy applied uniformly
// around the single external call site.
type RetryPolicy struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Retryable   func(error) bool
}

// DefaultRetryPolicy retries rate limits, server errors, and timeouts up to
// three times, backing off 1s, 2s, 4s... capped at 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		InitialWait: time.Second,
		MaxWait:     10 * time.Second,
		Retryable:   retryableAPIError,
	}
}

// Do runs fn, retrying per the policy. Non-retryable errors and context
// cancellation are returned immediately; after the ceiling the last error
// is surfaced as terminal.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	wait := p.InitialWait
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
		if wait > p.MaxWait {
			wait = p.MaxWait
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", p.MaxAttempts, lastErr)
}

// retryableAPIError classifies an error from the completion API: rate
// limits (429), server errors (5xx), and timeouts retry; auth failures are
// terminal.
func retryableAPIError(err error) bool {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return false
	}
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return apierr.StatusCode == 429 || apierr.StatusCode >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// classify maps a raw API error to a typed terminal error where one applies.
func classify(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		if apierr.StatusCode == 401 || apierr.StatusCode == 403 {
			return &AuthError{Status: apierr.StatusCode}
		}
	}
	return err
}
