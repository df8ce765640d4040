package retry

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Defaults tuned for upstream model-API rate limits.
const (
	DefaultMaxRetries   = 8
	DefaultInitialDelay = 5 * time.Second
)

// Policy bounds the retry loop. The delay before retry n is
// InitialDelay * 2^(n-1).
type Policy struct {
	MaxRetries   int
	InitialDelay time.Duration
	Logger       *slog.Logger
}

// DefaultPolicy returns the standard backoff bounds.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, InitialDelay: DefaultInitialDelay}
}

// IsRetryable reports whether err is an upstream rate-limit failure. The
// check is textual: the providers surface 429s with these markers and no
// stable typed error.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(msg, "Resource exhausted")
}

// Do runs op, retrying rate-limited failures with exponential backoff. Any
// other failure propagates immediately; exhausting the budget propagates the
// final error unchanged. The backoff sleep honors ctx cancellation.
func Do[T any](ctx context.Context, policy Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	attempt := 0
	for {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		if !IsRetryable(err) {
			return zero, err
		}

		attempt++
		if attempt > policy.MaxRetries {
			if policy.Logger != nil {
				policy.Logger.Error("retries exhausted", "attempts", attempt, "error", err)
			}
			return zero, err
		}

		delay := time.Duration(1<<uint(attempt-1)) * policy.InitialDelay
		if policy.Logger != nil {
			policy.Logger.Warn("retryable failure", "attempt", attempt, "max", policy.MaxRetries, "delay", delay, "error", err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		}
	}
}
