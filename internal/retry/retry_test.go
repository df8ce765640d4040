package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func fastPolicy(maxRetries int) Policy {
	return Policy{MaxRetries: maxRetries, InitialDelay: time.Millisecond}
}

func TestDoRecoversFromRateLimit(t *testing.T) {
	t.Parallel()

	calls := 0
	got, err := Do(context.Background(), fastPolicy(3), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("429 too many requests")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if got != "ok" {
		t.Fatalf("Do returned %q", got)
	}
	if calls != 3 {
		t.Fatalf("op invoked %d times, want 3", calls)
	}
}

func TestDoDoesNotRetryOtherErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	calls := 0
	_, err := Do(context.Background(), fastPolicy(5), func(context.Context) (int, error) {
		calls++
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected original error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("op invoked %d times, want 1", calls)
	}
}

func TestDoExhaustsBudget(t *testing.T) {
	t.Parallel()

	limited := errors.New("RESOURCE_EXHAUSTED: quota")
	calls := 0
	_, err := Do(context.Background(), fastPolicy(2), func(context.Context) (int, error) {
		calls++
		return 0, limited
	})
	if !errors.Is(err, limited) {
		t.Fatalf("expected final error unchanged, got %v", err)
	}
	// Initial attempt plus MaxRetries retries.
	if calls != 3 {
		t.Fatalf("op invoked %d times, want 3", calls)
	}
}

func TestDoHonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{MaxRetries: 5, InitialDelay: time.Minute}

	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, policy, func(context.Context) (int, error) {
			return 0, errors.New("Resource exhausted")
		})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("429 too many requests"), true},
		{errors.New("RESOURCE_EXHAUSTED"), true},
		{errors.New("Resource exhausted by quota"), true},
		{fmt.Errorf("generate content: %w", errors.New("status 429")), true},
		{errors.New("resource exhausted"), false},
		{errors.New("timeout"), false},
	}
	for _, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.want {
			t.Fatalf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
