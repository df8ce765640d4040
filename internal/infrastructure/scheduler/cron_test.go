package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestStartRejectsBadExpression(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("not a cron spec", time.UTC)
	if err := s.Start(context.Background(), func(time.Time) {}); err == nil {
		t.Fatal("expected error for malformed cron expression")
	}
}

func TestStartAndStop(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("0 6 * * *", time.UTC)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx, func(time.Time) {}); err != nil {
		t.Fatalf("start: %v", err)
	}
	// A second Start must not register a duplicate job.
	if err := s.Start(ctx, func(time.Time) {}); err != nil {
		t.Fatalf("second start: %v", err)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	// Stop after stop is a no-op.
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("repeated stop: %v", err)
	}
}

func TestConcurrentStopIsSafe(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("0 6 * * *", time.UTC)
	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx, func(time.Time) {}); err != nil {
		t.Fatalf("start: %v", err)
	}
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			errs <- s.Stop(stopCtx)
		}()
	}
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("concurrent stop: %v", err)
		}
	}
}

func TestNilLocationDefaultsToUTC(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("0 6 * * *", nil)
	if s.loc != time.UTC {
		t.Fatalf("location = %v, want UTC", s.loc)
	}
}
