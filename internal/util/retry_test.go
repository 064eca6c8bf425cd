package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryPolicy{Max: 3, Backoff: time.Millisecond}, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("unexpected result: err=%v calls=%d", err, calls)
	}
}

func TestRetryGivesUp(t *testing.T) {
	calls := 0
	want := errors.New("still down")
	err := Retry(context.Background(), RetryPolicy{Max: 2, Backoff: time.Millisecond}, func(ctx context.Context) error {
		calls++
		return want
	})
	if !errors.Is(err, want) || calls != 3 {
		t.Fatalf("unexpected result: err=%v calls=%d", err, calls)
	}
}

func TestRetryPermanent(t *testing.T) {
	calls := 0
	want := errors.New("chain id mismatch")
	err := Retry(context.Background(), RetryPolicy{Max: 5, Backoff: time.Millisecond}, func(ctx context.Context) error {
		calls++
		return Permanent(want)
	})
	if err != want || calls != 1 {
		t.Fatalf("unexpected result: err=%v calls=%d", err, calls)
	}
}

func TestRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, RetryPolicy{Max: 3, Backoff: time.Second}, func(ctx context.Context) error {
		t.Fatalf("fn should not run")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}
