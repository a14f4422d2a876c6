package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	var waits []time.Duration
	calls := 0
	err := Retry(context.Background(), Backoff{Attempts: 4, Initial: time.Millisecond, Max: 2 * time.Millisecond},
		func(int) error {
			calls++
			if calls < 4 {
				return errors.New("not ready")
			}
			return nil
		},
		func(_ int, wait time.Duration, _ error) { waits = append(waits, wait) })
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	want := []time.Duration{time.Millisecond, 2 * time.Millisecond, 2 * time.Millisecond}
	if len(waits) != len(want) {
		t.Fatalf("unexpected waits %v", waits)
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Fatalf("unexpected waits %v", waits)
		}
	}
}

func TestRetryReturnsLastError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), Backoff{Attempts: 2}, func(attempt int) error {
		calls++
		return errors.New("attempt failed")
	}, nil)
	if err == nil || calls != 2 {
		t.Fatalf("expected 2 failing calls, got %d (%v)", calls, err)
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	err := Retry(ctx, Backoff{Attempts: 5, Initial: time.Hour}, func(int) error {
		cancel()
		return errors.New("boom")
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRetryZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Retry(context.Background(), Backoff{}, func(int) error {
		calls++
		return nil
	}, nil)
	if calls != 1 {
		t.Fatalf("expected one call, got %d", calls)
	}
}
