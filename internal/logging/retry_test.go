package logging

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func newTestRetryer() *Retryer {
	return &Retryer{
		Logger:         zap.NewNop(),
		Attempts:       3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func TestRetryerRetriesTransientErrors(t *testing.T) {
	retryer := newTestRetryer()

	attempts := 0
	err := retryer.Execute(context.Background(), "test.operation", "scan-1", func() error {
		attempts++
		if attempts < 3 {
			return timeoutError{}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryerStopsOnPermanentErrors(t *testing.T) {
	retryer := newTestRetryer()

	attempts := 0
	err := retryer.Execute(context.Background(), "test.operation", "scan-2", func() error {
		attempts++
		return errors.New("boom")
	})

	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}

	var opErr *OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected OperationError, got %T", err)
	}
	if opErr.Operation != "test.operation" || opErr.ScanID != "scan-2" {
		t.Fatalf("unexpected operation error fields: %+v", opErr)
	}
}

func TestRetryerExhaustsAttempts(t *testing.T) {
	retryer := newTestRetryer()

	attempts := 0
	err := retryer.Execute(context.Background(), "test.operation", "scan-3", func() error {
		attempts++
		return timeoutError{}
	})

	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	var opErr *OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected OperationError, got %T", err)
	}
}

func TestRetryerHonorsCustomRetryablePredicate(t *testing.T) {
	sentinel := errors.New("terminal answer")
	retryer := newTestRetryer()
	retryer.Retryable = func(err error) bool {
		return !errors.Is(err, sentinel) && IsTransientError(err)
	}

	attempts := 0
	err := retryer.Execute(context.Background(), "test.operation", "scan-4", func() error {
		attempts++
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetryerStopsWhenContextCancelled(t *testing.T) {
	retryer := newTestRetryer()
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := retryer.Execute(ctx, "test.operation", "scan-5", func() error {
		attempts++
		cancel()
		return timeoutError{}
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt after cancellation, got %d", attempts)
	}
}

func TestIsTransientError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"timeout interface", timeoutError{}, true},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		if got := IsTransientError(tc.err); got != tc.want {
			t.Errorf("%s: IsTransientError = %v, want %v", tc.name, got, tc.want)
		}
	}
}
