package logging

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// IsTransientError reports whether an error looks like a passing infrastructure
// hiccup worth retrying: a deadline, or anything exposing Timeout/Temporary.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var temporary interface{ Temporary() bool }
	if errors.As(err, &temporary) && temporary.Temporary() {
		return true
	}

	return false
}

// Retryer runs store and cache operations with exponential backoff on
// transient errors, wrapping the terminal error as an OperationError.
type Retryer struct {
	Logger         *zap.Logger
	Attempts       int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Retryable decides which errors are worth another attempt. Nil means
	// IsTransientError.
	Retryable func(error) bool
}

// Execute runs fn, retrying transient failures up to Attempts times.
func (r *Retryer) Execute(ctx context.Context, operation, scanID string, fn func() error) error {
	retryable := r.Retryable
	if retryable == nil {
		retryable = IsTransientError
	}
	if r.Attempts <= 1 {
		return NewOperationError(operation, scanID, fn())
	}

	backoff := r.InitialBackoff
	opLogger := WithOperation(r.Logger, operation, scanID)
	var err error
	for attempt := 0; attempt < r.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return NewOperationError(operation, scanID, ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= r.MaxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}

		if !retryable(err) {
			return NewOperationError(operation, scanID, err)
		}
		if attempt == r.Attempts-1 {
			opLogger.Error("operation failed after retries", zap.Error(err), zap.Int("attempt", attempt+1))
			return NewOperationError(operation, scanID, err)
		}

		opLogger.Warn("transient error, retrying", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return NewOperationError(operation, scanID, err)
}
