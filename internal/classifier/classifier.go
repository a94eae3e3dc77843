package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Prediction is the single capability the image model exposes: a
// human-readable label ("Apple Pie") and a confidence in [0,1].
type Prediction struct {
	Label      string
	Confidence float64
}

// Client abstracts the image model so the decision engine never touches
// inference plumbing.
type Client interface {
	Classify(ctx context.Context, image []byte) (*Prediction, error)
}

// ClassificationError is the only failure the model adapter surfaces.
// Timeout marks the deadline variant so callers can tell "model is slow"
// from "model rejected the image".
type ClassificationError struct {
	Op      string
	Timeout bool
	Err     error
}

// Error implements the error interface.
func (e *ClassificationError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	if e.Timeout {
		return fmt.Sprintf("%s: classification timed out: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: classification failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ClassificationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError wraps an adapter failure, flagging context deadline errors as the
// timeout variant.
func NewError(op string, err error) *ClassificationError {
	if err == nil {
		return nil
	}
	return &ClassificationError{
		Op:      op,
		Timeout: errors.Is(err, context.DeadlineExceeded),
		Err:     err,
	}
}

// IsClassificationError reports whether err is (or wraps) a classifier failure.
func IsClassificationError(err error) bool {
	var ce *ClassificationError
	return errors.As(err, &ce)
}

// IsTimeout reports whether err is the timeout variant of a classifier failure.
func IsTimeout(err error) bool {
	var ce *ClassificationError
	return errors.As(err, &ce) && ce.Timeout
}

// DisplayName converts a raw model label such as "apple_pie" into the
// catalog's human-readable form "Apple Pie". Labels that already contain
// spaces are re-capitalized but otherwise left alone.
func DisplayName(label string) string {
	label = strings.TrimSpace(strings.ReplaceAll(label, "_", " "))
	if label == "" {
		return ""
	}
	words := strings.Fields(label)
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
