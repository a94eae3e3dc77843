package classifier

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestDisplayName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"apple_pie", "Apple Pie"},
		{"pizza", "Pizza"},
		{"Apple Pie", "Apple Pie"},
		{"  fried_rice  ", "Fried Rice"},
		{"CHICKEN_CURRY", "Chicken Curry"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := DisplayName(tc.in); got != tc.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewErrorFlagsDeadlineAsTimeout(t *testing.T) {
	err := NewError("classify", fmt.Errorf("rpc: %w", context.DeadlineExceeded))
	if !err.Timeout {
		t.Fatal("expected timeout flag for deadline error")
	}
	if !IsTimeout(err) {
		t.Fatal("expected IsTimeout to report true")
	}
}

func TestNewErrorPlainFailure(t *testing.T) {
	err := NewError("classify", errors.New("malformed image"))
	if err.Timeout {
		t.Fatal("did not expect timeout flag")
	}
	if !IsClassificationError(err) {
		t.Fatal("expected IsClassificationError to report true")
	}
	if IsTimeout(err) {
		t.Fatal("did not expect IsTimeout to report true")
	}
}

func TestIsClassificationErrorSeesWrappedErrors(t *testing.T) {
	inner := NewError("classify", errors.New("boom"))
	wrapped := fmt.Errorf("evaluate: %w", inner)
	if !IsClassificationError(wrapped) {
		t.Fatal("expected wrapped classifier error to be detected")
	}
}
