package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIs_InvalidTimezoneIsInvalidArgument(t *testing.T) {
	tzErr := New(KindInvalidTimezone, "Invalid timezone '%s'", "Mars/Base")

	if !errors.Is(tzErr, InvalidTimezone) {
		t.Error("timezone error should match InvalidTimezone")
	}
	if !errors.Is(tzErr, InvalidArgument) {
		t.Error("timezone error should match InvalidArgument")
	}
	if !errors.Is(fmt.Errorf("convert: %w", tzErr), InvalidArgument) {
		t.Error("wrapped timezone error should match InvalidArgument")
	}

	argErr := New(KindInvalidArgument, "bad")
	if errors.Is(argErr, InvalidTimezone) {
		t.Error("plain invalid argument should not match InvalidTimezone")
	}
	if errors.Is(tzErr, NotFound) {
		t.Error("timezone error should not match NotFound")
	}
}

func TestIs_OnlySentinelsMatchByKind(t *testing.T) {
	a := New(KindNotFound, "a")
	b := New(KindNotFound, "b")
	if errors.Is(a, b) {
		t.Error("non-sentinel errors should not match each other by kind")
	}
	if !errors.Is(a, NotFound) {
		t.Error("expected NotFound match")
	}
}

func TestCode(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindInvalidArgument, 400},
		{KindInvalidTimezone, 400},
		{KindNotFound, 404},
		{KindUnknownOperation, 404},
		{KindInvalidState, 409},
		{KindTimedOut, 408},
		{KindStorage, 500},
		{KindOperationFailed, 500},
	}
	for _, tt := range tests {
		if got := tt.kind.Code(); got != tt.want {
			t.Errorf("%s.Code() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}
