package logic

import (
	"errors"
	"fmt"
	"testing"
)

func TestFaultWrapsAndCategorizes(t *testing.T) {
	base := errors.New("cap reached")
	err := NewFault(Fatal, "slider home", base)

	if !errors.Is(err, base) {
		t.Error("fault should unwrap to its cause")
	}
	if got := CategoryOf(err); got != Fatal {
		t.Errorf("expected FATAL, got %s", got)
	}
	if err.Error() != "slider home: cap reached" {
		t.Errorf("unexpected message %q", err.Error())
	}

	wrapped := fmt.Errorf("seal sequence: %w", err)
	if !IsFatal(wrapped) {
		t.Error("category should survive wrapping")
	}
}

func TestFaultNil(t *testing.T) {
	if err := NewFault(Fatal, "noop", nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	if IsFatal(nil) {
		t.Error("nil is not fatal")
	}
}

func TestUncategorizedIsTransient(t *testing.T) {
	if got := CategoryOf(errors.New("disk full")); got != Transient {
		t.Errorf("expected TRANSIENT, got %s", got)
	}
	if got := CategoryOf(NewFault(Degraded, "relay", errors.New("nak"))); got != Degraded {
		t.Errorf("expected DEGRADED, got %s", got)
	}
}
