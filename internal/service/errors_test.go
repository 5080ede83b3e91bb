package service

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(NotFoundError("x")); got != KindNotFound {
		t.Fatalf("KindOf = %v, want KindNotFound", got)
	}
	if got := KindOf(fmt.Errorf("purchase: %w", ConflictError("x"))); got != KindConflict {
		t.Fatalf("wrapped KindOf = %v, want KindConflict", got)
	}
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Fatalf("KindOf plain = %v, want KindUnknown", got)
	}
	if got := KindOf(nil); got != KindUnknown {
		t.Fatalf("KindOf nil = %v, want KindUnknown", got)
	}
}
