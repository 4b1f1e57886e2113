package vm

import (
	"errors"
	"fmt"
	"testing"
)

// ---------------------------------------------------------------------------
// Error taxonomy tests
// ---------------------------------------------------------------------------

func TestErrorFormatting(t *testing.T) {
	err := NewTypeError("wanted %q", "int")
	if got := err.Error(); got != `TypeError: wanted "int"` {
		t.Errorf("Error() = %q", got)
	}
	if ValueError.String() != "ValueError" || EOFError.String() != "EOFError" {
		t.Error("kind names wrong")
	}
}

func TestErrorKindMatching(t *testing.T) {
	err := NewIndexError("array index out of range")
	if !IsKind(err, IndexError) {
		t.Error("IsKind should match the kind")
	}
	if IsKind(err, TypeError) {
		t.Error("IsKind should not match a different kind")
	}
	if IsKind(errors.New("plain"), IndexError) {
		t.Error("plain errors have no kind")
	}
	// Matching survives wrapping.
	wrapped := fmt.Errorf("loading: %w", err)
	if !IsKind(wrapped, IndexError) {
		t.Error("IsKind should unwrap")
	}
	if !errors.Is(wrapped, &Error{Kind: IndexError}) {
		t.Error("errors.Is should match by kind alone")
	}
}

func TestResizeConflictSentinel(t *testing.T) {
	if !IsKind(ErrResizeConflict, BufferError) {
		t.Error("resize conflict should be a buffer error")
	}
	if !errors.Is(fmt.Errorf("append: %w", ErrResizeConflict), ErrResizeConflict) {
		t.Error("sentinel should match through wrapping")
	}
}
