package vm

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Runtime error taxonomy
// ---------------------------------------------------------------------------

// ErrorKind classifies a recoverable runtime error. The kinds mirror the
// condition categories surfaced to language-level handlers: conversion and
// protocol mismatches, bounds violations, malformed encodings, and the
// buffer-export resize conflict.
type ErrorKind int

const (
	TypeError ErrorKind = iota
	ValueError
	IndexError
	OverflowError
	UnicodeError
	BufferError
	EOFError
	AttributeError
	MemoryError
)

// String returns the conventional name for the error kind.
func (k ErrorKind) String() string {
	switch k {
	case TypeError:
		return "TypeError"
	case ValueError:
		return "ValueError"
	case IndexError:
		return "IndexError"
	case OverflowError:
		return "OverflowError"
	case UnicodeError:
		return "UnicodeError"
	case BufferError:
		return "BufferError"
	case EOFError:
		return "EOFError"
	case AttributeError:
		return "AttributeError"
	case MemoryError:
		return "MemoryError"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a recoverable runtime error. Recoverable errors never leave an
// instance in a corrupt state: mutating operations convert every element
// before committing any change.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Msg
}

// Is reports kind equality, so errors.Is(err, &Error{Kind: TypeError})
// matches any type error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NewTypeError creates a type-mismatch error.
func NewTypeError(format string, args ...any) *Error {
	return newError(TypeError, format, args...)
}

// NewValueError creates a value-domain error.
func NewValueError(format string, args ...any) *Error {
	return newError(ValueError, format, args...)
}

// NewIndexError creates a bounds error.
func NewIndexError(format string, args ...any) *Error {
	return newError(IndexError, format, args...)
}

// NewOverflowError creates an out-of-range conversion error.
func NewOverflowError(format string, args ...any) *Error {
	return newError(OverflowError, format, args...)
}

// NewUnicodeError creates a code-point encoding error.
func NewUnicodeError(format string, args ...any) *Error {
	return newError(UnicodeError, format, args...)
}

// NewBufferError creates a buffer-protocol error. The resize-conflict
// condition (mutating a length while raw views are exported) is a buffer
// error; the caller must release the view and retry.
func NewBufferError(format string, args ...any) *Error {
	return newError(BufferError, format, args...)
}

// NewEOFError creates an unexpected-end-of-input error.
func NewEOFError(format string, args ...any) *Error {
	return newError(EOFError, format, args...)
}

// NewAttributeError creates a missing-attribute error.
func NewAttributeError(format string, args ...any) *Error {
	return newError(AttributeError, format, args...)
}

// NewMemoryError creates an allocation-overflow error.
func NewMemoryError(format string, args ...any) *Error {
	return newError(MemoryError, format, args...)
}

// ErrResizeConflict is the canonical resize-conflict condition: an operation
// that could reallocate the backing buffer was attempted while raw memory
// views were exported.
var ErrResizeConflict = NewBufferError("cannot resize an array that is exporting buffers")

// IsKind reports whether err is a runtime *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
