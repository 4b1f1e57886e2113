package vm

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Str is the string payload. Indexing is by code point; the rune view is
// materialized lazily and cached, since most strings are only ever read
// as a whole.
type Str struct {
	s     string
	runes []rune
}

// String returns the raw text.
func (s *Str) String() string { return s.s }

// Runes returns the cached code-point view.
func (s *Str) Runes() []rune {
	if s.runes == nil && len(s.s) > 0 {
		s.runes = []rune(s.s)
	}
	return s.runes
}

// Len returns the code-point count.
func (s *Str) Len() int {
	if s.runes != nil {
		return len(s.runes)
	}
	return utf8.RuneCountInString(s.s)
}

// AsStr extracts a string payload.
func AsStr(v Value) (*Str, bool) {
	if !v.IsObject() {
		return nil, false
	}
	s, ok := v.Object().Payload().(*Str)
	return s, ok
}

func strPayload(v Value) *Str {
	s, ok := AsStr(v)
	if !ok {
		panic("vm: expected str payload")
	}
	return s
}

var strSequenceMethods = SequenceMethods{
	Length: func(ctx *Context, self Value) (int, error) {
		return strPayload(self).Len(), nil
	},
	Item: func(ctx *Context, self Value, i int) (Value, error) {
		s := strPayload(self)
		runes := s.Runes()
		if i < 0 {
			i += len(runes)
		}
		if i < 0 || i >= len(runes) {
			return Value{}, NewIndexError("string index out of range")
		}
		return ctx.NewStr(string(runes[i])), nil
	},
	Contains: func(ctx *Context, self, needle Value) (bool, error) {
		n, ok := AsStr(needle)
		if !ok {
			return false, NewTypeError("'in <string>' requires string as left operand, not %q", ctx.TypeName(needle))
		}
		return strings.Contains(strPayload(self).s, n.s), nil
	},
}

func registerStrType(ctx *Context) {
	NewTypeDef("str").
		With(
			Unconstructible(),
			Representable(func(ctx *Context, self Value) (string, error) {
				return strconv.Quote(strPayload(self).s), nil
			}),
			Hashable(func(ctx *Context, self Value) (uint64, error) {
				return hashString(strPayload(self).s), nil
			}),
			Comparable(func(ctx *Context, self, other Value, op CompareOp) (Value, error) {
				o, ok := AsStr(other)
				if !ok {
					return NotImplemented, nil
				}
				return FromBool(op.EvalOrd(strings.Compare(strPayload(self).s, o.s))), nil
			}),
			Iterable(func(ctx *Context, self Value) (Value, error) {
				return newPositionIterator(ctx, self), nil
			}),
			AsSequenceProvider(&strSequenceMethods),
		).
		Realize(ctx, ctx.Types.Str)
}
