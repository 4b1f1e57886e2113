package vm

import (
	"bytes"
	"fmt"
)

// Bytes is the immutable byte-string payload.
type Bytes struct {
	b []byte
}

// Bytes returns the backing slice. Callers must not mutate it.
func (b *Bytes) Bytes() []byte { return b.b }

// Len returns the byte count.
func (b *Bytes) Len() int { return len(b.b) }

// AsBytes extracts a bytes payload.
func AsBytes(v Value) (*Bytes, bool) {
	if !v.IsObject() {
		return nil, false
	}
	b, ok := v.Object().Payload().(*Bytes)
	return b, ok
}

func bytesPayload(v Value) *Bytes {
	b, ok := AsBytes(v)
	if !ok {
		panic("vm: expected bytes payload")
	}
	return b
}

var bytesSequenceMethods = SequenceMethods{
	Length: func(ctx *Context, self Value) (int, error) {
		return bytesPayload(self).Len(), nil
	},
	Item: func(ctx *Context, self Value, i int) (Value, error) {
		b := bytesPayload(self).b
		if i < 0 {
			i += len(b)
		}
		if i < 0 || i >= len(b) {
			return Value{}, NewIndexError("index out of range")
		}
		return FromInt(int64(b[i])), nil
	},
	Contains: func(ctx *Context, self, needle Value) (bool, error) {
		b := bytesPayload(self).b
		if n, ok := AsBigInt(needle); ok {
			if !n.IsInt64() || n.Int64() < 0 || n.Int64() > 255 {
				return false, NewValueError("byte must be in range(0, 256)")
			}
			return bytes.IndexByte(b, byte(n.Int64())) >= 0, nil
		}
		if sub, ok := AsBytes(needle); ok {
			return bytes.Contains(b, sub.b), nil
		}
		return false, NewTypeError("a bytes-like object is required, not %q", ctx.TypeName(needle))
	},
}

func registerBytesType(ctx *Context) {
	NewTypeDef("bytes").
		With(
			Unconstructible(),
			Representable(func(ctx *Context, self Value) (string, error) {
				return fmt.Sprintf("b%q", bytesPayload(self).b), nil
			}),
			Hashable(func(ctx *Context, self Value) (uint64, error) {
				return hashBytes(bytesPayload(self).b), nil
			}),
			Comparable(func(ctx *Context, self, other Value, op CompareOp) (Value, error) {
				o, ok := AsBytes(other)
				if !ok {
					return NotImplemented, nil
				}
				return FromBool(op.EvalOrd(bytes.Compare(bytesPayload(self).b, o.b))), nil
			}),
			Iterable(func(ctx *Context, self Value) (Value, error) {
				return newPositionIterator(ctx, self), nil
			}),
			AsSequenceProvider(&bytesSequenceMethods),
		).
		Realize(ctx, ctx.Types.Bytes)
}
