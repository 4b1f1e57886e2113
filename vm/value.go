package vm

import (
	"math"
	"math/big"
)

// ---------------------------------------------------------------------------
// Value representation
// ---------------------------------------------------------------------------

type valueKind uint8

const (
	kindInvalid valueKind = iota
	kindNil
	kindBool
	kindNotImplemented
	kindInt
	kindFloat
	kindObject
)

// Value is the uniform runtime value: singletons (nil, booleans, the
// not-implemented marker), inline machine integers and floats, or a pointer
// to a heap Object. The zero Value is invalid; invalid doubles as the
// "absent" marker where an optional Value is passed (for example item
// deletion through AssignItem).
type Value struct {
	kind valueKind
	n    int64
	f    float64
	obj  *Object
}

// Singletons.
var (
	None           = Value{kind: kindNil}
	True           = Value{kind: kindBool, n: 1}
	False          = Value{kind: kindBool, n: 0}
	NotImplemented = Value{kind: kindNotImplemented}
)

// FromBool returns the boolean singleton for b.
func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// FromInt returns an inline integer value.
func FromInt(n int64) Value {
	return Value{kind: kindInt, n: n}
}

// FromFloat returns an inline float value.
func FromFloat(f float64) Value {
	return Value{kind: kindFloat, f: f}
}

// FromObject wraps a heap object. Panics on nil.
func FromObject(o *Object) Value {
	if o == nil {
		panic("vm: FromObject called with nil object")
	}
	return Value{kind: kindObject, obj: o}
}

// IsValid reports whether v holds any value at all.
func (v Value) IsValid() bool { return v.kind != kindInvalid }

// IsNil reports whether v is the nil singleton.
func (v Value) IsNil() bool { return v.kind == kindNil }

// IsBool reports whether v is a boolean singleton.
func (v Value) IsBool() bool { return v.kind == kindBool }

// IsNotImplemented reports whether v is the not-implemented marker
// returned by comparison slots that do not understand their operand.
func (v Value) IsNotImplemented() bool { return v.kind == kindNotImplemented }

// IsInt reports whether v is an inline machine integer.
func (v Value) IsInt() bool { return v.kind == kindInt }

// IsFloat reports whether v is an inline float.
func (v Value) IsFloat() bool { return v.kind == kindFloat }

// IsObject reports whether v points at a heap object.
func (v Value) IsObject() bool { return v.kind == kindObject }

// Bool returns the boolean payload. Panics if v is not a boolean.
func (v Value) Bool() bool {
	if v.kind != kindBool {
		panic("vm: Bool called on non-boolean value")
	}
	return v.n != 0
}

// Int returns the inline integer payload. Panics if v is not an inline
// integer; big-integer objects must go through AsBigInt.
func (v Value) Int() int64 {
	if v.kind != kindInt {
		panic("vm: Int called on non-integer value")
	}
	return v.n
}

// Float returns the inline float payload. Panics if v is not a float.
func (v Value) Float() float64 {
	if v.kind != kindFloat {
		panic("vm: Float called on non-float value")
	}
	return v.f
}

// Object returns the heap object. Panics if v is not an object.
func (v Value) Object() *Object {
	if v.kind != kindObject {
		panic("vm: Object called on non-object value")
	}
	return v.obj
}

// Payload returns the native payload if v is a heap object, nil otherwise.
func (v Value) Payload() any {
	if v.kind != kindObject {
		return nil
	}
	return v.obj.payload
}

// Same reports identity: equal singletons, equal inline scalars of the
// same kind, or the same heap object.
func (v Value) Same(w Value) bool {
	if v.kind != w.kind {
		return false
	}
	switch v.kind {
	case kindNil, kindNotImplemented:
		return true
	case kindBool, kindInt:
		return v.n == w.n
	case kindFloat:
		return v.f == w.f || (math.IsNaN(v.f) && math.IsNaN(w.f))
	case kindObject:
		return v.obj == w.obj
	default:
		return false
	}
}

// IsTruthy evaluates truthiness for values whose class needs no dispatch:
// nil and false are false, numbers by non-zeroness, everything else defers
// to the context's Truthy.
func (v Value) isTruthyFast() (truthy, ok bool) {
	switch v.kind {
	case kindNil:
		return false, true
	case kindBool:
		return v.n != 0, true
	case kindInt:
		return v.n != 0, true
	case kindFloat:
		return v.f != 0, true
	case kindNotImplemented:
		return true, true
	default:
		return false, false
	}
}

// AsBigInt extracts an arbitrary-precision integer: inline integers and
// big-integer payloads qualify, nothing else does. The returned big.Int
// must not be mutated.
func AsBigInt(v Value) (*big.Int, bool) {
	switch v.kind {
	case kindInt:
		return big.NewInt(v.n), true
	case kindObject:
		if i, ok := v.obj.payload.(*Int); ok {
			return &i.value, true
		}
	}
	return nil, false
}

// IsExactInt reports whether v is a genuine integer value, the condition
// under which range membership and index-of take their O(1) arithmetic
// path instead of scanning.
func IsExactInt(v Value) bool {
	if v.kind == kindInt {
		return true
	}
	if v.kind == kindObject {
		_, ok := v.obj.payload.(*Int)
		return ok
	}
	return false
}

// AsIndex converts a genuine integer value to a machine int for use as a
// position. Values outside the int range overflow.
func AsIndex(v Value, what string) (int, error) {
	b, ok := AsBigInt(v)
	if !ok {
		return 0, NewTypeError("%s indices must be integers", what)
	}
	if !b.IsInt64() {
		return 0, NewOverflowError("%s index out of machine range", what)
	}
	n := b.Int64()
	if int64(int(n)) != n {
		return 0, NewOverflowError("%s index out of machine range", what)
	}
	return int(n), nil
}
