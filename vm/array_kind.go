package vm

import (
	"encoding/binary"
	"math"
	"math/big"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Array element kinds
// ---------------------------------------------------------------------------

// ElemKind identifies one of the thirteen array element encodings. All
// reinterpretation between element values and raw bytes is confined to
// this file; the rest of the array code moves opaque byte spans around.
type ElemKind int

const (
	KindInt8 ElemKind = iota // 'b'
	KindUint8                // 'B'
	KindCodePoint            // 'u', 4-byte UTF-32 on this host
	KindInt16                // 'h'
	KindUint16               // 'H'
	KindInt32                // 'i'
	KindUint32               // 'I'
	KindLong                 // 'l', 8 bytes on this host
	KindULong                // 'L'
	KindInt64                // 'q'
	KindUint64               // 'Q'
	KindFloat32              // 'f'
	KindFloat64              // 'd'
)

const badTypecodeMsg = "bad typecode (must be b, B, u, h, H, i, I, l, L, q, Q, f or d)"

// KindForCode maps a typecode character to its kind.
func KindForCode(code byte) (ElemKind, error) {
	switch code {
	case 'b':
		return KindInt8, nil
	case 'B':
		return KindUint8, nil
	case 'u':
		return KindCodePoint, nil
	case 'h':
		return KindInt16, nil
	case 'H':
		return KindUint16, nil
	case 'i':
		return KindInt32, nil
	case 'I':
		return KindUint32, nil
	case 'l':
		return KindLong, nil
	case 'L':
		return KindULong, nil
	case 'q':
		return KindInt64, nil
	case 'Q':
		return KindUint64, nil
	case 'f':
		return KindFloat32, nil
	case 'd':
		return KindFloat64, nil
	default:
		return 0, NewValueError(badTypecodeMsg)
	}
}

// Code returns the typecode character.
func (k ElemKind) Code() byte {
	return "bBuhHiIlLqQfd"[k]
}

func (k ElemKind) String() string {
	return string(k.Code())
}

// ItemSize returns the element width in bytes.
func (k ElemKind) ItemSize() int {
	switch k {
	case KindInt8, KindUint8:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32, KindCodePoint, KindFloat32:
		return 4
	default:
		return 8
	}
}

// signed reports whether the kind holds signed integers.
func (k ElemKind) signed() bool {
	switch k {
	case KindInt8, KindInt16, KindInt32, KindLong, KindInt64:
		return true
	default:
		return false
	}
}

// integer reports whether the kind holds integers (code points excluded).
func (k ElemKind) integer() bool {
	switch k {
	case KindFloat32, KindFloat64, KindCodePoint:
		return false
	default:
		return true
	}
}

// float reports whether the kind holds floating-point values.
func (k ElemKind) float() bool {
	return k == KindFloat32 || k == KindFloat64
}

// intRange returns the inclusive value range of an integer kind.
func (k ElemKind) intRange() (lo *big.Int, hi *big.Int) {
	bits := k.ItemSize() * 8
	if k.signed() {
		lo = new(big.Int).Lsh(big.NewInt(-1), uint(bits-1))
		hi = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bits-1)), big.NewInt(1))
		return lo, hi
	}
	lo = big.NewInt(0)
	hi = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bits)), big.NewInt(1))
	return lo, hi
}

// ---------------------------------------------------------------------------
// Element codec
// ---------------------------------------------------------------------------

// decodeElem reads the element stored at b[:itemsize] into a value.
func (k ElemKind) decodeElem(ctx *Context, b []byte) Value {
	switch k {
	case KindInt8:
		return FromInt(int64(int8(b[0])))
	case KindUint8:
		return FromInt(int64(b[0]))
	case KindInt16:
		return FromInt(int64(int16(binary.NativeEndian.Uint16(b))))
	case KindUint16:
		return FromInt(int64(binary.NativeEndian.Uint16(b)))
	case KindInt32:
		return FromInt(int64(int32(binary.NativeEndian.Uint32(b))))
	case KindUint32:
		return FromInt(int64(binary.NativeEndian.Uint32(b)))
	case KindLong, KindInt64:
		return FromInt(int64(binary.NativeEndian.Uint64(b)))
	case KindULong, KindUint64:
		u := binary.NativeEndian.Uint64(b)
		if u > math.MaxInt64 {
			return ctx.NewBigInt(new(big.Int).SetUint64(u))
		}
		return FromInt(int64(u))
	case KindFloat32:
		return FromFloat(float64(math.Float32frombits(binary.NativeEndian.Uint32(b))))
	case KindFloat64:
		return FromFloat(math.Float64frombits(binary.NativeEndian.Uint64(b)))
	case KindCodePoint:
		return ctx.NewStr(string(rune(binary.NativeEndian.Uint32(b))))
	default:
		panic("vm: unknown element kind")
	}
}

// encodeElem validates v and writes its encoding into b[:itemsize]. The
// write happens only when validation succeeds, so callers can encode into
// scratch space before committing anything.
func (k ElemKind) encodeElem(ctx *Context, v Value, b []byte) error {
	switch {
	case k.integer():
		n, ok := AsBigInt(v)
		if !ok {
			return NewTypeError("%q object cannot be interpreted as an integer", ctx.TypeName(v))
		}
		lo, hi := k.intRange()
		if n.Cmp(lo) < 0 || n.Cmp(hi) > 0 {
			return NewOverflowError("value out of range for typecode %q", k.String())
		}
		k.putUint(b, bigToBits(n))
		return nil
	case k.float():
		f, ok := asFloat(v)
		if !ok {
			return NewTypeError("must be real number, not %s", ctx.TypeName(v))
		}
		if k == KindFloat32 {
			binary.NativeEndian.PutUint32(b, math.Float32bits(float32(f)))
		} else {
			binary.NativeEndian.PutUint64(b, math.Float64bits(f))
		}
		return nil
	default: // KindCodePoint
		s, ok := AsStr(v)
		if !ok {
			return NewTypeError("array item must be a unicode character, not %s", ctx.TypeName(v))
		}
		runes := s.Runes()
		if len(runes) != 1 {
			return NewTypeError("array item must be a unicode character, not a string of length %d", len(runes))
		}
		binary.NativeEndian.PutUint32(b, uint32(runes[0]))
		return nil
	}
}

// bigToBits truncates a range-checked integer to its two's-complement
// machine bits.
func bigToBits(n *big.Int) uint64 {
	if n.Sign() < 0 {
		return uint64(n.Int64())
	}
	return n.Uint64()
}

// putUint writes the low itemsize bytes of bits.
func (k ElemKind) putUint(b []byte, bits uint64) {
	switch k.ItemSize() {
	case 1:
		b[0] = byte(bits)
	case 2:
		binary.NativeEndian.PutUint16(b, uint16(bits))
	case 4:
		binary.NativeEndian.PutUint32(b, uint32(bits))
	default:
		binary.NativeEndian.PutUint64(b, bits)
	}
}

// swapElem reverses the byte order of one element in place.
func (k ElemKind) swapElem(b []byte) {
	n := k.ItemSize()
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// sameElem compares two same-kind elements for equality on their native
// representation; NaN is unequal to itself.
func (k ElemKind) sameElem(a, b []byte) bool {
	switch k {
	case KindFloat32:
		fa := math.Float32frombits(binary.NativeEndian.Uint32(a))
		fb := math.Float32frombits(binary.NativeEndian.Uint32(b))
		return fa == fb
	case KindFloat64:
		fa := math.Float64frombits(binary.NativeEndian.Uint64(a))
		fb := math.Float64frombits(binary.NativeEndian.Uint64(b))
		return fa == fb
	default:
		for i := 0; i < k.ItemSize(); i++ {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}
}

// validRune reports whether a decoded UTF-32 unit is a legal code point.
func validRune(u uint32) bool {
	return u <= utf8.MaxRune && (u < 0xD800 || u > 0xDFFF)
}
