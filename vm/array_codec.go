package vm

import (
	"encoding/binary"
	"math"
	"math/big"
	"unicode/utf16"
)

// ---------------------------------------------------------------------------
// Machine format codes
// ---------------------------------------------------------------------------

// Machine format codes describe the exact bit-level encoding of a
// serialized array so a host with different native widths or byte order
// can reconstruct it. The code space:
//
//	0,1    8-bit int, unsigned/signed
//	2-5    16-bit int: 2 + 2*signed + bigEndian
//	6-9    32-bit int: 6 + 2*signed + bigEndian
//	10-13  64-bit int: 10 + 2*signed + bigEndian
//	14,15  IEEE-754 float32 LE/BE
//	16,17  IEEE-754 float64 LE/BE
//	18,19  UTF-16 LE/BE
//	20,21  UTF-32 LE/BE
const (
	MFUint8 = iota
	MFInt8
	MFUint16LE
	MFUint16BE
	MFInt16LE
	MFInt16BE
	MFUint32LE
	MFUint32BE
	MFInt32LE
	MFInt32BE
	MFUint64LE
	MFUint64BE
	MFInt64LE
	MFInt64BE
	MFFloat32LE
	MFFloat32BE
	MFFloat64LE
	MFFloat64BE
	MFUTF16LE
	MFUTF16BE
	MFUTF32LE
	MFUTF32BE

	machineFormatCount
)

// hostBigEndian reports the native byte order, detected once through the
// same codec everything else uses.
var hostBigEndian = func() bool {
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], 0x0102)
	return b[0] == 0x01
}()

func endianBit() int {
	if hostBigEndian {
		return 1
	}
	return 0
}

// mfItemSize returns the element width of a machine format code.
func mfItemSize(code int) int {
	switch {
	case code <= MFInt8:
		return 1
	case code <= MFInt16BE:
		return 2
	case code <= MFInt32BE:
		return 4
	case code <= MFInt64BE:
		return 8
	case code <= MFFloat32BE:
		return 4
	case code <= MFFloat64BE:
		return 8
	case code <= MFUTF16BE:
		return 2
	default:
		return 4
	}
}

func mfBigEndian(code int) bool {
	return code >= MFUint16LE && code%2 == 1
}

// mfSignedInt reports signedness for the integer code range.
func mfSignedInt(code int) bool {
	if code == MFInt8 {
		return true
	}
	if code >= MFUint16LE && code <= MFInt64BE {
		return (code-MFUint16LE)%4 >= 2
	}
	return false
}

func mfIsInt(code int) bool {
	return code >= MFUint8 && code <= MFInt64BE
}

// MachineCode returns the native machine format code for an element kind.
func (k ElemKind) MachineCode() int {
	be := endianBit()
	switch k {
	case KindUint8:
		return MFUint8
	case KindInt8:
		return MFInt8
	case KindInt16:
		return MFInt16LE + be
	case KindUint16:
		return MFUint16LE + be
	case KindInt32:
		return MFInt32LE + be
	case KindUint32:
		return MFUint32LE + be
	case KindLong, KindInt64:
		return MFInt64LE + be
	case KindULong, KindUint64:
		return MFUint64LE + be
	case KindFloat32:
		return MFFloat32LE + be
	case KindFloat64:
		return MFFloat64LE + be
	default: // KindCodePoint, 4-byte units on this host
		return MFUTF32LE + be
	}
}

// ---------------------------------------------------------------------------
// Reconstruction
// ---------------------------------------------------------------------------

// Reconstruct rebuilds an array from its serialized parts: the target
// typecode, the machine format code the bytes were written with, and the
// raw bytes. A format matching the native encoding is adopted wholesale;
// a byte-order-only mismatch is adopted and swapped; anything else is
// decoded chunk by chunk and converted element-wise, so a mid-batch
// failure yields no array at all.
func Reconstruct(ctx *Context, typecode byte, mcode int, data []byte) (*Array, error) {
	kind, err := KindForCode(typecode)
	if err != nil {
		return nil, err
	}
	if mcode < 0 || mcode >= machineFormatCount {
		return nil, NewValueError("third argument must be a valid machine format code")
	}
	if len(data)%mfItemSize(mcode) != 0 {
		return nil, NewValueError("bytes length not a multiple of item size")
	}
	a := NewArray(kind)
	native := kind.MachineCode()
	switch {
	case mcode == native:
		if err := a.FromBytes(data); err != nil {
			return nil, err
		}
		return a, nil
	case mfIsInt(mcode) && mfIsInt(native) &&
		mfItemSize(mcode) == mfItemSize(native) && mfSignedInt(mcode) == mfSignedInt(native):
		// Same layout, opposite byte order.
		if err := a.FromBytes(data); err != nil {
			return nil, err
		}
		a.ByteSwap()
		return a, nil
	default:
		values, err := decodeMachineChunks(ctx, mcode, data)
		if err != nil {
			return nil, err
		}
		if err := a.ExtendFromValues(ctx, values); err != nil {
			return nil, err
		}
		return a, nil
	}
}

// ReconstructLegacy rebuilds an array from the legacy serialized form: a
// typecode plus the decoded element values.
func ReconstructLegacy(ctx *Context, typecode byte, items []Value) (*Array, error) {
	kind, err := KindForCode(typecode)
	if err != nil {
		return nil, err
	}
	a := NewArray(kind)
	if err := a.ExtendFromValues(ctx, items); err != nil {
		return nil, err
	}
	return a, nil
}

// decodeMachineChunks decodes raw bytes under a machine format code into
// element values.
func decodeMachineChunks(ctx *Context, mcode int, data []byte) ([]Value, error) {
	isz := mfItemSize(mcode)
	var order binary.ByteOrder = binary.LittleEndian
	if mfBigEndian(mcode) {
		order = binary.BigEndian
	}
	n := len(data) / isz
	chunk := func(i int) []byte { return data[i*isz : (i+1)*isz] }

	switch {
	case mcode <= MFInt8:
		out := make([]Value, n)
		for i := 0; i < n; i++ {
			if mcode == MFInt8 {
				out[i] = FromInt(int64(int8(data[i])))
			} else {
				out[i] = FromInt(int64(data[i]))
			}
		}
		return out, nil
	case mcode <= MFInt16BE:
		out := make([]Value, n)
		for i := 0; i < n; i++ {
			u := order.Uint16(chunk(i))
			if mfSignedInt(mcode) {
				out[i] = FromInt(int64(int16(u)))
			} else {
				out[i] = FromInt(int64(u))
			}
		}
		return out, nil
	case mcode <= MFInt32BE:
		out := make([]Value, n)
		for i := 0; i < n; i++ {
			u := order.Uint32(chunk(i))
			if mfSignedInt(mcode) {
				out[i] = FromInt(int64(int32(u)))
			} else {
				out[i] = FromInt(int64(u))
			}
		}
		return out, nil
	case mcode <= MFInt64BE:
		out := make([]Value, n)
		for i := 0; i < n; i++ {
			u := order.Uint64(chunk(i))
			if mfSignedInt(mcode) {
				out[i] = FromInt(int64(u))
			} else if u > math.MaxInt64 {
				out[i] = ctx.NewBigInt(new(big.Int).SetUint64(u))
			} else {
				out[i] = FromInt(int64(u))
			}
		}
		return out, nil
	case mcode <= MFFloat32BE:
		out := make([]Value, n)
		for i := 0; i < n; i++ {
			out[i] = FromFloat(float64(math.Float32frombits(order.Uint32(chunk(i)))))
		}
		return out, nil
	case mcode <= MFFloat64BE:
		out := make([]Value, n)
		for i := 0; i < n; i++ {
			out[i] = FromFloat(math.Float64frombits(order.Uint64(chunk(i))))
		}
		return out, nil
	case mcode <= MFUTF16BE:
		units := make([]uint16, n)
		for i := 0; i < n; i++ {
			units[i] = order.Uint16(chunk(i))
		}
		runes := utf16.Decode(units)
		out := make([]Value, len(runes))
		for i, r := range runes {
			out[i] = ctx.NewStr(string(r))
		}
		return out, nil
	default:
		out := make([]Value, n)
		for i := 0; i < n; i++ {
			u := order.Uint32(chunk(i))
			if !validRune(u) {
				return nil, NewUnicodeError("character U+%08x is not in range [U+0000; U+10ffff]", u)
			}
			out[i] = ctx.NewStr(string(rune(u)))
		}
		return out, nil
	}
}

// ReduceMachine captures the array's current wire parts: typecode,
// native machine format code, raw bytes.
func (a *Array) ReduceMachine() (typecode byte, mcode int, raw []byte) {
	return a.kind.Code(), a.kind.MachineCode(), a.ToBytes()
}

// ReduceLegacy captures the legacy wire parts: typecode and decoded
// element values.
func (a *Array) ReduceLegacy(ctx *Context) (typecode byte, items []Value) {
	return a.kind.Code(), a.ToValues(ctx)
}
