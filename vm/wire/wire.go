// Package wire serializes arrays and class digests to CBOR for transport
// between hosts whose native element widths and byte order may differ.
package wire

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
	"github.com/quillvm/quill/vm"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// wirePrefix marks quill wire payloads.
var wirePrefix = []byte("quill:")

// ArrayEnvelope is the current wire form: typecode, the machine format
// code the bytes were written with, and the raw buffer. The receiving
// host converts per element when its native encoding differs.
type ArrayEnvelope struct {
	Typecode string `cbor:"1,keyasint"`
	Machine  int    `cbor:"2,keyasint"`
	Data     []byte `cbor:"3,keyasint"`
}

// LegacyArrayEnvelope is the older wire form: typecode plus the decoded
// element values. Integers ride as int64 (or decimal strings beyond the
// int64 range), floats as float64, code points as strings.
type LegacyArrayEnvelope struct {
	Typecode string        `cbor:"1,keyasint"`
	Items    []LegacyValue `cbor:"2,keyasint"`
}

// LegacyValue is one legacy-form element. Exactly one field is set.
type LegacyValue struct {
	Int   *int64   `cbor:"1,keyasint,omitempty"`
	Big   string   `cbor:"2,keyasint,omitempty"`
	Float *float64 `cbor:"3,keyasint,omitempty"`
	Text  string   `cbor:"4,keyasint,omitempty"`
}

// ClassDigest summarizes a realized class for inspection tooling: names
// only, no behavior.
type ClassDigest struct {
	Name      string   `cbor:"1,keyasint"`
	Module    string   `cbor:"2,keyasint"`
	Attrs     []string `cbor:"3,keyasint"`
	Protocols []string `cbor:"4,keyasint"`
}

// MarshalArray serializes an array in the current wire form.
func MarshalArray(a *vm.Array) ([]byte, error) {
	typecode, machine, raw := a.ReduceMachine()
	env := ArrayEnvelope{
		Typecode: string(typecode),
		Machine:  machine,
		Data:     raw,
	}
	body, err := cborEncMode.Marshal(&env)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal array: %w", err)
	}
	return append(append([]byte(nil), wirePrefix...), body...), nil
}

// UnmarshalArray reconstructs an array from the current wire form,
// converting elements when the sender's machine format differs from this
// host's.
func UnmarshalArray(ctx *vm.Context, data []byte) (*vm.Array, error) {
	body, err := stripPrefix(data)
	if err != nil {
		return nil, err
	}
	var env ArrayEnvelope
	if err := cbor.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("wire: unmarshal array: %w", err)
	}
	if len(env.Typecode) != 1 {
		return nil, fmt.Errorf("wire: bad typecode %q", env.Typecode)
	}
	a, err := vm.Reconstruct(ctx, env.Typecode[0], env.Machine, env.Data)
	if err != nil {
		return nil, fmt.Errorf("wire: reconstruct array: %w", err)
	}
	return a, nil
}

// MarshalArrayLegacy serializes an array in the legacy wire form.
func MarshalArrayLegacy(ctx *vm.Context, a *vm.Array) ([]byte, error) {
	typecode, items := a.ReduceLegacy(ctx)
	env := LegacyArrayEnvelope{Typecode: string(typecode)}
	env.Items = make([]LegacyValue, 0, len(items))
	for _, v := range items {
		lv, err := legacyFromValue(ctx, v)
		if err != nil {
			return nil, err
		}
		env.Items = append(env.Items, lv)
	}
	body, err := cborEncMode.Marshal(&env)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal legacy array: %w", err)
	}
	return append(append([]byte(nil), wirePrefix...), body...), nil
}

// UnmarshalArrayLegacy reconstructs an array from the legacy wire form.
func UnmarshalArrayLegacy(ctx *vm.Context, data []byte) (*vm.Array, error) {
	body, err := stripPrefix(data)
	if err != nil {
		return nil, err
	}
	var env LegacyArrayEnvelope
	if err := cbor.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("wire: unmarshal legacy array: %w", err)
	}
	if len(env.Typecode) != 1 {
		return nil, fmt.Errorf("wire: bad typecode %q", env.Typecode)
	}
	items := make([]vm.Value, 0, len(env.Items))
	for _, lv := range env.Items {
		v, err := legacyToValue(ctx, lv)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	a, err := vm.ReconstructLegacy(ctx, env.Typecode[0], items)
	if err != nil {
		return nil, fmt.Errorf("wire: reconstruct legacy array: %w", err)
	}
	return a, nil
}

// DigestClass captures a class's shape.
func DigestClass(c *vm.Class) ClassDigest {
	slots := c.Slots()
	var protocols []string
	if slots.AsBuffer != nil {
		protocols = append(protocols, "buffer")
	}
	if slots.Sequence() != nil {
		protocols = append(protocols, "sequence")
	}
	if slots.Mapping() != nil {
		protocols = append(protocols, "mapping")
	}
	if slots.Number() != nil {
		protocols = append(protocols, "number")
	}
	if slots.Iter != nil {
		protocols = append(protocols, "iterable")
	}
	if slots.IterNext != nil {
		protocols = append(protocols, "iterator")
	}
	return ClassDigest{
		Name:      c.Name,
		Module:    c.Module,
		Attrs:     c.OwnAttrNames(),
		Protocols: protocols,
	}
}

// MarshalClassDigest serializes a class digest.
func MarshalClassDigest(d *ClassDigest) ([]byte, error) {
	body, err := cborEncMode.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal class digest: %w", err)
	}
	return append(append([]byte(nil), wirePrefix...), body...), nil
}

// UnmarshalClassDigest deserializes a class digest.
func UnmarshalClassDigest(data []byte) (*ClassDigest, error) {
	body, err := stripPrefix(data)
	if err != nil {
		return nil, err
	}
	var d ClassDigest
	if err := cbor.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("wire: unmarshal class digest: %w", err)
	}
	return &d, nil
}

func stripPrefix(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, wirePrefix) {
		return nil, fmt.Errorf("wire: missing %q prefix", wirePrefix)
	}
	return data[len(wirePrefix):], nil
}

func legacyFromValue(ctx *vm.Context, v vm.Value) (LegacyValue, error) {
	if v.IsInt() {
		n := v.Int()
		return LegacyValue{Int: &n}, nil
	}
	if v.IsFloat() {
		f := v.Float()
		return LegacyValue{Float: &f}, nil
	}
	if b, ok := vm.AsBigInt(v); ok {
		return LegacyValue{Big: b.String()}, nil
	}
	if s, ok := vm.AsStr(v); ok {
		return LegacyValue{Text: s.String()}, nil
	}
	return LegacyValue{}, fmt.Errorf("wire: unsupported legacy element %q", ctx.TypeName(v))
}

func legacyToValue(ctx *vm.Context, lv LegacyValue) (vm.Value, error) {
	switch {
	case lv.Int != nil:
		return vm.FromInt(*lv.Int), nil
	case lv.Float != nil:
		return vm.FromFloat(*lv.Float), nil
	case lv.Big != "":
		b, ok := newBigFromString(lv.Big)
		if !ok {
			return vm.Value{}, fmt.Errorf("wire: bad big integer %q", lv.Big)
		}
		return ctx.NewBigInt(b), nil
	case lv.Text != "":
		return ctx.NewStr(lv.Text), nil
	default:
		// An all-zero element is a zero integer.
		return vm.FromInt(0), nil
	}
}

func newBigFromString(s string) (*big.Int, bool) {
	return new(big.Int).SetString(s, 10)
}
