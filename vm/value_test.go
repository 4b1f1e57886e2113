package vm

import (
	"math/big"
	"testing"
)

// ---------------------------------------------------------------------------
// Value representation tests
// ---------------------------------------------------------------------------

func TestValueTags(t *testing.T) {
	if !None.IsNil() || None.IsBool() || None.IsInt() {
		t.Error("None tag wrong")
	}
	if !True.IsBool() || !True.Bool() {
		t.Error("True tag wrong")
	}
	if False.Bool() {
		t.Error("False should be false")
	}
	if !NotImplemented.IsNotImplemented() {
		t.Error("NotImplemented tag wrong")
	}
	v := FromInt(42)
	if !v.IsInt() || v.Int() != 42 {
		t.Errorf("FromInt(42) = %v", v)
	}
	f := FromFloat(2.5)
	if !f.IsFloat() || f.Float() != 2.5 {
		t.Errorf("FromFloat(2.5) = %v", f)
	}
	var zero Value
	if zero.IsValid() {
		t.Error("zero Value should be invalid")
	}
	if !None.IsValid() {
		t.Error("None should be valid")
	}
}

func TestValueAccessorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Int on non-integer should panic")
		}
	}()
	None.Int()
}

func TestValueSame(t *testing.T) {
	if !FromInt(3).Same(FromInt(3)) {
		t.Error("equal inline ints should be identical")
	}
	if FromInt(3).Same(FromFloat(3)) {
		t.Error("int and float are different kinds")
	}
	ctx := NewContext()
	o := ctx.NewStr("x")
	if !o.Same(o) {
		t.Error("object should be identical to itself")
	}
	if o.Same(ctx.NewStr("x")) {
		t.Error("distinct objects are not identical")
	}
}

func TestAsBigInt(t *testing.T) {
	ctx := NewContext()
	b, ok := AsBigInt(FromInt(-7))
	if !ok || b.Int64() != -7 {
		t.Errorf("AsBigInt(-7) = %v, %v", b, ok)
	}
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	v := ctx.NewBigInt(huge)
	if !v.IsObject() {
		t.Fatal("huge integer should be heap-allocated")
	}
	b, ok = AsBigInt(v)
	if !ok || b.Cmp(huge) != 0 {
		t.Errorf("AsBigInt(huge) = %v, %v", b, ok)
	}
	if _, ok := AsBigInt(FromFloat(1)); ok {
		t.Error("floats are not integers")
	}
	// Small heap candidates normalize back to inline.
	small := ctx.NewBigInt(big.NewInt(12))
	if !small.IsInt() || small.Int() != 12 {
		t.Errorf("NewBigInt(12) = %v, want inline 12", small)
	}
}

func TestIsExactInt(t *testing.T) {
	ctx := NewContext()
	if !IsExactInt(FromInt(1)) {
		t.Error("inline int is exact")
	}
	huge, _ := new(big.Int).SetString("99999999999999999999", 10)
	if !IsExactInt(ctx.NewBigInt(huge)) {
		t.Error("big int is exact")
	}
	if IsExactInt(FromFloat(1)) || IsExactInt(True) || IsExactInt(ctx.NewStr("1")) {
		t.Error("non-integers are not exact ints")
	}
}

func TestAsIndex(t *testing.T) {
	i, err := AsIndex(FromInt(5), "array")
	if err != nil || i != 5 {
		t.Errorf("AsIndex(5) = %d, %v", i, err)
	}
	if _, err := AsIndex(FromFloat(5), "array"); !IsKind(err, TypeError) {
		t.Errorf("float index error = %v, want TypeError", err)
	}
	ctx := NewContext()
	huge, _ := new(big.Int).SetString("99999999999999999999", 10)
	if _, err := AsIndex(ctx.NewBigInt(huge), "array"); !IsKind(err, OverflowError) {
		t.Errorf("huge index error = %v, want OverflowError", err)
	}
}
