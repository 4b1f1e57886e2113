package vm

import (
	"math"
	"math/big"
	"testing"
)

// ---------------------------------------------------------------------------
// Slice normalization tests
// ---------------------------------------------------------------------------

func TestSliceUnpackDefaults(t *testing.T) {
	s := &Slice{Start: None, Stop: None, Step: None}
	start, stop, step, err := s.Unpack()
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if start != 0 || stop != math.MaxInt || step != 1 {
		t.Errorf("defaults = (%d, %d, %d)", start, stop, step)
	}

	s = &Slice{Start: None, Stop: None, Step: FromInt(-1)}
	start, stop, step, err = s.Unpack()
	if err != nil {
		t.Fatalf("Unpack(-1): %v", err)
	}
	if start != math.MaxInt || stop != math.MinInt || step != -1 {
		t.Errorf("negative-step defaults = (%d, %d, %d)", start, stop, step)
	}
}

func TestSliceUnpackErrors(t *testing.T) {
	s := &Slice{Start: None, Stop: None, Step: FromInt(0)}
	if _, _, _, err := s.Unpack(); !IsKind(err, ValueError) {
		t.Errorf("zero step error = %v, want ValueError", err)
	}
	ctx := NewContext()
	s = &Slice{Start: ctx.NewStr("x"), Stop: None, Step: None}
	if _, _, _, err := s.Unpack(); !IsKind(err, TypeError) {
		t.Errorf("str bound error = %v, want TypeError", err)
	}
}

func TestSliceSaturation(t *testing.T) {
	ctx := NewContext()
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	s := &Slice{Start: ctx.NewBigInt(huge), Stop: ctx.NewBigInt(new(big.Int).Neg(huge)), Step: None}
	start, stop, _, err := s.Unpack()
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if start != math.MaxInt {
		t.Errorf("huge start = %d, want MaxInt", start)
	}
	if stop != math.MinInt {
		t.Errorf("huge negative stop = %d, want MinInt", stop)
	}
	// Saturated bounds behave like the nearest real ones.
	_, _, _, count, err := s.Indices(10)
	if err != nil || count != 0 {
		t.Errorf("count = %d, %v, want 0", count, err)
	}
}

func TestAdjustIndices(t *testing.T) {
	cases := []struct {
		length, start, stop, step int
		wantStart, wantStop, wantCount int
	}{
		{5, 1, 3, 1, 1, 3, 2},
		{5, -2, 5, 1, 3, 5, 2},
		{5, 0, 100, 1, 0, 5, 5},
		{5, 100, 0, -1, 4, 0, 4},
		{5, -1, -100, -1, 4, -1, 5},
		{5, 3, 3, 1, 3, 3, 0},
		{0, 0, 10, 1, 0, 0, 0},
		{5, 0, 5, 2, 0, 5, 3},
		{5, 4, -100, -2, 4, -1, 3},
	}
	for _, c := range cases {
		s, e, n := AdjustIndices(c.length, c.start, c.stop, c.step)
		if s != c.wantStart || e != c.wantStop || n != c.wantCount {
			t.Errorf("AdjustIndices(%d, %d, %d, %d) = (%d, %d, %d), want (%d, %d, %d)",
				c.length, c.start, c.stop, c.step, s, e, n, c.wantStart, c.wantStop, c.wantCount)
		}
	}
}

func TestSliceBigIndices(t *testing.T) {
	length := big.NewInt(10)

	s := &Slice{Start: FromInt(2), Stop: FromInt(8), Step: FromInt(3)}
	start, stop, step, err := s.BigIndices(length)
	if err != nil {
		t.Fatalf("BigIndices: %v", err)
	}
	if start.Int64() != 2 || stop.Int64() != 8 || step.Int64() != 3 {
		t.Errorf("BigIndices = (%v, %v, %v)", start, stop, step)
	}

	// Negative step defaults land on the backward window.
	s = &Slice{Start: None, Stop: None, Step: FromInt(-1)}
	start, stop, step, err = s.BigIndices(length)
	if err != nil {
		t.Fatalf("BigIndices(-1): %v", err)
	}
	if start.Int64() != 9 || stop.Int64() != -1 || step.Int64() != -1 {
		t.Errorf("backward defaults = (%v, %v, %v)", start, stop, step)
	}

	// Lengths beyond the machine range stay exact.
	huge := new(big.Int).Lsh(big.NewInt(1), 80)
	s = &Slice{Start: FromInt(-1), Stop: None, Step: None}
	start, _, _, err = s.BigIndices(huge)
	if err != nil {
		t.Fatalf("BigIndices(huge): %v", err)
	}
	want := new(big.Int).Sub(huge, big.NewInt(1))
	if start.Cmp(want) != 0 {
		t.Errorf("huge start = %v, want %v", start, want)
	}

	s = &Slice{Start: None, Stop: None, Step: FromInt(0)}
	if _, _, _, err := s.BigIndices(length); !IsKind(err, ValueError) {
		t.Errorf("zero step error = %v, want ValueError", err)
	}
}

// ---------------------------------------------------------------------------
// Slice object tests
// ---------------------------------------------------------------------------

func TestSliceObject(t *testing.T) {
	ctx := NewContext()
	classVal := FromObject(NewObject(ctx.Types.Type, ctx.Types.Slice))

	v, err := ctx.Call(classVal, []Value{FromInt(5)})
	if err != nil {
		t.Fatalf("slice(5): %v", err)
	}
	got, _ := ctx.Repr(v)
	if got != "slice(None, 5, None)" {
		t.Errorf("Repr = %q", got)
	}

	stop, err := ctx.GetAttr(v, "stop")
	if err != nil || stop.Int() != 5 {
		t.Errorf("stop = %v, %v", stop, err)
	}
	start, _ := ctx.GetAttr(v, "start")
	if !start.IsNil() {
		t.Errorf("start = %v, want None", start)
	}

	if _, err := ctx.Hash(v); !IsKind(err, TypeError) {
		t.Errorf("slice hash error = %v, want TypeError", err)
	}
}
