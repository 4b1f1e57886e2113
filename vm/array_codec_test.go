package vm

import (
	"testing"
)

// ---------------------------------------------------------------------------
// Machine format tests
// ---------------------------------------------------------------------------

func TestMachineCodeTable(t *testing.T) {
	cases := []struct {
		kind ElemKind
		size int
	}{
		{KindUint8, 1},
		{KindInt16, 2},
		{KindFloat64, 8},
		{KindCodePoint, 4},
	}
	for _, c := range cases {
		code := c.kind.MachineCode()
		if code < 0 || code >= machineFormatCount {
			t.Fatalf("MachineCode(%v) = %d out of range", c.kind, code)
		}
		if got := mfItemSize(code); got != c.size {
			t.Errorf("mfItemSize(%d) = %d, want %d", code, got, c.size)
		}
		if mfBigEndian(code) != hostBigEndian && code > MFInt8 {
			t.Errorf("native code %d disagrees with host byte order", code)
		}
	}
	if mfSignedInt(MFUint32LE) || !mfSignedInt(MFInt32BE) || !mfSignedInt(MFInt8) {
		t.Error("signedness classification wrong")
	}
	if mfIsInt(MFFloat32LE) || !mfIsInt(MFInt64BE) {
		t.Error("integer classification wrong")
	}
}

func TestReconstructNativeRoundTrip(t *testing.T) {
	ctx := NewContext()
	src := NewArray(KindInt32)
	src.ExtendFromValues(ctx, []Value{FromInt(-5), FromInt(70000)})

	tc, mcode, raw := src.ReduceMachine()
	got, err := Reconstruct(ctx, tc, mcode, raw)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	wantInts(t, ctx, got, -5, 70000)
}

func TestReconstructByteSwapOnly(t *testing.T) {
	ctx := NewContext()
	// 0x0102 encoded big-endian into a little-endian 'H' host (or the
	// mirror image on a big-endian host) exercises the swap path.
	foreign := KindUint16.MachineCode() ^ 1
	got, err := Reconstruct(ctx, 'H', foreign, []byte{0x01, 0x02, 0x03, 0x04})
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	want1, want2 := int64(0x0102), int64(0x0304)
	if hostBigEndian {
		want1, want2 = 0x0201, 0x0403
	}
	wantInts(t, ctx, got, want1, want2)
}

func TestReconstructWidthConversion(t *testing.T) {
	ctx := NewContext()
	// 16-bit big-endian ints landing in a 32-bit 'i' array go through the
	// element-wise conversion path.
	got, err := Reconstruct(ctx, 'i', MFInt16BE, []byte{0xff, 0xfe, 0x00, 0x07})
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	wantInts(t, ctx, got, -2, 7)
}

func TestReconstructConvertFailureYieldsNothing(t *testing.T) {
	ctx := NewContext()
	// 300 does not fit a signed byte; conversion must refuse wholesale.
	_, err := Reconstruct(ctx, 'b', MFUint16LE, []byte{0x2c, 0x01})
	if !IsKind(err, OverflowError) {
		t.Fatalf("error = %v, want OverflowError", err)
	}
}

func TestReconstructUTF16(t *testing.T) {
	ctx := NewContext()
	// "a" then U+1F600 as a surrogate pair, little-endian.
	data := []byte{0x61, 0x00, 0x3d, 0xd8, 0x00, 0xde}
	got, err := Reconstruct(ctx, 'u', MFUTF16LE, data)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	text, err := got.ToText()
	if err != nil || text != "a\U0001F600" {
		t.Errorf("tounicode = %q, %v", text, err)
	}
}

func TestReconstructRejects(t *testing.T) {
	ctx := NewContext()
	if _, err := Reconstruct(ctx, 'x', MFUint8, nil); !IsKind(err, ValueError) {
		t.Errorf("bad typecode error = %v, want ValueError", err)
	}
	if _, err := Reconstruct(ctx, 'b', machineFormatCount, nil); !IsKind(err, ValueError) {
		t.Errorf("bad machine code error = %v, want ValueError", err)
	}
	if _, err := Reconstruct(ctx, 'h', MFInt16LE, []byte{1}); !IsKind(err, ValueError) {
		t.Errorf("ragged length error = %v, want ValueError", err)
	}
}

func TestLegacyRoundTrip(t *testing.T) {
	ctx := NewContext()
	src := NewArray(KindFloat64)
	src.ExtendFromValues(ctx, []Value{FromFloat(1.5), FromFloat(-2.25)})

	tc, items := src.ReduceLegacy(ctx)
	got, err := ReconstructLegacy(ctx, tc, items)
	if err != nil {
		t.Fatalf("ReconstructLegacy: %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("len = %d, want 2", got.Len())
	}
	vs := got.ToValues(ctx)
	if vs[0].Float() != 1.5 || vs[1].Float() != -2.25 {
		t.Errorf("values = %v", vs)
	}
}
