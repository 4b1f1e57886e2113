package vm

import (
	"sync"
	"testing"
)

// ---------------------------------------------------------------------------
// Context tests
// ---------------------------------------------------------------------------

func TestSharedSingleton(t *testing.T) {
	var ctxs [8]*Context
	var wg sync.WaitGroup
	for i := range ctxs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctxs[i] = Shared()
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(ctxs); i++ {
		if ctxs[i] != ctxs[0] {
			t.Fatal("Shared should return one context")
		}
	}
}

func TestClassTableWiring(t *testing.T) {
	ctx := NewContext()
	c, ok := ctx.Classes.Lookup("array.array")
	if !ok {
		t.Fatal("array class not registered")
	}
	if c != ctx.Types.Array {
		t.Error("registered class is not the builtin")
	}
	if _, ok := ctx.Classes.Lookup("range"); !ok {
		t.Error("range class not registered")
	}
}

func TestGetAttrBindsMethods(t *testing.T) {
	ctx := NewContext()
	arr := mustArray(t, ctx, "b", 1, 2)
	m, err := ctx.GetAttr(arr, "append")
	if err != nil {
		t.Fatalf("GetAttr(append): %v", err)
	}
	if _, ok := m.Object().Payload().(*BoundMethod); !ok {
		t.Fatalf("append should bind as a method, got %T", m.Object().Payload())
	}
	if _, err := ctx.Call(m, []Value{FromInt(3)}); err != nil {
		t.Fatalf("call append: %v", err)
	}
	if got := arrayPayload(arr).Len(); got != 3 {
		t.Errorf("len = %d, want 3", got)
	}
}

func TestGetAttrDescriptors(t *testing.T) {
	ctx := NewContext()
	arr := mustArray(t, ctx, "h")
	tc, err := ctx.GetAttr(arr, "typecode")
	if err != nil {
		t.Fatalf("GetAttr(typecode): %v", err)
	}
	if s, ok := AsStr(tc); !ok || s.String() != "h" {
		t.Errorf("typecode = %v, want \"h\"", tc)
	}
	isz, err := ctx.GetAttr(arr, "itemsize")
	if err != nil {
		t.Fatalf("GetAttr(itemsize): %v", err)
	}
	if isz.Int() != 2 {
		t.Errorf("itemsize = %d, want 2", isz.Int())
	}
	if _, err := ctx.GetAttr(arr, "nonesuch"); !IsKind(err, AttributeError) {
		t.Errorf("missing attr error = %v, want AttributeError", err)
	}
}

func TestCallClassConstructs(t *testing.T) {
	ctx := NewContext()
	classVal := FromObject(NewObject(ctx.Types.Type, ctx.Types.Array))
	got, err := ctx.Call(classVal, []Value{ctx.NewStr("i")})
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	a, ok := AsArray(got)
	if !ok {
		t.Fatalf("constructed value is %T", got.Payload())
	}
	if a.Kind() != KindInt32 {
		t.Errorf("kind = %v, want i", a.Kind())
	}
	// Unconstructible classes refuse.
	noneClass := FromObject(NewObject(ctx.Types.Type, ctx.Types.NoneType))
	if _, err := ctx.Call(noneClass, nil); !IsKind(err, TypeError) {
		t.Errorf("NoneType() error = %v, want TypeError", err)
	}
}

func TestReprBuiltins(t *testing.T) {
	ctx := NewContext()
	cases := []struct {
		v    Value
		want string
	}{
		{None, "None"},
		{True, "True"},
		{FromInt(-3), "-3"},
		{FromFloat(1.5), "1.5"},
		{FromFloat(2), "2.0"},
		{ctx.NewStr("hi"), `"hi"`},
	}
	for _, c := range cases {
		got, err := ctx.Repr(c.v)
		if err != nil {
			t.Fatalf("Repr(%v): %v", c.v, err)
		}
		if got != c.want {
			t.Errorf("Repr = %q, want %q", got, c.want)
		}
	}
}

func TestTruthy(t *testing.T) {
	ctx := NewContext()
	cases := []struct {
		v    Value
		want bool
	}{
		{None, false},
		{False, false},
		{FromInt(0), false},
		{FromInt(1), true},
		{FromFloat(0), false},
		{mustArray(t, ctx, "b"), false},
		{mustArray(t, ctx, "b", 1), true},
	}
	for _, c := range cases {
		got, err := ctx.Truthy(c.v)
		if err != nil {
			t.Fatalf("Truthy(%v): %v", c.v, err)
		}
		if got != c.want {
			t.Errorf("Truthy(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestRichCompareReflection(t *testing.T) {
	ctx := NewContext()
	// int vs float goes through the numeric comparison either way.
	r, err := ctx.RichCompare(FromInt(2), FromFloat(2.0), OpEq)
	if err != nil || !r.Bool() {
		t.Errorf("2 == 2.0 -> (%v, %v)", r, err)
	}
	r, err = ctx.RichCompare(FromFloat(1.5), FromInt(2), OpLt)
	if err != nil || !r.Bool() {
		t.Errorf("1.5 < 2 -> (%v, %v)", r, err)
	}
	// Unrelated types: equality falls back to identity, ordering errors.
	r, err = ctx.RichCompare(ctx.NewStr("a"), FromInt(1), OpEq)
	if err != nil || r.Bool() {
		t.Errorf(`"a" == 1 -> (%v, %v)`, r, err)
	}
	if _, err := ctx.RichCompare(ctx.NewStr("a"), FromInt(1), OpLt); !IsKind(err, TypeError) {
		t.Errorf("ordering across types error = %v, want TypeError", err)
	}
}

func TestHashUnhashable(t *testing.T) {
	ctx := NewContext()
	if _, err := ctx.Hash(mustArray(t, ctx, "b")); !IsKind(err, TypeError) {
		t.Errorf("array hash error = %v, want TypeError", err)
	}
	if _, err := ctx.Hash(ctx.NewStr("ok")); err != nil {
		t.Errorf("str hash error = %v", err)
	}
}

func TestNameTableIntern(t *testing.T) {
	nt := NewNameTable()
	a := nt.Intern("append")
	b := nt.Intern("append")
	if a != b {
		t.Error("interned names should be equal")
	}
	if nt.Len() != 1 {
		t.Errorf("Len = %d, want 1", nt.Len())
	}
}

// mustArray builds an array value through the public constructor path.
func mustArray(t *testing.T, ctx *Context, code string, elems ...int64) Value {
	t.Helper()
	kind, err := KindForCode(code[0])
	if err != nil {
		t.Fatalf("KindForCode(%q): %v", code, err)
	}
	a := NewArray(kind)
	values := make([]Value, len(elems))
	for i, e := range elems {
		values[i] = FromInt(e)
	}
	if err := a.ExtendFromValues(ctx, values); err != nil {
		t.Fatalf("seed array: %v", err)
	}
	return FromObject(NewObject(ctx.Types.Array, a))
}
