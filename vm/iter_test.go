package vm

import "testing"

// ---------------------------------------------------------------------------
// Position iterator tests
// ---------------------------------------------------------------------------

func TestPositionIteratorExhaustionIsFinal(t *testing.T) {
	ctx := NewContext()
	lv := ctx.NewList([]Value{FromInt(1)})
	iter, err := ctx.GetIter(lv)
	if err != nil {
		t.Fatalf("GetIter: %v", err)
	}
	if v, ok, _ := ctx.Next(iter); !ok || v.Int() != 1 {
		t.Fatalf("first next = %v, %v", v, ok)
	}
	if _, ok, _ := ctx.Next(iter); ok {
		t.Fatal("iterator should be exhausted")
	}
	// Growth after exhaustion does not revive the iterator.
	listPayload(lv).Append(FromInt(2))
	if _, ok, _ := ctx.Next(iter); ok {
		t.Error("exhausted iterator should stay exhausted")
	}
}

func TestPositionIteratorLengthHint(t *testing.T) {
	ctx := NewContext()
	iter, _ := ctx.GetIter(ctx.NewStr("abcd"))
	ctx.Next(iter)
	hint, err := ctx.CallMethod(iter, "__length_hint__", nil)
	if err != nil || hint.Int() != 3 {
		t.Errorf("__length_hint__ = %v, %v, want 3", hint, err)
	}
	for i := 0; i < 4; i++ {
		ctx.Next(iter)
	}
	hint, _ = ctx.CallMethod(iter, "__length_hint__", nil)
	if hint.Int() != 0 {
		t.Errorf("exhausted hint = %v, want 0", hint)
	}
}

func TestPositionIteratorReduce(t *testing.T) {
	ctx := NewContext()
	sv := ctx.NewStr("abc")
	iter, _ := ctx.GetIter(sv)
	ctx.Next(iter)

	st, err := ctx.CallMethod(iter, "__reduce__", nil)
	if err != nil {
		t.Fatalf("__reduce__: %v", err)
	}
	parts := listPayload(st).Items()
	if !parts[0].Same(sv) || parts[1].Int() != 1 {
		t.Errorf("reduce parts = %v", parts)
	}

	// Exhausted iterators reduce to the empty form.
	ctx.Next(iter)
	ctx.Next(iter)
	ctx.Next(iter)
	st, _ = ctx.CallMethod(iter, "__reduce__", nil)
	parts = listPayload(st).Items()
	if !parts[0].IsNil() || parts[1].Int() != 0 {
		t.Errorf("exhausted reduce parts = %v", parts)
	}
}

func TestPositionIteratorSetState(t *testing.T) {
	ctx := NewContext()
	iter, _ := ctx.GetIter(ctx.NewStr("abc"))
	if _, err := ctx.CallMethod(iter, "__setstate__", []Value{FromInt(2)}); err != nil {
		t.Fatalf("__setstate__: %v", err)
	}
	v, ok, _ := ctx.Next(iter)
	if !ok || strPayload(v).String() != "c" {
		t.Errorf("resumed next = %v", v)
	}
	iter, _ = ctx.GetIter(ctx.NewStr("abc"))
	ctx.CallMethod(iter, "__setstate__", []Value{FromInt(99)})
	if _, ok, _ := ctx.Next(iter); ok {
		t.Error("past-the-end state should clamp to exhausted")
	}
	if _, err := ctx.CallMethod(iter, "__setstate__", []Value{ctx.NewStr("x")}); !IsKind(err, TypeError) {
		t.Errorf("non-int state error = %v, want TypeError", err)
	}
}
