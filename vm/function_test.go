package vm

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Arity wrapper tests
// ---------------------------------------------------------------------------

func TestMethodArityErrors(t *testing.T) {
	ctx := NewContext()
	m0 := Method0("ping", func(ctx *Context, self Value) (Value, error) {
		return None, nil
	})
	if _, err := m0.Fn(ctx, None, []Value{FromInt(1)}); !IsKind(err, TypeError) {
		t.Errorf("extra arg error = %v, want TypeError", err)
	} else if !strings.Contains(err.Error(), "ping() takes exactly 0 arguments (1 given)") {
		t.Errorf("error = %q", err)
	}

	m1 := Method1("echo", func(ctx *Context, self, a Value) (Value, error) {
		return a, nil
	})
	_, err := m1.Fn(ctx, None, nil)
	if err == nil || !strings.Contains(err.Error(), "echo() takes exactly 1 argument (0 given)") {
		t.Errorf("error = %v", err)
	}
	v, err := m1.Fn(ctx, None, []Value{FromInt(3)})
	if err != nil || v.Int() != 3 {
		t.Errorf("echo(3) = %v, %v", v, err)
	}
}

func TestMethodVarPadsOptionals(t *testing.T) {
	ctx := NewContext()
	var seen []Value
	mv := MethodVar("seek", 1, 3, func(ctx *Context, self Value, args []Value) (Value, error) {
		seen = append([]Value(nil), args...)
		return None, nil
	})
	if _, err := mv.Fn(ctx, None, []Value{FromInt(1)}); err != nil {
		t.Fatalf("seek(1): %v", err)
	}
	if len(seen) != 3 || !seen[0].IsValid() || seen[1].IsValid() || seen[2].IsValid() {
		t.Errorf("padded args = %v", seen)
	}
	if _, err := mv.Fn(ctx, None, nil); err == nil {
		t.Error("below minimum should fail")
	}
	if _, err := mv.Fn(ctx, None, make([]Value, 4)); err == nil {
		t.Error("above maximum should fail")
	}
}

// ---------------------------------------------------------------------------
// Binding tests
// ---------------------------------------------------------------------------

func TestFunctionBindKinds(t *testing.T) {
	ctx := NewContext()
	class := NewClass("thing", "", ctx.Types.Object)
	NewTypeDef("thing").
		AddMethod(Method0("who", func(ctx *Context, self Value) (Value, error) {
			return self, nil
		})).
		AddMethod(NewStaticMethod("alone", func(ctx *Context, self Value, args []Value) (Value, error) {
			return FromBool(!self.IsValid()), nil
		})).
		AddMethod(NewClassMethod("kind", func(ctx *Context, self Value, args []Value) (Value, error) {
			return ctx.NewStr(classPayload(self).Name), nil
		})).
		Realize(ctx, class)

	inst := FromObject(NewObject(class, nil))

	got, err := ctx.CallMethod(inst, "who", nil)
	if err != nil || !got.Same(inst) {
		t.Errorf("who() = %v, %v, want the receiver", got, err)
	}

	got, err = ctx.CallMethod(inst, "alone", nil)
	if err != nil || !got.Bool() {
		t.Errorf("static self = %v, %v, want unbound", got, err)
	}

	got, err = ctx.CallMethod(inst, "kind", nil)
	if err != nil {
		t.Fatalf("kind(): %v", err)
	}
	if s, ok := AsStr(got); !ok || s.String() != "thing" {
		t.Errorf("classmethod receiver = %v, want the class", got)
	}
}

func TestFunctionString(t *testing.T) {
	if got := Method0("ping", nil).String(); got != "<method ping>" {
		t.Errorf("String = %q", got)
	}
	if got := NewStaticMethod("alone", nil).String(); got != "<staticmethod alone>" {
		t.Errorf("String = %q", got)
	}
}
