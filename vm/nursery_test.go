package vm

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// GetSet nursery tests
// ---------------------------------------------------------------------------

func noopGetter(ctx *Context, self Value) (Value, error)  { return None, nil }
func noopSetter(ctx *Context, self, v Value) error        { return nil }
func noopDeleter(ctx *Context, self Value) error          { return nil }

func TestGetSetNurseryMergesAccessors(t *testing.T) {
	n := NewGetSetNursery()
	if err := n.AddGetter("size", "", noopGetter); err != nil {
		t.Fatalf("AddGetter: %v", err)
	}
	if err := n.AddSetter("size", "set_size", noopSetter); err != nil {
		t.Fatalf("AddSetter: %v", err)
	}
	if err := n.AddDeleter("size", "del_size", noopDeleter); err != nil {
		t.Fatalf("AddDeleter: %v", err)
	}
	if err := n.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestGetSetNurseryDuplicateAccessor(t *testing.T) {
	n := NewGetSetNursery()
	n.AddGetter("size", "", noopGetter)
	if err := n.AddGetter("size", "", noopGetter); err == nil {
		t.Fatal("duplicate getter should fail")
	}
	n.AddSetter("size", "set_size", noopSetter)
	if err := n.AddSetter("size", "set_size2", noopSetter); err == nil {
		t.Fatal("duplicate setter should fail")
	}
}

func TestGetSetNurseryMissingGetter(t *testing.T) {
	n := NewGetSetNursery()
	n.AddSetter("size", "set_size", noopSetter)
	err := n.Validate()
	if err == nil {
		t.Fatal("setter without getter should fail validation")
	}
	// The diagnostic names the accessor that created the entry.
	if !strings.Contains(err.Error(), "set_size") {
		t.Errorf("error should name the setter, got %q", err)
	}
	// Idempotent: the same error again, no rescan.
	if err2 := n.Validate(); err2 == nil || err2.Error() != err.Error() {
		t.Errorf("second Validate = %v, want %v", err2, err)
	}
}

func TestGetSetNurseryGuardedGetterSeparateKey(t *testing.T) {
	n := NewGetSetNursery()
	if err := n.AddGetter("digest", "sha2", noopGetter); err != nil {
		t.Fatalf("guarded AddGetter: %v", err)
	}
	if err := n.AddGetter("digest", "blake3", noopGetter); err != nil {
		t.Fatalf("second guard AddGetter: %v", err)
	}
	if err := n.AddGetter("digest", "sha2", noopGetter); err == nil {
		t.Fatal("same (name, guard) getter should fail")
	}
}

// ---------------------------------------------------------------------------
// Member nursery tests
// ---------------------------------------------------------------------------

func TestMemberNurseryKinds(t *testing.T) {
	n := NewMemberNursery()
	// The same name under different kinds is two distinct members.
	if err := n.AddGetter("flag", MemberBool, noopGetter); err != nil {
		t.Fatalf("bool AddGetter: %v", err)
	}
	if err := n.AddGetter("flag", MemberObjectEx, noopGetter); err != nil {
		t.Fatalf("object AddGetter: %v", err)
	}
	if err := n.AddGetter("flag", MemberBool, noopGetter); err == nil {
		t.Fatal("duplicate (name, kind) getter should fail")
	}
	if err := n.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestMemberNurserySetterWithoutGetter(t *testing.T) {
	n := NewMemberNursery()
	n.AddSetter("flag", MemberBool, noopSetter)
	if err := n.Validate(); err == nil {
		t.Fatal("setter without getter should fail validation")
	}
}

func TestMemberDescriptorAccess(t *testing.T) {
	ctx := NewContext()
	raw := map[string]Value{"on": FromInt(7), "tag": ctx.NewStr("x")}

	class := NewClass("widget", "", ctx.Types.Object)
	NewTypeDef("widget").
		AddMemberGetter("on", MemberBool, func(ctx *Context, self Value) (Value, error) {
			return raw["on"], nil
		}).
		AddMemberGetter("tag", MemberObjectEx, func(ctx *Context, self Value) (Value, error) {
			return raw["tag"], nil
		}).
		AddMemberGetter("missing", MemberObjectEx, func(ctx *Context, self Value) (Value, error) {
			return Value{}, nil
		}).
		Realize(ctx, class)

	inst := FromObject(NewObject(class, nil))

	// Bool members coerce through truthiness.
	got, err := ctx.GetAttr(inst, "on")
	if err != nil {
		t.Fatalf("GetAttr(on): %v", err)
	}
	if !got.IsBool() || !got.Bool() {
		t.Errorf("bool member = %v, want True", got)
	}

	// ObjectEx members pass the value through.
	got, err = ctx.GetAttr(inst, "tag")
	if err != nil {
		t.Fatalf("GetAttr(tag): %v", err)
	}
	if s, ok := AsStr(got); !ok || s.String() != "x" {
		t.Errorf("object member = %v, want \"x\"", got)
	}

	// An unset ObjectEx member reads as a missing attribute.
	if _, err := ctx.GetAttr(inst, "missing"); !IsKind(err, AttributeError) {
		t.Errorf("unset member error = %v, want AttributeError", err)
	}
}
