package vm

import "testing"

// ---------------------------------------------------------------------------
// Class tests
// ---------------------------------------------------------------------------

func TestClassAttrChain(t *testing.T) {
	base := NewClass("base", "", nil)
	base.SetAttr("shared", FromInt(1))
	base.SetAttr("overridden", FromInt(2))
	sub := NewClass("sub", "", base)
	sub.SetAttr("overridden", FromInt(3))

	if _, ok := sub.OwnAttr("shared"); ok {
		t.Error("OwnAttr should not consult the base")
	}
	v, ok := sub.Attr("shared")
	if !ok || v.Int() != 1 {
		t.Errorf("inherited attr = %v, %v", v, ok)
	}
	v, _ = sub.Attr("overridden")
	if v.Int() != 3 {
		t.Errorf("override = %v, want 3", v)
	}
	if _, ok := sub.Attr("nonesuch"); ok {
		t.Error("missing attr should not resolve")
	}

	if !sub.IsSubclassOf(base) || !sub.IsSubclassOf(sub) {
		t.Error("subclass chain wrong")
	}
	if base.IsSubclassOf(sub) {
		t.Error("base is not a subclass of sub")
	}
}

func TestClassAttrOrder(t *testing.T) {
	c := NewClass("c", "", nil)
	c.SetAttr("b", FromInt(1))
	c.SetAttr("a", FromInt(2))
	c.SetAttr("b", FromInt(3)) // rewrite keeps the original position
	names := c.OwnAttrNames()
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Errorf("names = %v, want [b a]", names)
	}
	v, _ := c.OwnAttr("b")
	if v.Int() != 3 {
		t.Errorf("rewritten attr = %v, want 3", v)
	}
}

func TestClassSealPanics(t *testing.T) {
	c := NewClass("c", "", nil)
	c.SetAttr("ok", FromInt(1))
	c.Seal()
	c.Seal() // idempotent
	if !c.Sealed() {
		t.Fatal("class should be sealed")
	}
	defer func() {
		if recover() == nil {
			t.Fatal("SetAttr on a sealed class should panic")
		}
	}()
	c.SetAttr("late", FromInt(2))
}

func TestClassFullName(t *testing.T) {
	if got := NewClass("array", "array", nil).FullName(); got != "array.array" {
		t.Errorf("FullName = %q", got)
	}
	if got := NewClass("range", "", nil).FullName(); got != "range" {
		t.Errorf("FullName = %q", got)
	}
}

// ---------------------------------------------------------------------------
// ClassTable tests
// ---------------------------------------------------------------------------

func TestClassTableRegisterTwicePanics(t *testing.T) {
	tab := NewClassTable()
	tab.Register(NewClass("thing", "", nil))
	if _, ok := tab.Lookup("thing"); !ok {
		t.Fatal("registered class not found")
	}
	if tab.Len() != 1 {
		t.Errorf("Len = %d, want 1", tab.Len())
	}
	defer func() {
		if recover() == nil {
			t.Fatal("double registration should panic")
		}
	}()
	tab.Register(NewClass("thing", "", nil))
}
