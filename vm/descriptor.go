package vm

// ---------------------------------------------------------------------------
// Getset and member descriptors
// ---------------------------------------------------------------------------

// GetSet is a property descriptor payload: a computed attribute with an
// optional setter and deleter. The getter is always present; the nursery
// rejects getterless properties before any descriptor is built.
type GetSet struct {
	Name  string
	Class *Class
	Get   GetterFunc
	Set   SetterFunc
	Del   DeleterFunc
}

// BindGet invokes the getter against an instance.
func (g *GetSet) BindGet(ctx *Context, self Value) (Value, error) {
	return g.Get(ctx, self)
}

// BindSet invokes the setter. A value that is the invalid Value requests
// deletion through the deleter.
func (g *GetSet) BindSet(ctx *Context, self, value Value) error {
	if !value.IsValid() {
		if g.Del == nil {
			return NewAttributeError("attribute %q of %q objects cannot be deleted", g.Name, g.Class.Name)
		}
		return g.Del(ctx, self)
	}
	if g.Set == nil {
		return NewAttributeError("attribute %q of %q objects is not writable", g.Name, g.Class.Name)
	}
	return g.Set(ctx, self, value)
}

// Member is a member descriptor payload. Kind selects the rendered access
// behavior: boolean-flag members coerce the raw value to a boolean
// singleton on read, generic-object members surface an unset value as a
// missing attribute.
type Member struct {
	Name  string
	Kind  MemberKind
	Class *Class
	Get   GetterFunc
	Set   SetterFunc
}

// BindGet invokes the getter and applies the kind's read behavior.
func (m *Member) BindGet(ctx *Context, self Value) (Value, error) {
	raw, err := m.Get(ctx, self)
	if err != nil {
		return Value{}, err
	}
	switch m.Kind {
	case MemberBool:
		t, err := ctx.Truthy(raw)
		if err != nil {
			return Value{}, err
		}
		return FromBool(t), nil
	default:
		if !raw.IsValid() {
			return Value{}, NewAttributeError("%s", m.Name)
		}
		return raw, nil
	}
}

// BindSet invokes the setter.
func (m *Member) BindSet(ctx *Context, self, value Value) error {
	if m.Set == nil {
		return NewAttributeError("attribute %q of %q objects is read-only", m.Name, m.Class.Name)
	}
	return m.Set(ctx, self, value)
}
