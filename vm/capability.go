package vm

// ---------------------------------------------------------------------------
// Capabilities
// ---------------------------------------------------------------------------

// SlotInstallFunc installs slot entries onto a slot table.
type SlotInstallFunc func(slots *SlotTable)

// Capability is a reusable behavior bundle: an attribute installer run
// during class extension and a slot installer run during slot extension.
// Composed capabilities concatenate; for slots that means last write wins,
// while attribute names still collide through the class extension path.
type Capability struct {
	Name        string
	ExtendClass InstallFunc
	ExtendSlots SlotInstallFunc
}

// Comparable equips a type with rich comparison: the Compare slot plus
// "__eq__"/"__ne__" convenience methods over it.
func Comparable(cmp CompareFunc) Capability {
	eq := Method1("__eq__", func(ctx *Context, self, other Value) (Value, error) {
		return cmp(ctx, self, other, OpEq)
	})
	ne := Method1("__ne__", func(ctx *Context, self, other Value) (Value, error) {
		return cmp(ctx, self, other, OpNe)
	})
	return Capability{
		Name: "Comparable",
		ExtendClass: func(ctx *Context, class *Class) error {
			class.SetAttr("__eq__", FromObject(NewObject(ctx.Types.Function, eq)))
			class.SetAttr("__ne__", FromObject(NewObject(ctx.Types.Function, ne)))
			return nil
		},
		ExtendSlots: func(slots *SlotTable) {
			slots.Compare = cmp
		},
	}
}

// Hashable equips a type with the Hash slot and a "__hash__" method.
func Hashable(h HashFunc) Capability {
	hm := Method0("__hash__", func(ctx *Context, self Value) (Value, error) {
		hv, err := h(ctx, self)
		if err != nil {
			return Value{}, err
		}
		return FromInt(int64(hv)), nil
	})
	return Capability{
		Name: "Hashable",
		ExtendClass: func(ctx *Context, class *Class) error {
			class.SetAttr("__hash__", FromObject(NewObject(ctx.Types.Function, hm)))
			return nil
		},
		ExtendSlots: func(slots *SlotTable) {
			slots.Hash = h
		},
	}
}

// Unhashable marks a type as rejecting hashing.
func Unhashable() Capability {
	return Capability{
		Name: "Unhashable",
		ExtendClass: func(ctx *Context, class *Class) error {
			return nil
		},
		ExtendSlots: func(slots *SlotTable) {
			slots.Hash = func(ctx *Context, self Value) (uint64, error) {
				return 0, NewTypeError("unhashable type: %q", ctx.TypeName(self))
			}
		},
	}
}

// Representable equips a type with the Repr slot and a "__repr__" method.
func Representable(r ReprFunc) Capability {
	rm := Method0("__repr__", func(ctx *Context, self Value) (Value, error) {
		s, err := r(ctx, self)
		if err != nil {
			return Value{}, err
		}
		return ctx.NewStr(s), nil
	})
	return Capability{
		Name: "Representable",
		ExtendClass: func(ctx *Context, class *Class) error {
			class.SetAttr("__repr__", FromObject(NewObject(ctx.Types.Function, rm)))
			return nil
		},
		ExtendSlots: func(slots *SlotTable) {
			slots.Repr = r
		},
	}
}

// Iterable equips a type with the Iter slot and an "__iter__" method.
func Iterable(f IterFunc) Capability {
	im := Method0("__iter__", func(ctx *Context, self Value) (Value, error) {
		return f(ctx, self)
	})
	return Capability{
		Name: "Iterable",
		ExtendClass: func(ctx *Context, class *Class) error {
			class.SetAttr("__iter__", FromObject(NewObject(ctx.Types.Function, im)))
			return nil
		},
		ExtendSlots: func(slots *SlotTable) {
			slots.Iter = f
		},
	}
}

// SelfIterator equips an iterator type: IterNext plus an Iter slot that
// returns the receiver, with matching "__next__"/"__iter__" methods.
func SelfIterator(next IterNextFunc) Capability {
	nm := Method0("__next__", func(ctx *Context, self Value) (Value, error) {
		item, ok, err := next(ctx, self)
		if err != nil {
			return Value{}, err
		}
		if !ok {
			return Value{}, NewValueError("iterator exhausted")
		}
		return item, nil
	})
	im := Method0("__iter__", func(ctx *Context, self Value) (Value, error) {
		return self, nil
	})
	return Capability{
		Name: "SelfIterator",
		ExtendClass: func(ctx *Context, class *Class) error {
			class.SetAttr("__next__", FromObject(NewObject(ctx.Types.Function, nm)))
			class.SetAttr("__iter__", FromObject(NewObject(ctx.Types.Function, im)))
			return nil
		},
		ExtendSlots: func(slots *SlotTable) {
			slots.IterNext = next
			slots.Iter = func(ctx *Context, self Value) (Value, error) { return self, nil }
		},
	}
}

// Constructible installs the New slot.
func Constructible(n NewFunc) Capability {
	return Capability{
		Name: "Constructible",
		ExtendClass: func(ctx *Context, class *Class) error {
			return nil
		},
		ExtendSlots: func(slots *SlotTable) {
			slots.New = n
		},
	}
}

// Unconstructible installs a New slot that rejects instantiation.
func Unconstructible() Capability {
	return Capability{
		Name: "Unconstructible",
		ExtendClass: func(ctx *Context, class *Class) error {
			return nil
		},
		ExtendSlots: func(slots *SlotTable) {
			slots.New = func(ctx *Context, class *Class, args []Value) (Value, error) {
				return Value{}, NewTypeError("cannot create %q instances", class.Name)
			}
		},
	}
}

// Initializable installs the Init slot.
func Initializable(init InitFunc) Capability {
	return Capability{
		Name: "Initializable",
		ExtendClass: func(ctx *Context, class *Class) error {
			return nil
		},
		ExtendSlots: func(slots *SlotTable) {
			slots.Init = init
		},
	}
}

// AsBufferProvider installs the buffer protocol entry point. The AsBuffer
// slot is the plain-field exception among the protocol slots.
func AsBufferProvider(f AsBufferFunc) Capability {
	return Capability{
		Name: "AsBufferProvider",
		ExtendClass: func(ctx *Context, class *Class) error {
			return nil
		},
		ExtendSlots: func(slots *SlotTable) {
			slots.AsBuffer = f
		},
	}
}

// AsSequenceProvider publishes the sequence protocol table.
func AsSequenceProvider(m *SequenceMethods) Capability {
	return Capability{
		Name: "AsSequenceProvider",
		ExtendClass: func(ctx *Context, class *Class) error {
			return nil
		},
		ExtendSlots: func(slots *SlotTable) {
			slots.StoreSequence(m)
		},
	}
}

// AsMappingProvider publishes the mapping protocol table.
func AsMappingProvider(m *MappingMethods) Capability {
	return Capability{
		Name: "AsMappingProvider",
		ExtendClass: func(ctx *Context, class *Class) error {
			return nil
		},
		ExtendSlots: func(slots *SlotTable) {
			slots.StoreMapping(m)
		},
	}
}

// AsNumberProvider publishes the number protocol table.
func AsNumberProvider(m *NumberMethods) Capability {
	return Capability{
		Name: "AsNumberProvider",
		ExtendClass: func(ctx *Context, class *Class) error {
			return nil
		},
		ExtendSlots: func(slots *SlotTable) {
			slots.StoreNumber(m)
		},
	}
}
