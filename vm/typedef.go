package vm

import "fmt"

// ---------------------------------------------------------------------------
// Type definitions
// ---------------------------------------------------------------------------

// TypeDef is the explicit builder for a native type: it accumulates
// methods, constants, getsets, members, slot installers, extend hooks and
// composed capabilities, validates the whole collection, and realizes it
// onto a caller-allocated class in one call.
//
// Add calls record the first contract error (duplicate names, missing
// accessors) rather than failing midway; Validate reports it, and Realize
// panics on it so a half-built class never escapes setup.
type TypeDef struct {
	Name   string
	Module string
	Doc    string

	registry *ExtensionRegistry
	getsets  *GetSetNursery
	members  *MemberNursery
	hooks    []InstallFunc
	caps     []Capability
	err      error
}

// NewTypeDef starts a definition for the named type.
func NewTypeDef(name string) *TypeDef {
	return &TypeDef{
		Name:     name,
		registry: NewExtensionRegistry(),
		getsets:  NewGetSetNursery(),
		members:  NewMemberNursery(),
	}
}

// WithModule sets the defining module name.
func (d *TypeDef) WithModule(module string) *TypeDef {
	d.Module = module
	return d
}

// WithDoc sets the docstring.
func (d *TypeDef) WithDoc(doc string) *TypeDef {
	d.Doc = doc
	return d
}

func (d *TypeDef) record(err error) {
	if err != nil && d.err == nil {
		d.err = err
	}
}

// AddMethod registers a builtin function under its own name.
func (d *TypeDef) AddMethod(f *Function) *TypeDef {
	return d.AddNamedMethod(f, f.Name)
}

// AddNamedMethod registers a builtin function under one or more attribute
// names; the first is the primary name for duplicate detection.
func (d *TypeDef) AddNamedMethod(f *Function, names ...string) *TypeDef {
	d.record(d.registry.Add(names, "", PriorityMethod, func(ctx *Context, class *Class) error {
		fv := FromObject(NewObject(ctx.Types.Function, f))
		for _, name := range names {
			class.SetAttr(name, fv)
		}
		return nil
	}))
	return d
}

// AddGuardedMethod registers a method under a guard label. Guarded entries
// sharing a name are admitted on the guard's unchecked promise that their
// conditions never hold at once.
func (d *TypeDef) AddGuardedMethod(guard string, f *Function) *TypeDef {
	d.record(d.registry.Add([]string{f.Name}, guard, PriorityMethod, func(ctx *Context, class *Class) error {
		class.SetAttr(f.Name, FromObject(NewObject(ctx.Types.Function, f)))
		return nil
	}))
	return d
}

// AddConst registers a constant attribute.
func (d *TypeDef) AddConst(name string, v Value) *TypeDef {
	d.record(d.registry.Add([]string{name}, "", PriorityAttr, func(ctx *Context, class *Class) error {
		class.SetAttr(name, v)
		return nil
	}))
	return d
}

// AddSlot registers a named slot installer at slot priority.
func (d *TypeDef) AddSlot(name string, install SlotInstallFunc) *TypeDef {
	d.record(d.registry.Add([]string{name}, "", PrioritySlot, func(ctx *Context, class *Class) error {
		install(class.Slots())
		return nil
	}))
	return d
}

// AddGetter registers the getter of a property.
func (d *TypeDef) AddGetter(name string, fn GetterFunc) *TypeDef {
	d.record(d.getsets.AddGetter(name, "", fn))
	return d
}

// AddGuardedGetter registers a guarded property getter. Only getters carry
// guards; the guard scopes the whole property.
func (d *TypeDef) AddGuardedGetter(name, guard string, fn GetterFunc) *TypeDef {
	d.record(d.getsets.AddGetter(name, guard, fn))
	return d
}

// AddSetter registers the setter of a property. setterName is the native
// accessor's own name, used in diagnostics for getterless properties.
func (d *TypeDef) AddSetter(name, setterName string, fn SetterFunc) *TypeDef {
	d.record(d.getsets.AddSetter(name, setterName, fn))
	return d
}

// AddDeleter registers the deleter of a property.
func (d *TypeDef) AddDeleter(name, deleterName string, fn DeleterFunc) *TypeDef {
	d.record(d.getsets.AddDeleter(name, deleterName, fn))
	return d
}

// AddMemberGetter registers a member descriptor getter.
func (d *TypeDef) AddMemberGetter(name string, kind MemberKind, fn GetterFunc) *TypeDef {
	d.record(d.members.AddGetter(name, kind, fn))
	return d
}

// AddMemberSetter registers a member descriptor setter.
func (d *TypeDef) AddMemberSetter(name string, kind MemberKind, fn SetterFunc) *TypeDef {
	d.record(d.members.AddSetter(name, kind, fn))
	return d
}

// AddExtendHook registers an arbitrary class-extension procedure, run
// after the registry renders.
func (d *TypeDef) AddExtendHook(hook InstallFunc) *TypeDef {
	d.hooks = append(d.hooks, hook)
	return d
}

// With composes capabilities into the definition. Their class installers
// run after everything the definition installs itself; their slot
// installers run after the definition's own slot entries.
func (d *TypeDef) With(caps ...Capability) *TypeDef {
	d.caps = append(d.caps, caps...)
	return d
}

// Validate freezes the collected items and reports the first contract
// error. Idempotent.
func (d *TypeDef) Validate() error {
	if err := d.registry.Validate(); err != nil && d.err == nil {
		d.err = err
	}
	if err := d.getsets.Validate(); err != nil && d.err == nil {
		d.err = err
	}
	if err := d.members.Validate(); err != nil && d.err == nil {
		d.err = err
	}
	return d.err
}

// Realize installs the definition onto the class: properties and members
// first, then registry items in (priority, insertion) order, then extend
// hooks, then each composed capability's class installer; finally the
// capabilities' slot installers, concatenated after the definition's own
// slot entries. Contract errors panic.
func (d *TypeDef) Realize(ctx *Context, class *Class) {
	if err := d.Validate(); err != nil {
		panic(fmt.Sprintf("vm: type %q: %v", d.Name, err))
	}
	class.Name = d.Name
	class.Module = d.Module
	class.Doc = d.Doc
	if err := d.getsets.Install(ctx, class); err != nil {
		panic(fmt.Sprintf("vm: type %q: %v", d.Name, err))
	}
	if err := d.members.Install(ctx, class); err != nil {
		panic(fmt.Sprintf("vm: type %q: %v", d.Name, err))
	}
	for _, install := range d.registry.Render() {
		if err := install(ctx, class); err != nil {
			panic(fmt.Sprintf("vm: type %q: %v", d.Name, err))
		}
	}
	for _, hook := range d.hooks {
		if err := hook(ctx, class); err != nil {
			panic(fmt.Sprintf("vm: type %q: %v", d.Name, err))
		}
	}
	for _, cap := range d.caps {
		if cap.ExtendClass == nil {
			continue
		}
		if err := cap.ExtendClass(ctx, class); err != nil {
			panic(fmt.Sprintf("vm: type %q: capability %s: %v", d.Name, cap.Name, err))
		}
	}
	for _, cap := range d.caps {
		if cap.ExtendSlots != nil {
			cap.ExtendSlots(class.Slots())
		}
	}
	class.Seal()
}
