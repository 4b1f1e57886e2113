package vm

import "fmt"

// ---------------------------------------------------------------------------
// Descriptor nurseries
// ---------------------------------------------------------------------------

// Accessor function signatures shared by getset and member descriptors.
type (
	GetterFunc  func(ctx *Context, self Value) (Value, error)
	SetterFunc  func(ctx *Context, self, value Value) error
	DeleterFunc func(ctx *Context, self Value) error
)

type getsetKey struct {
	name  string
	guard string
}

type getsetEntry struct {
	name   string
	guard  string
	seq    int
	getter GetterFunc
	setter SetterFunc
	// setterName/deleterName remember which accessor arrived first so a
	// getterless entry can be reported by the accessor that created it.
	setterName  string
	deleterName string
	deleter     DeleterFunc
}

// GetSetNursery collects property accessors keyed by (name, guard) before
// they are rendered into getset descriptors. Each key accepts at most one
// getter, one setter, and one deleter; a second accessor of the same role
// is a hard error. Only the getter may carry a guard.
type GetSetNursery struct {
	entries   map[getsetKey]*getsetEntry
	order     []getsetKey
	validated bool
	verr      error
}

// NewGetSetNursery creates an empty nursery.
func NewGetSetNursery() *GetSetNursery {
	return &GetSetNursery{entries: map[getsetKey]*getsetEntry{}}
}

func (n *GetSetNursery) entry(name, guard string) *getsetEntry {
	key := getsetKey{name: name, guard: guard}
	e, ok := n.entries[key]
	if !ok {
		e = &getsetEntry{name: name, guard: guard, seq: len(n.order)}
		n.entries[key] = e
		n.order = append(n.order, key)
	}
	return e
}

// AddGetter registers the getter for (name, guard).
func (n *GetSetNursery) AddGetter(name, guard string, fn GetterFunc) error {
	if n.validated {
		panic("vm: GetSetNursery.AddGetter after Validate")
	}
	e := n.entry(name, guard)
	if e.getter != nil {
		return fmt.Errorf("multiple property getters with name %q", name)
	}
	e.getter = fn
	return nil
}

// AddSetter registers the setter for name. Setters never carry a guard;
// the guard applies to the whole property through its getter.
func (n *GetSetNursery) AddSetter(name, setterName string, fn SetterFunc) error {
	if n.validated {
		panic("vm: GetSetNursery.AddSetter after Validate")
	}
	e := n.entry(name, "")
	if e.setter != nil {
		return fmt.Errorf("multiple property setters with name %q", name)
	}
	e.setter = fn
	e.setterName = setterName
	return nil
}

// AddDeleter registers the deleter for name.
func (n *GetSetNursery) AddDeleter(name, deleterName string, fn DeleterFunc) error {
	if n.validated {
		panic("vm: GetSetNursery.AddDeleter after Validate")
	}
	e := n.entry(name, "")
	if e.deleter != nil {
		return fmt.Errorf("multiple property deleters with name %q", name)
	}
	e.deleter = fn
	e.deleterName = deleterName
	return nil
}

// Validate checks that every collected property has a getter, naming the
// accessor that created the getterless entry. Validation freezes the
// nursery and is idempotent: repeated calls report the same result.
func (n *GetSetNursery) Validate() error {
	if n.validated {
		return n.verr
	}
	n.validated = true
	for _, key := range n.order {
		e := n.entries[key]
		if e.getter != nil {
			continue
		}
		offender := e.setterName
		if offender == "" {
			offender = e.deleterName
		}
		n.verr = fmt.Errorf("property %q is missing a getter (defined by %q)", e.name, offender)
		return n.verr
	}
	return nil
}

// Install renders the collected properties as getset descriptors onto the
// class, in first-touch order. Installing before validation panics.
func (n *GetSetNursery) Install(ctx *Context, class *Class) error {
	if !n.validated {
		panic("vm: GetSetNursery.Install before Validate")
	}
	if n.verr != nil {
		return n.verr
	}
	for _, key := range n.order {
		e := n.entries[key]
		gs := &GetSet{
			Name:  e.name,
			Class: class,
			Get:   e.getter,
			Set:   e.setter,
			Del:   e.deleter,
		}
		class.SetAttr(e.name, FromObject(NewObject(ctx.Types.GetSet, gs)))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Member nursery
// ---------------------------------------------------------------------------

// MemberKind selects the access implementation rendered for a member
// descriptor.
type MemberKind int

const (
	// MemberBool renders boolean-flag access: the raw value is coerced to
	// a boolean singleton on read.
	MemberBool MemberKind = iota
	// MemberObjectEx renders generic object access: an unset value reads
	// as a missing attribute.
	MemberObjectEx
)

func (k MemberKind) String() string {
	switch k {
	case MemberBool:
		return "bool"
	case MemberObjectEx:
		return "object"
	default:
		return fmt.Sprintf("MemberKind(%d)", int(k))
	}
}

type memberKey struct {
	name string
	kind MemberKind
}

type memberEntry struct {
	name   string
	kind   MemberKind
	seq    int
	getter GetterFunc
	setter SetterFunc
}

// MemberNursery collects member descriptors keyed by (name, kind). A
// getter is mandatory, a setter optional; duplicate accessors for a key
// error.
type MemberNursery struct {
	entries   map[memberKey]*memberEntry
	order     []memberKey
	validated bool
	verr      error
}

// NewMemberNursery creates an empty nursery.
func NewMemberNursery() *MemberNursery {
	return &MemberNursery{entries: map[memberKey]*memberEntry{}}
}

func (n *MemberNursery) entry(name string, kind MemberKind) *memberEntry {
	key := memberKey{name: name, kind: kind}
	e, ok := n.entries[key]
	if !ok {
		e = &memberEntry{name: name, kind: kind, seq: len(n.order)}
		n.entries[key] = e
		n.order = append(n.order, key)
	}
	return e
}

// AddGetter registers the getter for (name, kind).
func (n *MemberNursery) AddGetter(name string, kind MemberKind, fn GetterFunc) error {
	if n.validated {
		panic("vm: MemberNursery.AddGetter after Validate")
	}
	e := n.entry(name, kind)
	if e.getter != nil {
		return fmt.Errorf("multiple member getters with name %q", name)
	}
	e.getter = fn
	return nil
}

// AddSetter registers the setter for (name, kind).
func (n *MemberNursery) AddSetter(name string, kind MemberKind, fn SetterFunc) error {
	if n.validated {
		panic("vm: MemberNursery.AddSetter after Validate")
	}
	e := n.entry(name, kind)
	if e.setter != nil {
		return fmt.Errorf("multiple member setters with name %q", name)
	}
	e.setter = fn
	return nil
}

// Validate checks that every member has a getter. Freezes; idempotent.
func (n *MemberNursery) Validate() error {
	if n.validated {
		return n.verr
	}
	n.validated = true
	for _, key := range n.order {
		e := n.entries[key]
		if e.getter == nil {
			n.verr = fmt.Errorf("member %q has a setter but no getter", e.name)
			return n.verr
		}
	}
	return nil
}

// Install renders the members as descriptors onto the class.
func (n *MemberNursery) Install(ctx *Context, class *Class) error {
	if !n.validated {
		panic("vm: MemberNursery.Install before Validate")
	}
	if n.verr != nil {
		return n.verr
	}
	for _, key := range n.order {
		e := n.entries[key]
		m := &Member{
			Name:  e.name,
			Kind:  e.kind,
			Class: class,
			Get:   e.getter,
			Set:   e.setter,
		}
		class.SetAttr(e.name, FromObject(NewObject(ctx.Types.Member, m)))
	}
	return nil
}
