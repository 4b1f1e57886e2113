package vm

import (
	"fmt"
	"sync"
)

// ---------------------------------------------------------------------------
// Class
// ---------------------------------------------------------------------------

// Class is a runtime type. A class is built single-threaded (attributes and
// slots written freely), then sealed; after sealing its attribute table is
// immutable and safe for concurrent readers.
type Class struct {
	Name     string
	Module   string
	Doc      string
	Base     *Class
	Meta     *Class
	BasicSize int

	// Heap means instances carry a native payload; false for classes whose
	// values are inline (integers, booleans).
	Heap bool

	slots     SlotTable
	attrs     map[string]Value
	attrOrder []string
	sealed    bool
}

// NewClass allocates a bare, unsealed class. The definition is installed
// later by TypeDef.Realize; a bare class lets payload constructors refer to
// their class before its methods exist.
func NewClass(name, module string, base *Class) *Class {
	return &Class{
		Name:   name,
		Module: module,
		Base:   base,
		Heap:   true,
		attrs:  map[string]Value{},
	}
}

// FullName returns the module-qualified name, or the bare name for
// top-level classes.
func (c *Class) FullName() string {
	if c.Module == "" {
		return c.Name
	}
	return c.Module + "." + c.Name
}

// Slots returns the class's slot table.
func (c *Class) Slots() *SlotTable { return &c.slots }

// SetAttr installs a named attribute. Panics once the class is sealed;
// attribute installation is a setup-time activity.
func (c *Class) SetAttr(name string, v Value) {
	if c.sealed {
		panic(fmt.Sprintf("vm: SetAttr %q on sealed class %s", name, c.FullName()))
	}
	if _, exists := c.attrs[name]; !exists {
		c.attrOrder = append(c.attrOrder, name)
	}
	c.attrs[name] = v
}

// OwnAttr looks up an attribute on this class only.
func (c *Class) OwnAttr(name string) (Value, bool) {
	v, ok := c.attrs[name]
	return v, ok
}

// Attr looks up an attribute along the base chain.
func (c *Class) Attr(name string) (Value, bool) {
	for k := c; k != nil; k = k.Base {
		if v, ok := k.attrs[name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// OwnAttrNames returns this class's attribute names in insertion order.
func (c *Class) OwnAttrNames() []string {
	out := make([]string, len(c.attrOrder))
	copy(out, c.attrOrder)
	return out
}

// Seal freezes the attribute table. Sealing twice is fine.
func (c *Class) Seal() { c.sealed = true }

// Sealed reports whether the class has been sealed.
func (c *Class) Sealed() bool { return c.sealed }

// IsSubclassOf walks the base chain.
func (c *Class) IsSubclassOf(other *Class) bool {
	for k := c; k != nil; k = k.Base {
		if k == other {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// ClassTable
// ---------------------------------------------------------------------------

// ClassTable is the process-wide registry of realized classes, keyed by
// full name. Reads vastly outnumber writes.
type ClassTable struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

// NewClassTable creates an empty class table.
func NewClassTable() *ClassTable {
	return &ClassTable{classes: map[string]*Class{}}
}

// Register adds a class under its full name. Registering the same name
// twice is a setup bug and panics.
func (t *ClassTable) Register(c *Class) {
	t.mu.Lock()
	defer t.mu.Unlock()
	name := c.FullName()
	if _, exists := t.classes[name]; exists {
		panic(fmt.Sprintf("vm: class %q registered twice", name))
	}
	t.classes[name] = c
}

// Lookup finds a class by full name.
func (t *ClassTable) Lookup(name string) (*Class, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.classes[name]
	return c, ok
}

// Names returns all registered full names, unordered.
func (t *ClassTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.classes))
	for name := range t.classes {
		out = append(out, name)
	}
	return out
}

// Len returns the number of registered classes.
func (t *ClassTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.classes)
}
