package vm

import (
	"fmt"
	"sort"
)

// ---------------------------------------------------------------------------
// Extension registry
// ---------------------------------------------------------------------------

// Install priorities. Rendering sorts ascending, so constants and simple
// attributes land first, slot installers next, and methods last.
const (
	PriorityAttr   = 1
	PrioritySlot   = 2
	PriorityMethod = 5
)

// InstallFunc installs one extension item onto a live class.
type InstallFunc func(ctx *Context, class *Class) error

type extensionKey struct {
	name  string
	guard string
}

type extensionEntry struct {
	primary  string
	names    []string
	guard    string
	priority int
	seq      int
	install  InstallFunc
}

// ExtensionRegistry accumulates the items a type definition will install
// onto its class. Each entry carries a priority, the attribute names it
// claims, an optional guard label, and the install procedure.
//
// Duplicate (primary name, guard) pairs are rejected at Add time. Entries
// with the same primary name but different guards are admitted without
// further checking; a guard asserts that its conditions are mutually
// exclusive with every other guard on that name, and the registry takes
// that assertion on faith.
type ExtensionRegistry struct {
	entries   []extensionEntry
	index     map[extensionKey]int
	validated bool
}

// NewExtensionRegistry creates an empty registry.
func NewExtensionRegistry() *ExtensionRegistry {
	return &ExtensionRegistry{index: map[extensionKey]int{}}
}

// Add registers an extension item. names holds every attribute name the
// item claims; the first is the primary name used for duplicate detection.
// Adding after validation is a programming-contract violation and panics.
func (r *ExtensionRegistry) Add(names []string, guard string, priority int, install InstallFunc) error {
	if r.validated {
		panic("vm: ExtensionRegistry.Add after Validate")
	}
	if len(names) == 0 {
		return fmt.Errorf("extension item has no names")
	}
	if install == nil {
		return fmt.Errorf("extension item %q has no install procedure", names[0])
	}
	key := extensionKey{name: names[0], guard: guard}
	if _, dup := r.index[key]; dup {
		if guard == "" {
			return fmt.Errorf("duplicate extension name %q", names[0])
		}
		return fmt.Errorf("duplicate extension name %q under guard %q", names[0], guard)
	}
	r.index[key] = len(r.entries)
	r.entries = append(r.entries, extensionEntry{
		primary:  names[0],
		names:    append([]string(nil), names...),
		guard:    guard,
		priority: priority,
		seq:      len(r.entries),
		install:  install,
	})
	return nil
}

// Validate freezes the registry. It is idempotent: calling it again
// reports the same result without re-scanning.
func (r *ExtensionRegistry) Validate() error {
	r.validated = true
	return nil
}

// Validated reports whether the registry has been frozen.
func (r *ExtensionRegistry) Validated() bool { return r.validated }

// Render returns the install procedures ordered by (priority, insertion
// order). Rendering before validation is a contract violation.
func (r *ExtensionRegistry) Render() []InstallFunc {
	if !r.validated {
		panic("vm: ExtensionRegistry.Render before Validate")
	}
	ordered := make([]extensionEntry, len(r.entries))
	copy(ordered, r.entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].priority != ordered[j].priority {
			return ordered[i].priority < ordered[j].priority
		}
		return ordered[i].seq < ordered[j].seq
	})
	out := make([]InstallFunc, len(ordered))
	for i, e := range ordered {
		out[i] = e.install
	}
	return out
}

// Names returns every claimed attribute name, primary or alias, in
// insertion order.
func (r *ExtensionRegistry) Names() []string {
	var out []string
	for _, e := range r.entries {
		out = append(out, e.names...)
	}
	return out
}
