package vm

import (
	"strings"
	"sync"
)

// List is the mutable sequence payload used for tolist, reduce forms and
// test scaffolding. One mutex, no reader/writer split; lists here are
// plumbing, not a hot path.
type List struct {
	mu    sync.Mutex
	items []Value
}

// Items returns a snapshot of the list contents.
func (l *List) Items() []Value {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Value, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the item count.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Append adds an item at the end.
func (l *List) Append(v Value) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, v)
}

// AsList extracts a list payload.
func AsList(v Value) (*List, bool) {
	if !v.IsObject() {
		return nil, false
	}
	l, ok := v.Object().Payload().(*List)
	return l, ok
}

func listPayload(v Value) *List {
	l, ok := AsList(v)
	if !ok {
		panic("vm: expected list payload")
	}
	return l
}

var listSequenceMethods = SequenceMethods{
	Length: func(ctx *Context, self Value) (int, error) {
		return listPayload(self).Len(), nil
	},
	Item: func(ctx *Context, self Value, i int) (Value, error) {
		l := listPayload(self)
		l.mu.Lock()
		defer l.mu.Unlock()
		if i < 0 {
			i += len(l.items)
		}
		if i < 0 || i >= len(l.items) {
			return Value{}, NewIndexError("list index out of range")
		}
		return l.items[i], nil
	},
	AssignItem: func(ctx *Context, self Value, i int, value Value) error {
		l := listPayload(self)
		l.mu.Lock()
		defer l.mu.Unlock()
		if i < 0 {
			i += len(l.items)
		}
		if i < 0 || i >= len(l.items) {
			return NewIndexError("list assignment index out of range")
		}
		if !value.IsValid() {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return nil
		}
		l.items[i] = value
		return nil
	},
	Contains: func(ctx *Context, self, needle Value) (bool, error) {
		for _, item := range listPayload(self).Items() {
			eq, err := ctx.Equal(item, needle)
			if err != nil {
				return false, err
			}
			if eq {
				return true, nil
			}
		}
		return false, nil
	},
}

func registerListType(ctx *Context) {
	NewTypeDef("list").
		AddMethod(Method1("append", func(ctx *Context, self, v Value) (Value, error) {
			listPayload(self).Append(v)
			return None, nil
		})).
		With(
			Constructible(func(ctx *Context, class *Class, args []Value) (Value, error) {
				if len(args) > 1 {
					return Value{}, NewTypeError("list() takes at most 1 argument (%d given)", len(args))
				}
				if len(args) == 0 {
					return ctx.NewList(nil), nil
				}
				items, err := ctx.Collect(args[0])
				if err != nil {
					return Value{}, err
				}
				return ctx.NewList(items), nil
			}),
			Representable(listRepr),
			Unhashable(),
			Comparable(listCompare),
			Iterable(func(ctx *Context, self Value) (Value, error) {
				return newPositionIterator(ctx, self), nil
			}),
			AsSequenceProvider(&listSequenceMethods),
		).
		Realize(ctx, ctx.Types.List)
}

func listRepr(ctx *Context, self Value) (string, error) {
	items := listPayload(self).Items()
	var sb strings.Builder
	sb.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		r, err := ctx.Repr(item)
		if err != nil {
			return "", err
		}
		sb.WriteString(r)
	}
	sb.WriteByte(']')
	return sb.String(), nil
}

func listCompare(ctx *Context, self, other Value, op CompareOp) (Value, error) {
	o, ok := AsList(other)
	if !ok {
		return NotImplemented, nil
	}
	if op != OpEq && op != OpNe {
		return NotImplemented, nil
	}
	a := listPayload(self).Items()
	b := o.Items()
	eq := len(a) == len(b)
	if eq {
		for i := range a {
			same, err := ctx.Equal(a[i], b[i])
			if err != nil {
				return Value{}, err
			}
			if !same {
				eq = false
				break
			}
		}
	}
	if op == OpNe {
		eq = !eq
	}
	return FromBool(eq), nil
}
