package vm

import (
	"math/big"
	"sync"
)

// ---------------------------------------------------------------------------
// Name interning
// ---------------------------------------------------------------------------

// NameTable deduplicates attribute and type names so repeated lookups
// share one backing string.
type NameTable struct {
	mu    sync.Mutex
	names map[string]string
}

// NewNameTable creates an empty name table.
func NewNameTable() *NameTable {
	return &NameTable{names: map[string]string{}}
}

// Intern returns the canonical instance of name.
func (t *NameTable) Intern(name string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if canon, ok := t.names[name]; ok {
		return canon
	}
	t.names[name] = name
	return name
}

// Len returns the number of interned names.
func (t *NameTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.names)
}

// ---------------------------------------------------------------------------
// Context
// ---------------------------------------------------------------------------

// BuiltinTypes holds the realized builtin classes.
type BuiltinTypes struct {
	Object            *Class
	Type              *Class
	NoneType          *Class
	Bool              *Class
	NotImplementedType *Class
	Int               *Class
	Float             *Class
	Str               *Class
	Bytes             *Class
	List              *Class
	Slice             *Class
	Function          *Class
	BoundMethod       *Class
	GetSet            *Class
	Member            *Class
	SeqIterator       *Class
	Array             *Class
	ArrayIterator     *Class
	Range             *Class
	RangeIterator     *Class
	LongRangeIterator *Class
}

// Context is the runtime context: the builtin type table, the class
// registry, and interned names. Construction happens once, single
// threaded; afterwards the context is safe for concurrent use.
type Context struct {
	Types   BuiltinTypes
	Classes *ClassTable
	Names   *NameTable
}

var (
	sharedCtx  *Context
	sharedOnce sync.Once
)

// Shared returns the process-wide context, building it on first use.
func Shared() *Context {
	sharedOnce.Do(func() {
		sharedCtx = NewContext()
	})
	return sharedCtx
}

// NewContext builds a fresh context with all builtin types realized.
// Realization is strictly single threaded; any type-definition contract
// violation panics here, before the context is visible to anyone.
func NewContext() *Context {
	ctx := &Context{
		Classes: NewClassTable(),
		Names:   NewNameTable(),
	}
	t := &ctx.Types

	// Bare classes first, so installers can reference each other's
	// classes before methods exist.
	t.Object = NewClass("object", "", nil)
	t.Type = NewClass("type", "", t.Object)
	t.NoneType = NewClass("NoneType", "", t.Object)
	t.Bool = NewClass("bool", "", t.Object)
	t.NotImplementedType = NewClass("NotImplementedType", "", t.Object)
	t.Int = NewClass("int", "", t.Object)
	t.Float = NewClass("float", "", t.Object)
	t.Str = NewClass("str", "", t.Object)
	t.Bytes = NewClass("bytes", "", t.Object)
	t.List = NewClass("list", "", t.Object)
	t.Slice = NewClass("slice", "", t.Object)
	t.Function = NewClass("builtin_function_or_method", "", t.Object)
	t.BoundMethod = NewClass("builtin_method", "", t.Object)
	t.GetSet = NewClass("getset_descriptor", "", t.Object)
	t.Member = NewClass("member_descriptor", "", t.Object)
	t.SeqIterator = NewClass("iterator", "", t.Object)
	t.Array = NewClass("array", "array", t.Object)
	t.ArrayIterator = NewClass("arrayiterator", "array", t.Object)
	t.Range = NewClass("range", "", t.Object)
	t.RangeIterator = NewClass("range_iterator", "", t.Object)
	t.LongRangeIterator = NewClass("longrange_iterator", "", t.Object)

	registerCoreTypes(ctx)
	registerSeqIteratorType(ctx)
	registerIntType(ctx)
	registerFloatType(ctx)
	registerStrType(ctx)
	registerBytesType(ctx)
	registerListType(ctx)
	registerSliceType(ctx)
	registerArrayType(ctx)
	registerArrayIteratorType(ctx)
	registerRangeType(ctx)
	registerRangeIteratorTypes(ctx)

	for _, c := range []*Class{
		t.Object, t.Type, t.NoneType, t.Bool, t.NotImplementedType,
		t.Int, t.Float, t.Str, t.Bytes, t.List, t.Slice,
		t.Function, t.BoundMethod, t.GetSet, t.Member,
		t.SeqIterator, t.Array, t.ArrayIterator,
		t.Range, t.RangeIterator, t.LongRangeIterator,
	} {
		ctx.Classes.Register(c)
	}
	return ctx
}

// ClassOf maps any value to its class.
func (ctx *Context) ClassOf(v Value) *Class {
	switch v.kind {
	case kindNil:
		return ctx.Types.NoneType
	case kindBool:
		return ctx.Types.Bool
	case kindNotImplemented:
		return ctx.Types.NotImplementedType
	case kindInt:
		return ctx.Types.Int
	case kindFloat:
		return ctx.Types.Float
	case kindObject:
		return v.obj.class
	default:
		panic("vm: ClassOf called on invalid value")
	}
}

// TypeName returns the class name of a value, for diagnostics.
func (ctx *Context) TypeName(v Value) string {
	return ctx.ClassOf(v).Name
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// NewStr allocates a string value.
func (ctx *Context) NewStr(s string) Value {
	return FromObject(NewObject(ctx.Types.Str, &Str{s: s}))
}

// NewBytes allocates a bytes value. The slice is owned by the value.
func (ctx *Context) NewBytes(b []byte) Value {
	return FromObject(NewObject(ctx.Types.Bytes, &Bytes{b: b}))
}

// NewList allocates a list value over the given items.
func (ctx *Context) NewList(items []Value) Value {
	return FromObject(NewObject(ctx.Types.List, &List{items: items}))
}

// NewBigInt normalizes an arbitrary-precision integer: inline when it
// fits a machine word, a heap big-integer payload otherwise. The value
// takes ownership of n.
func (ctx *Context) NewBigInt(n *big.Int) Value {
	if n.IsInt64() {
		return FromInt(n.Int64())
	}
	i := &Int{}
	i.value.Set(n)
	return FromObject(NewObject(ctx.Types.Int, i))
}

// NewSlice allocates a slice value; any bound may be None.
func (ctx *Context) NewSlice(start, stop, step Value) Value {
	return FromObject(NewObject(ctx.Types.Slice, &Slice{Start: start, Stop: stop, Step: step}))
}

// ---------------------------------------------------------------------------
// Generic operations
// ---------------------------------------------------------------------------

// Truthy evaluates a value's truthiness: singletons and numbers directly,
// then the number protocol, then emptiness via length, then true.
func (ctx *Context) Truthy(v Value) (bool, error) {
	if t, ok := v.isTruthyFast(); ok {
		return t, nil
	}
	slots := ctx.ClassOf(v).Slots()
	if nm := slots.Number(); nm != nil && nm.Bool != nil {
		return nm.Bool(ctx, v)
	}
	if sm := slots.Sequence(); sm != nil && sm.Length != nil {
		n, err := sm.Length(ctx, v)
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}
	if mm := slots.Mapping(); mm != nil && mm.Length != nil {
		n, err := mm.Length(ctx, v)
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}
	return true, nil
}

// Repr renders a value through its Repr slot.
func (ctx *Context) Repr(v Value) (string, error) {
	class := ctx.ClassOf(v)
	if r := class.Slots().Repr; r != nil {
		return r(ctx, v)
	}
	return "<" + class.Name + " object>", nil
}

// Hash hashes a value through its Hash slot.
func (ctx *Context) Hash(v Value) (uint64, error) {
	class := ctx.ClassOf(v)
	if h := class.Slots().Hash; h != nil {
		return h(ctx, v)
	}
	return 0, NewTypeError("unhashable type: %q", class.Name)
}

// RichCompare dispatches a comparison: the left operand's Compare slot,
// then the right's with the operation swapped, then identity for
// equality and an error for ordering.
func (ctx *Context) RichCompare(a, b Value, op CompareOp) (Value, error) {
	if cmp := ctx.ClassOf(a).Slots().Compare; cmp != nil {
		r, err := cmp(ctx, a, b, op)
		if err != nil {
			return Value{}, err
		}
		if !r.IsNotImplemented() {
			return r, nil
		}
	}
	if cmp := ctx.ClassOf(b).Slots().Compare; cmp != nil {
		r, err := cmp(ctx, b, a, op.Swapped())
		if err != nil {
			return Value{}, err
		}
		if !r.IsNotImplemented() {
			return r, nil
		}
	}
	switch op {
	case OpEq:
		return FromBool(a.Same(b)), nil
	case OpNe:
		return FromBool(!a.Same(b)), nil
	default:
		return Value{}, NewTypeError("%q not supported between instances of %q and %q",
			op.String(), ctx.TypeName(a), ctx.TypeName(b))
	}
}

// Equal reports value equality via RichCompare.
func (ctx *Context) Equal(a, b Value) (bool, error) {
	r, err := ctx.RichCompare(a, b, OpEq)
	if err != nil {
		return false, err
	}
	return ctx.Truthy(r)
}

// GetIter obtains an iterator through the Iter slot.
func (ctx *Context) GetIter(v Value) (Value, error) {
	if it := ctx.ClassOf(v).Slots().Iter; it != nil {
		return it(ctx, v)
	}
	return Value{}, NewTypeError("%q object is not iterable", ctx.TypeName(v))
}

// Next advances an iterator. ok is false on exhaustion.
func (ctx *Context) Next(iter Value) (item Value, ok bool, err error) {
	if next := ctx.ClassOf(iter).Slots().IterNext; next != nil {
		return next(ctx, iter)
	}
	return Value{}, false, NewTypeError("%q object is not an iterator", ctx.TypeName(iter))
}

// Collect drains an iterable into a slice.
func (ctx *Context) Collect(iterable Value) ([]Value, error) {
	iter, err := ctx.GetIter(iterable)
	if err != nil {
		return nil, err
	}
	var out []Value
	for {
		item, ok, err := ctx.Next(iter)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, item)
	}
}

// Len measures a value through its sequence or mapping protocol.
func (ctx *Context) Len(v Value) (int, error) {
	slots := ctx.ClassOf(v).Slots()
	if sm := slots.Sequence(); sm != nil && sm.Length != nil {
		return sm.Length(ctx, v)
	}
	if mm := slots.Mapping(); mm != nil && mm.Length != nil {
		return mm.Length(ctx, v)
	}
	return 0, NewTypeError("object of type %q has no length", ctx.TypeName(v))
}

// GetAttr resolves an attribute on a value's class, applying descriptor
// behavior: properties and members call their getters, functions bind
// their receiver.
func (ctx *Context) GetAttr(v Value, name string) (Value, error) {
	class := ctx.ClassOf(v)
	attr, ok := class.Attr(name)
	if !ok {
		return Value{}, NewAttributeError("%q object has no attribute %q", class.Name, name)
	}
	if attr.IsObject() {
		switch p := attr.Object().Payload().(type) {
		case *GetSet:
			return p.BindGet(ctx, v)
		case *Member:
			return p.BindGet(ctx, v)
		case *Function:
			return p.bind(ctx, v, class), nil
		}
	}
	return attr, nil
}

// SetAttr assigns through a descriptor attribute. Non-descriptor
// attributes are read-only on instances.
func (ctx *Context) SetAttr(v Value, name string, value Value) error {
	class := ctx.ClassOf(v)
	attr, ok := class.Attr(name)
	if !ok {
		return NewAttributeError("%q object has no attribute %q", class.Name, name)
	}
	if attr.IsObject() {
		switch p := attr.Object().Payload().(type) {
		case *GetSet:
			return p.BindSet(ctx, v, value)
		case *Member:
			return p.BindSet(ctx, v, value)
		}
	}
	return NewAttributeError("attribute %q of %q objects is not writable", name, class.Name)
}

// Call invokes a callable value: builtin functions, bound methods, or
// classes (construct then initialize).
func (ctx *Context) Call(callable Value, args []Value) (Value, error) {
	if callable.IsObject() {
		switch p := callable.Object().Payload().(type) {
		case *Function:
			return p.Fn(ctx, Value{}, args)
		case *BoundMethod:
			return p.Call(ctx, args)
		case *Class:
			slots := p.Slots()
			if slots.New == nil {
				return Value{}, NewTypeError("cannot create %q instances", p.Name)
			}
			inst, err := slots.New(ctx, p, args)
			if err != nil {
				return Value{}, err
			}
			if slots.Init != nil {
				if err := slots.Init(ctx, inst, args); err != nil {
					return Value{}, err
				}
			}
			return inst, nil
		}
	}
	return Value{}, NewTypeError("%q object is not callable", ctx.TypeName(callable))
}

// CallMethod looks up and invokes a named method.
func (ctx *Context) CallMethod(v Value, name string, args []Value) (Value, error) {
	m, err := ctx.GetAttr(v, name)
	if err != nil {
		return Value{}, err
	}
	return ctx.Call(m, args)
}

// Contains reports membership via the sequence protocol, falling back to
// an equality scan over the iterator.
func (ctx *Context) Contains(container, needle Value) (bool, error) {
	slots := ctx.ClassOf(container).Slots()
	if sm := slots.Sequence(); sm != nil && sm.Contains != nil {
		return sm.Contains(ctx, container, needle)
	}
	iter, err := ctx.GetIter(container)
	if err != nil {
		return false, NewTypeError("argument of type %q is not iterable", ctx.TypeName(container))
	}
	for {
		item, ok, err := ctx.Next(iter)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		eq, err := ctx.Equal(item, needle)
		if err != nil {
			return false, err
		}
		if eq {
			return true, nil
		}
	}
}
