package vm

import "fmt"

// ---------------------------------------------------------------------------
// Builtin functions and methods
// ---------------------------------------------------------------------------

// BuiltinFunc is the native implementation behind a builtin function or
// method. self is the bound receiver, or the invalid Value for plain and
// static functions.
type BuiltinFunc func(ctx *Context, self Value, args []Value) (Value, error)

type funcKind int

const (
	funcMethod funcKind = iota
	funcClassMethod
	funcStaticMethod
)

// Function is a builtin function payload. Methods bind their receiver at
// attribute lookup; classmethods bind the class; staticmethods bind
// nothing.
type Function struct {
	Name string
	Doc  string
	Fn   BuiltinFunc
	kind funcKind
}

// NewFunction creates an instance-method function.
func NewFunction(name string, fn BuiltinFunc) *Function {
	return &Function{Name: name, Fn: fn, kind: funcMethod}
}

// NewClassMethod creates a classmethod function.
func NewClassMethod(name string, fn BuiltinFunc) *Function {
	return &Function{Name: name, Fn: fn, kind: funcClassMethod}
}

// NewStaticMethod creates a staticmethod function.
func NewStaticMethod(name string, fn BuiltinFunc) *Function {
	return &Function{Name: name, Fn: fn, kind: funcStaticMethod}
}

// BoundMethod is a function paired with its receiver.
type BoundMethod struct {
	Recv Value
	Fn   *Function
}

// Call invokes the bound pair.
func (b *BoundMethod) Call(ctx *Context, args []Value) (Value, error) {
	return b.Fn.Fn(ctx, b.Recv, args)
}

// bind resolves the descriptor behavior of a function found on a class:
// instance methods bind the instance, classmethods bind the class, and
// staticmethods are returned unbound.
func (f *Function) bind(ctx *Context, instance Value, owner *Class) Value {
	switch f.kind {
	case funcClassMethod:
		recv := FromObject(NewObject(ctx.Types.Type, owner))
		return FromObject(NewObject(ctx.Types.BoundMethod, &BoundMethod{Recv: recv, Fn: f}))
	case funcStaticMethod:
		return FromObject(NewObject(ctx.Types.Function, f))
	default:
		return FromObject(NewObject(ctx.Types.BoundMethod, &BoundMethod{Recv: instance, Fn: f}))
	}
}

// ---------------------------------------------------------------------------
// Arity helpers
// ---------------------------------------------------------------------------

func checkArity(name string, args []Value, want int) error {
	if len(args) != want {
		noun := "arguments"
		if want == 1 {
			noun = "argument"
		}
		return NewTypeError("%s() takes exactly %d %s (%d given)", name, want, noun, len(args))
	}
	return nil
}

func checkArityRange(name string, args []Value, min, max int) error {
	if len(args) < min || len(args) > max {
		return NewTypeError("%s() takes %d to %d arguments (%d given)", name, min, max, len(args))
	}
	return nil
}

// Method0 wraps a no-argument method with arity checking.
func Method0(name string, fn func(ctx *Context, self Value) (Value, error)) *Function {
	return NewFunction(name, func(ctx *Context, self Value, args []Value) (Value, error) {
		if err := checkArity(name, args, 0); err != nil {
			return Value{}, err
		}
		return fn(ctx, self)
	})
}

// Method1 wraps a one-argument method with arity checking.
func Method1(name string, fn func(ctx *Context, self, a Value) (Value, error)) *Function {
	return NewFunction(name, func(ctx *Context, self Value, args []Value) (Value, error) {
		if err := checkArity(name, args, 1); err != nil {
			return Value{}, err
		}
		return fn(ctx, self, args[0])
	})
}

// Method2 wraps a two-argument method with arity checking.
func Method2(name string, fn func(ctx *Context, self, a, b Value) (Value, error)) *Function {
	return NewFunction(name, func(ctx *Context, self Value, args []Value) (Value, error) {
		if err := checkArity(name, args, 2); err != nil {
			return Value{}, err
		}
		return fn(ctx, self, args[0], args[1])
	})
}

// MethodVar wraps a method accepting min to max arguments; missing
// trailing arguments arrive as the invalid Value.
func MethodVar(name string, min, max int, fn func(ctx *Context, self Value, args []Value) (Value, error)) *Function {
	return NewFunction(name, func(ctx *Context, self Value, args []Value) (Value, error) {
		if err := checkArityRange(name, args, min, max); err != nil {
			return Value{}, err
		}
		full := make([]Value, max)
		copy(full, args)
		return fn(ctx, self, full)
	})
}

func (k funcKind) String() string {
	switch k {
	case funcClassMethod:
		return "classmethod"
	case funcStaticMethod:
		return "staticmethod"
	default:
		return "method"
	}
}

func (f *Function) String() string {
	return fmt.Sprintf("<%s %s>", f.kind, f.Name)
}
