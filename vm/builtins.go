package vm

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
)

// ---------------------------------------------------------------------------
// Core builtin types
// ---------------------------------------------------------------------------

// registerCoreTypes realizes the structural types that carry no interesting
// protocol surface of their own: object, type, the singletons, and the
// callable/descriptor classes.
func registerCoreTypes(ctx *Context) {
	NewTypeDef("object").
		WithDoc("The base class of the class hierarchy.").
		With(
			Representable(func(ctx *Context, self Value) (string, error) {
				return "<" + ctx.TypeName(self) + " object>", nil
			}),
			Hashable(func(ctx *Context, self Value) (uint64, error) {
				if self.IsObject() {
					return hashBytes([]byte(fmt.Sprintf("%p", self.Object()))), nil
				}
				return hashCombine(uint64(self.kind), uint64(self.n)), nil
			}),
		).
		Realize(ctx, ctx.Types.Object)

	NewTypeDef("type").
		AddGetter("__name__", func(ctx *Context, self Value) (Value, error) {
			return ctx.NewStr(classPayload(self).Name), nil
		}).
		AddGetter("__qualname__", func(ctx *Context, self Value) (Value, error) {
			return ctx.NewStr(classPayload(self).FullName()), nil
		}).
		AddGetter("__doc__", func(ctx *Context, self Value) (Value, error) {
			return ctx.NewStr(classPayload(self).Doc), nil
		}).
		With(
			Representable(func(ctx *Context, self Value) (string, error) {
				return "<class '" + classPayload(self).FullName() + "'>", nil
			}),
		).
		Realize(ctx, ctx.Types.Type)

	NewTypeDef("NoneType").
		With(
			Unconstructible(),
			Representable(func(ctx *Context, self Value) (string, error) {
				return "None", nil
			}),
			Hashable(func(ctx *Context, self Value) (uint64, error) {
				return hashString("None"), nil
			}),
		).
		Realize(ctx, ctx.Types.NoneType)

	NewTypeDef("bool").
		With(
			Unconstructible(),
			Representable(func(ctx *Context, self Value) (string, error) {
				if self.Bool() {
					return "True", nil
				}
				return "False", nil
			}),
			Hashable(func(ctx *Context, self Value) (uint64, error) {
				if self.Bool() {
					return hashInt64(1), nil
				}
				return hashInt64(0), nil
			}),
			Comparable(func(ctx *Context, self, other Value, op CompareOp) (Value, error) {
				var n int64
				if self.Bool() {
					n = 1
				}
				return numericCompare(ctx, FromInt(n), other, op)
			}),
		).
		Realize(ctx, ctx.Types.Bool)

	NewTypeDef("NotImplementedType").
		With(
			Unconstructible(),
			Representable(func(ctx *Context, self Value) (string, error) {
				return "NotImplemented", nil
			}),
		).
		Realize(ctx, ctx.Types.NotImplementedType)

	NewTypeDef("builtin_function_or_method").
		AddGetter("__name__", func(ctx *Context, self Value) (Value, error) {
			return ctx.NewStr(functionPayload(self).Name), nil
		}).
		AddGetter("__doc__", func(ctx *Context, self Value) (Value, error) {
			return ctx.NewStr(functionPayload(self).Doc), nil
		}).
		With(
			Unconstructible(),
			Representable(func(ctx *Context, self Value) (string, error) {
				return functionPayload(self).String(), nil
			}),
		).
		Realize(ctx, ctx.Types.Function)

	NewTypeDef("builtin_method").
		AddGetter("__name__", func(ctx *Context, self Value) (Value, error) {
			return ctx.NewStr(boundMethodPayload(self).Fn.Name), nil
		}).
		With(
			Unconstructible(),
			Representable(func(ctx *Context, self Value) (string, error) {
				b := boundMethodPayload(self)
				return fmt.Sprintf("<bound method %s of %s object>", b.Fn.Name, ctx.TypeName(b.Recv)), nil
			}),
		).
		Realize(ctx, ctx.Types.BoundMethod)

	NewTypeDef("getset_descriptor").
		With(
			Unconstructible(),
			Representable(func(ctx *Context, self Value) (string, error) {
				g := self.Payload().(*GetSet)
				return fmt.Sprintf("<attribute %q of %q objects>", g.Name, g.Class.Name), nil
			}),
		).
		Realize(ctx, ctx.Types.GetSet)

	NewTypeDef("member_descriptor").
		With(
			Unconstructible(),
			Representable(func(ctx *Context, self Value) (string, error) {
				m := self.Payload().(*Member)
				return fmt.Sprintf("<member %q of %q objects>", m.Name, m.Class.Name), nil
			}),
		).
		Realize(ctx, ctx.Types.Member)
}

func classPayload(v Value) *Class {
	c, ok := v.Payload().(*Class)
	if !ok {
		panic("vm: expected class payload")
	}
	return c
}

func functionPayload(v Value) *Function {
	f, ok := v.Payload().(*Function)
	if !ok {
		panic("vm: expected function payload")
	}
	return f
}

func boundMethodPayload(v Value) *BoundMethod {
	b, ok := v.Payload().(*BoundMethod)
	if !ok {
		panic("vm: expected bound method payload")
	}
	return b
}

// ---------------------------------------------------------------------------
// float
// ---------------------------------------------------------------------------

func registerFloatType(ctx *Context) {
	NewTypeDef("float").
		With(
			Unconstructible(),
			Representable(func(ctx *Context, self Value) (string, error) {
				return formatFloat(self.Float()), nil
			}),
			Hashable(func(ctx *Context, self Value) (uint64, error) {
				return hashFloat(self.Float()), nil
			}),
			Comparable(numericCompare),
			AsNumberProvider(&floatNumberMethods),
		).
		Realize(ctx, ctx.Types.Float)
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	// Keep a float marker on integral values.
	if f == math.Trunc(f) && !hasFloatMarker(s) {
		s += ".0"
	}
	return s
}

func hasFloatMarker(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' || s[i] == 'e' || s[i] == 'E' {
			return true
		}
	}
	return false
}

var floatNumberMethods = NumberMethods{
	Add: func(ctx *Context, a, b Value) (Value, error) {
		fa, fb, ok := floatOperands(a, b)
		if !ok {
			return NotImplemented, nil
		}
		return FromFloat(fa + fb), nil
	},
	Subtract: func(ctx *Context, a, b Value) (Value, error) {
		fa, fb, ok := floatOperands(a, b)
		if !ok {
			return NotImplemented, nil
		}
		return FromFloat(fa - fb), nil
	},
	Multiply: func(ctx *Context, a, b Value) (Value, error) {
		fa, fb, ok := floatOperands(a, b)
		if !ok {
			return NotImplemented, nil
		}
		return FromFloat(fa * fb), nil
	},
	Negative: func(ctx *Context, v Value) (Value, error) {
		return FromFloat(-v.Float()), nil
	},
	Bool: func(ctx *Context, v Value) (bool, error) {
		return v.Float() != 0, nil
	},
}

// floatOperands coerces a float/number operand pair to floats.
func floatOperands(a, b Value) (float64, float64, bool) {
	fa, ok := asFloat(a)
	if !ok {
		return 0, 0, false
	}
	fb, ok := asFloat(b)
	if !ok {
		return 0, 0, false
	}
	return fa, fb, true
}

func asFloat(v Value) (float64, bool) {
	if v.IsFloat() {
		return v.Float(), true
	}
	if b, ok := AsBigInt(v); ok {
		f, _ := new(big.Float).SetInt(b).Float64()
		return f, true
	}
	return 0, false
}

// numericCompare orders any mix of integer and float operands, precisely
// for integer pairs and through big.Float otherwise. NaN compares false
// for everything except inequality.
func numericCompare(ctx *Context, self, other Value, op CompareOp) (Value, error) {
	self = liftBool(self)
	other = liftBool(other)
	sb, sInt := AsBigInt(self)
	ob, oInt := AsBigInt(other)
	if sInt && oInt {
		return FromBool(op.EvalOrd(sb.Cmp(ob))), nil
	}
	sf, ok := bigFloatOperand(self, sb, sInt)
	if !ok {
		if self.IsFloat() && math.IsNaN(self.Float()) {
			return nanCompare(op), nil
		}
		return NotImplemented, nil
	}
	of, ok := bigFloatOperand(other, ob, oInt)
	if !ok {
		if other.IsFloat() && math.IsNaN(other.Float()) {
			return nanCompare(op), nil
		}
		return NotImplemented, nil
	}
	return FromBool(op.EvalOrd(sf.Cmp(of))), nil
}

// liftBool maps the boolean singletons to 1 and 0 so they order as
// integers against any numeric operand.
func liftBool(v Value) Value {
	if v.IsBool() {
		if v.Bool() {
			return FromInt(1)
		}
		return FromInt(0)
	}
	return v
}

// bigFloatOperand lifts a numeric operand to big.Float. Infinities map to
// big.Float infinities; NaN and non-numbers report not-ok.
func bigFloatOperand(v Value, b *big.Int, isInt bool) (*big.Float, bool) {
	if isInt {
		return new(big.Float).SetInt(b), true
	}
	if !v.IsFloat() {
		return nil, false
	}
	f := v.Float()
	if math.IsNaN(f) {
		return nil, false
	}
	if math.IsInf(f, 1) {
		return new(big.Float).SetInf(false), true
	}
	if math.IsInf(f, -1) {
		return new(big.Float).SetInf(true), true
	}
	return big.NewFloat(f), true
}

func nanCompare(op CompareOp) Value {
	return FromBool(op == OpNe)
}
