package vm

import "math/big"

// Int is the heap payload for integers too wide for an inline value.
// Small integers never reach the heap; NewBigInt normalizes.
type Int struct {
	value big.Int
}

// Big returns the backing integer. Callers must not mutate it.
func (i *Int) Big() *big.Int { return &i.value }

func registerIntType(ctx *Context) {
	NewTypeDef("int").
		AddMethod(Method0("bit_length", func(ctx *Context, self Value) (Value, error) {
			b, _ := AsBigInt(self)
			return FromInt(int64(b.BitLen())), nil
		})).
		With(
			Unconstructible(),
			Representable(func(ctx *Context, self Value) (string, error) {
				b, _ := AsBigInt(self)
				return b.String(), nil
			}),
			Hashable(func(ctx *Context, self Value) (uint64, error) {
				b, _ := AsBigInt(self)
				return hashBig(b), nil
			}),
			Comparable(numericCompare),
			AsNumberProvider(&intNumberMethods),
		).
		Realize(ctx, ctx.Types.Int)
}

var intNumberMethods = NumberMethods{
	Add: func(ctx *Context, a, b Value) (Value, error) {
		return intBinop(ctx, a, b, func(x, y, out *big.Int) { out.Add(x, y) })
	},
	Subtract: func(ctx *Context, a, b Value) (Value, error) {
		return intBinop(ctx, a, b, func(x, y, out *big.Int) { out.Sub(x, y) })
	},
	Multiply: func(ctx *Context, a, b Value) (Value, error) {
		return intBinop(ctx, a, b, func(x, y, out *big.Int) { out.Mul(x, y) })
	},
	Negative: func(ctx *Context, v Value) (Value, error) {
		b, _ := AsBigInt(v)
		return ctx.NewBigInt(new(big.Int).Neg(b)), nil
	},
	Bool: func(ctx *Context, v Value) (bool, error) {
		b, _ := AsBigInt(v)
		return b.Sign() != 0, nil
	},
}

func intBinop(ctx *Context, a, b Value, op func(x, y, out *big.Int)) (Value, error) {
	x, ok := AsBigInt(a)
	if !ok {
		return NotImplemented, nil
	}
	y, ok := AsBigInt(b)
	if !ok {
		return NotImplemented, nil
	}
	out := new(big.Int)
	op(x, y, out)
	return ctx.NewBigInt(out), nil
}
