package vm

import (
	"math"
	"math/big"
)

// Slice is the slice payload: raw bounds as given, each either an integer
// or None. Normalization against a concrete length happens at use.
type Slice struct {
	Start Value
	Stop  Value
	Step  Value
}

// AsSlice extracts a slice payload.
func AsSlice(v Value) (*Slice, bool) {
	if !v.IsObject() {
		return nil, false
	}
	s, ok := v.Object().Payload().(*Slice)
	return s, ok
}

// saturateIndex converts a bound to a machine int, clamping values beyond
// the machine range instead of failing. Out-of-range bounds behave like
// the nearest representable ones once adjusted against a real length.
func saturateIndex(v Value, what string) (int, error) {
	b, ok := AsBigInt(v)
	if !ok {
		return 0, NewTypeError("slice indices must be integers or None")
	}
	if !b.IsInt64() {
		if b.Sign() < 0 {
			return math.MinInt, nil
		}
		return math.MaxInt, nil
	}
	n := b.Int64()
	if n < math.MinInt {
		return math.MinInt, nil
	}
	if n > math.MaxInt {
		return math.MaxInt, nil
	}
	return int(n), nil
}

// Unpack extracts raw machine bounds with saturation. A zero step errors.
func (s *Slice) Unpack() (start, stop, step int, err error) {
	step = 1
	if s.Step.IsValid() && !s.Step.IsNil() {
		step, err = saturateIndex(s.Step, "step")
		if err != nil {
			return 0, 0, 0, err
		}
		if step == 0 {
			return 0, 0, 0, NewValueError("slice step cannot be zero")
		}
		// -MaxInt keeps -step representable.
		if step < -math.MaxInt {
			step = -math.MaxInt
		}
	}
	if step < 0 {
		start, stop = math.MaxInt, math.MinInt
	} else {
		start, stop = 0, math.MaxInt
	}
	if s.Start.IsValid() && !s.Start.IsNil() {
		start, err = saturateIndex(s.Start, "start")
		if err != nil {
			return 0, 0, 0, err
		}
	}
	if s.Stop.IsValid() && !s.Stop.IsNil() {
		stop, err = saturateIndex(s.Stop, "stop")
		if err != nil {
			return 0, 0, 0, err
		}
	}
	return start, stop, step, nil
}

// AdjustIndices clips raw bounds to a concrete length and returns the
// resulting element count.
func AdjustIndices(length, start, stop, step int) (s, e, count int) {
	if start < 0 {
		start += length
		if start < 0 {
			if step < 0 {
				start = -1
			} else {
				start = 0
			}
		}
	} else if start >= length {
		if step < 0 {
			start = length - 1
		} else {
			start = length
		}
	}
	if stop < 0 {
		stop += length
		if stop < 0 {
			if step < 0 {
				stop = -1
			} else {
				stop = 0
			}
		}
	} else if stop >= length {
		if step < 0 {
			stop = length - 1
		} else {
			stop = length
		}
	}
	if step < 0 {
		if stop < start {
			count = (start-stop-1)/(-step) + 1
		}
	} else {
		if start < stop {
			count = (stop-start-1)/step + 1
		}
	}
	return start, stop, count
}

// Indices normalizes the slice against a machine length.
func (s *Slice) Indices(length int) (start, stop, step, count int, err error) {
	start, stop, step, err = s.Unpack()
	if err != nil {
		return 0, 0, 0, 0, err
	}
	start, stop, count = AdjustIndices(length, start, stop, step)
	return start, stop, step, count, nil
}

// BigIndices normalizes the slice against an arbitrary-precision length,
// for containers whose element count exceeds the machine range.
func (s *Slice) BigIndices(length *big.Int) (start, stop, step *big.Int, err error) {
	one := big.NewInt(1)
	step = one
	if s.Step.IsValid() && !s.Step.IsNil() {
		b, ok := AsBigInt(s.Step)
		if !ok {
			return nil, nil, nil, NewTypeError("slice indices must be integers or None")
		}
		if b.Sign() == 0 {
			return nil, nil, nil, NewValueError("slice step cannot be zero")
		}
		step = new(big.Int).Set(b)
	}
	backward := step.Sign() < 0

	lower := new(big.Int)
	upper := new(big.Int).Set(length)
	if backward {
		// [-1, length-1] index window for negative steps.
		lower = big.NewInt(-1)
		upper = new(big.Int).Sub(length, one)
	}

	// Defaults land directly on the window edges; only caller-supplied
	// indices pass through negative adjustment and clipping, so the
	// backward default stop of -1 survives untouched.
	bound := func(v Value, def *big.Int) (*big.Int, error) {
		if !v.IsValid() || v.IsNil() {
			return def, nil
		}
		b, ok := AsBigInt(v)
		if !ok {
			return nil, NewTypeError("slice indices must be integers or None")
		}
		idx := new(big.Int).Set(b)
		if idx.Sign() < 0 {
			idx.Add(idx, length)
			if idx.Cmp(lower) < 0 {
				idx.Set(lower)
			}
			return idx, nil
		}
		if idx.Cmp(upper) > 0 {
			idx.Set(upper)
		}
		return idx, nil
	}

	defStart, defStop := lower, upper
	if backward {
		defStart, defStop = upper, lower
	}
	start, err = bound(s.Start, defStart)
	if err != nil {
		return nil, nil, nil, err
	}
	stop, err = bound(s.Stop, defStop)
	if err != nil {
		return nil, nil, nil, err
	}
	return start, stop, step, nil
}

func registerSliceType(ctx *Context) {
	reprBound := func(ctx *Context, v Value) (string, error) {
		if !v.IsValid() || v.IsNil() {
			return "None", nil
		}
		return ctx.Repr(v)
	}
	NewTypeDef("slice").
		AddGetter("start", func(ctx *Context, self Value) (Value, error) {
			return slicePayload(self).Start, nil
		}).
		AddGetter("stop", func(ctx *Context, self Value) (Value, error) {
			return slicePayload(self).Stop, nil
		}).
		AddGetter("step", func(ctx *Context, self Value) (Value, error) {
			return slicePayload(self).Step, nil
		}).
		With(
			Constructible(func(ctx *Context, class *Class, args []Value) (Value, error) {
				switch len(args) {
				case 1:
					return ctx.NewSlice(None, args[0], None), nil
				case 2:
					return ctx.NewSlice(args[0], args[1], None), nil
				case 3:
					return ctx.NewSlice(args[0], args[1], args[2]), nil
				default:
					return Value{}, NewTypeError("slice expected 1 to 3 arguments, got %d", len(args))
				}
			}),
			Unhashable(),
			Representable(func(ctx *Context, self Value) (string, error) {
				s := slicePayload(self)
				start, err := reprBound(ctx, s.Start)
				if err != nil {
					return "", err
				}
				stop, err := reprBound(ctx, s.Stop)
				if err != nil {
					return "", err
				}
				step, err := reprBound(ctx, s.Step)
				if err != nil {
					return "", err
				}
				return "slice(" + start + ", " + stop + ", " + step + ")", nil
			}),
		).
		Realize(ctx, ctx.Types.Slice)
}

func slicePayload(v Value) *Slice {
	s, ok := AsSlice(v)
	if !ok {
		panic("vm: expected slice payload")
	}
	return s
}
